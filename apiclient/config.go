package apiclient

import (
	"fmt"
	"time"
)

const (
	defaultTimeout = 30 * time.Second

	// DefaultSuccessCode is the business code treated as success when the
	// configuration does not specify one.
	DefaultSuccessCode = 10000

	// DefaultRequestIDHeader carries the generated per-request id.
	DefaultRequestIDHeader = "X-Request-ID"
)

// Handlers are optional, long-lived hooks supplied once at construction.
// They are held for the client's entire lifetime and may be invoked
// concurrently from independent in-flight requests; implementations must
// be safe under concurrent calls. A nil hook is a no-op.
type Handlers struct {
	// HandleRequestHeader mutates the merged request before it is sent,
	// typically to inject an authorization token. A returned error rejects
	// the call with that error unchanged.
	HandleRequestHeader func(req *Request) error

	// HandleGlobalMessage surfaces a human-readable error message outside
	// the returned error (e.g. a UI toast). It never suppresses the error.
	HandleGlobalMessage func(message string)

	// HandleBackendError receives business failures (envelope code differs
	// from the expected success code). When set, it takes precedence over
	// HandleGlobalMessage for business failures.
	HandleBackendError func(code int, message string)
}

// Interceptors override individual pipeline stages. A non-nil hook fully
// replaces the default logic for that stage; there is no chaining.
type Interceptors struct {
	// RequestOnFulfilled runs before every outbound call. The default
	// stage merges per-call config over client defaults and applies
	// Handlers.HandleRequestHeader.
	RequestOnFulfilled func(req *Request) error

	// RequestOnRejected handles request construction and serialization
	// failures. The default stage propagates the error unchanged.
	RequestOnRejected func(err error) error

	// ResponseOnFulfilled handles 2xx responses. The default stage decodes
	// the envelope, enforces the business code, and unwraps data.
	ResponseOnFulfilled func(req *Request, resp *Response) (*Response, error)

	// ResponseOnRejected handles transport failures and non-2xx statuses.
	// The default stage surfaces the classified message through
	// Handlers.HandleGlobalMessage and returns the classified error.
	ResponseOnRejected func(req *Request, err error) error
}

// Config configures the API client.
type Config struct {
	// BaseURL is prepended to all request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the default request timeout. Defaults to 30s. Per-call
	// timeouts on Request override it.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests. Per-call
	// headers win on collision.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// SuccessCode is the envelope code that marks business success.
	// Defaults to DefaultSuccessCode.
	SuccessCode int `yaml:"success_code" mapstructure:"success_code"`

	// ShowGlobalMessage controls whether failures are surfaced through
	// HandleGlobalMessage. Nil defaults to true.
	ShowGlobalMessage *bool `yaml:"show_global_message" mapstructure:"show_global_message"`

	// EnableCodeCheck controls envelope code enforcement. Nil defaults to
	// true; when false every 2xx response is treated as successful and
	// the body is returned as-is.
	EnableCodeCheck *bool `yaml:"enable_code_check" mapstructure:"enable_code_check"`

	// DisableRequestID turns off X-Request-ID injection.
	DisableRequestID bool `yaml:"disable_request_id" mapstructure:"disable_request_id"`

	// RequestIDHeader overrides the header used for request-id injection.
	// Defaults to DefaultRequestIDHeader.
	RequestIDHeader string `yaml:"request_id_header" mapstructure:"request_id_header"`

	// Handlers are the optional lifecycle hooks.
	Handlers Handlers `yaml:"-" mapstructure:"-"`

	// Interceptors are the optional stage overrides.
	Interceptors Interceptors `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.SuccessCode == 0 {
		c.SuccessCode = DefaultSuccessCode
	}
	if c.ShowGlobalMessage == nil {
		c.ShowGlobalMessage = Bool(true)
	}
	if c.EnableCodeCheck == nil {
		c.EnableCodeCheck = Bool(true)
	}
	if c.RequestIDHeader == "" {
		c.RequestIDHeader = DefaultRequestIDHeader
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("apiclient: timeout must be positive")
	}
	if c.SuccessCode < 0 {
		return fmt.Errorf("apiclient: success code must not be negative")
	}
	return nil
}

// policy is the effective per-call business configuration after merging
// Request overrides over Config defaults.
type policy struct {
	successCode       int
	showGlobalMessage bool
	enableCodeCheck   bool
}

func (c *Config) policyFor(req *Request) policy {
	p := policy{
		successCode:       c.SuccessCode,
		showGlobalMessage: *c.ShowGlobalMessage,
		enableCodeCheck:   *c.EnableCodeCheck,
	}
	if req.SuccessCode != nil {
		p.successCode = *req.SuccessCode
	}
	if req.ShowGlobalMessage != nil {
		p.showGlobalMessage = *req.ShowGlobalMessage
	}
	if req.EnableCodeCheck != nil {
		p.enableCodeCheck = *req.EnableCodeCheck
	}
	return p
}

// Bool returns a pointer to b, for use in Config and Request overrides.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i, for use in Request overrides.
func Int(i int) *int { return &i }
