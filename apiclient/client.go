package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/ksimsek/apikit/logger"
)

// Client is an envelope-aware API client. It holds no per-call mutable
// state; concurrent calls are independent and require no locking.
type Client struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
}

// Option configures a Client at construction.
type Option func(*Client)

// WithHTTPClient supplies an externally owned *http.Client. The client
// never builds its own transport when one is supplied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger overrides the debug logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a new API client with the given configuration. The
// configuration (handlers and interceptors included) is captured
// immutably; multiple clients are independently configurable.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		log:        logger.WithComponent("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.config.BaseURL }

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client { return c.httpClient }

// Do executes an API call through the interceptor pipeline. On business
// success the returned Response.Body holds the envelope's data field; on
// failure the returned error is a *Error, *BusinessError, or the original
// setup error, per stage.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	pol := c.config.policyFor(&req)

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if err := c.interceptRequest(&req); err != nil {
		return nil, c.rejectRequest(err)
	}

	httpReq, err := c.buildRequest(ctx, &req)
	if err != nil {
		return nil, c.rejectRequest(err)
	}
	url := httpReq.URL.String()

	c.log.Debug("request", map[string]interface{}{"method": httpReq.Method, "url": url})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.rejectResponse(&req, pol, ClassifyTransport(ctx, err, url))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.rejectResponse(&req, pol, ClassifyTransport(ctx, fmt.Errorf("read response body: %w", err), url))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}

	if !result.IsSuccess() {
		return result, c.rejectResponse(&req, pol, NewStatusError(resp.StatusCode, url, body))
	}

	return c.acceptResponse(&req, pol, result)
}

// interceptRequest runs the request-accepted stage: the override when
// present, otherwise the header handler.
func (c *Client) interceptRequest(req *Request) error {
	if f := c.config.Interceptors.RequestOnFulfilled; f != nil {
		return f(req)
	}
	if f := c.config.Handlers.HandleRequestHeader; f != nil {
		return f(req)
	}
	return nil
}

// rejectRequest runs the request-rejected stage. The default propagates
// setup errors unchanged.
func (c *Client) rejectRequest(err error) error {
	if f := c.config.Interceptors.RequestOnRejected; f != nil {
		return f(err)
	}
	return err
}

// acceptResponse runs the response-accepted stage: envelope decode, code
// check, and unwrap.
func (c *Client) acceptResponse(req *Request, pol policy, resp *Response) (*Response, error) {
	if f := c.config.Interceptors.ResponseOnFulfilled; f != nil {
		return f(req, resp)
	}

	if !pol.enableCodeCheck {
		return resp, nil
	}

	var env Envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return resp, fmt.Errorf("apiclient: decode envelope: %w", err)
	}

	if env.Code == pol.successCode {
		resp.Body = env.Data
		return resp, nil
	}

	msg := env.Message
	if msg == "" {
		msg = fmt.Sprintf("Request failed, business code: %d", env.Code)
	}
	// Exactly one of the two hooks fires; the backend-error handler wins.
	if f := c.config.Handlers.HandleBackendError; f != nil {
		f(env.Code, msg)
	} else if pol.showGlobalMessage {
		c.globalMessage(msg)
	}
	return resp, &BusinessError{Code: env.Code, Message: msg, Data: env.Data}
}

// rejectResponse runs the response-rejected stage: surface the resolved
// message and return the classified error.
func (c *Client) rejectResponse(req *Request, pol policy, err error) error {
	if f := c.config.Interceptors.ResponseOnRejected; f != nil {
		return f(req, err)
	}

	var e *Error
	if errors.As(err, &e) {
		c.log.Debug("request failed", map[string]interface{}{"class": e.Code.String(), "message": e.Message})
		if pol.showGlobalMessage {
			c.globalMessage(e.Message)
		}
	}
	return err
}

func (c *Client) globalMessage(msg string) {
	if f := c.config.Handlers.HandleGlobalMessage; f != nil {
		f(msg)
	}
}

// buildRequest constructs an *http.Request from the client config and
// the merged request.
func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	url := joinURL(c.config.BaseURL, req.Path)

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: create request: %w", err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	// Default headers, then request headers (request wins).
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	if !c.config.DisableRequestID && httpReq.Header.Get(c.config.RequestIDHeader) == "" {
		httpReq.Header.Set(c.config.RequestIDHeader, uuid.NewString())
	}

	return httpReq, nil
}
