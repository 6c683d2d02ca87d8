// Package stream consumes line-oriented streaming HTTP responses.
//
// Meaningful lines follow an SSE-like convention: a "data: " prefix wraps
// either a JSON payload, opaque text, or the [DONE] end-of-stream
// sentinel. Bare lines are appended as plain text. Each call owns its own
// accumulation buffer and cancellation handle; independent calls may run
// concurrently.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ksimsek/apikit/apiclient"
	"github.com/ksimsek/apikit/logger"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"

	readBufferSize = 4096
	maxErrorBody   = 32 << 10
)

// Options configures a single streaming call.
type Options struct {
	// URL is the request path or full URL.
	URL string
	// Method defaults to POST.
	Method string
	// BaseURL overrides the consumer's base URL for this call.
	BaseURL string
	// Headers are merged over the defaults; caller values win on
	// collision, including Accept and Content-Type.
	Headers map[string]string
	// Body is JSON-serialized when non-nil.
	Body any
	// ExtractContent projects a JSON-framed payload to the text to
	// accumulate. When nil, the parsed value's string form is used.
	ExtractContent func(data json.RawMessage) string
}

// Callbacks are optional per-call hooks. All of them are advisory: they
// never suppress the returned error.
type Callbacks struct {
	// OnStart runs before the request is issued.
	OnStart func()
	// OnMessage receives each non-empty appended chunk and the
	// accumulated text so far.
	OnMessage func(content, fullText string)
	// OnComplete receives the final accumulated text on success.
	OnComplete func(fullText string)
	// OnError receives the failure, exactly once, before Stream returns it.
	OnError func(err error)
}

// Consumer issues streaming requests. It is stateless between calls.
type Consumer struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// New creates a stream consumer on an externally owned HTTP client.
// The client must not have a global timeout; cancellation is handled
// through the call context.
func New(httpClient *http.Client, baseURL string) *Consumer {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Consumer{
		httpClient: httpClient,
		baseURL:    baseURL,
		log:        logger.WithComponent("stream"),
	}
}

// NewFromClient creates a stream consumer sharing an API client's
// transport and base URL. The client's global timeout is dropped so long
// streams are not cut off.
func NewFromClient(c *apiclient.Client) *Consumer {
	hc := &http.Client{Transport: c.Unwrap().Transport}
	return New(hc, c.BaseURL())
}

// Stream issues the request and consumes the response body line by line,
// accumulating decoded content. It blocks until the stream completes,
// fails, or ctx is cancelled; ctx is the abort handle. On success the
// accumulated text is returned and OnComplete fires; on any failure
// OnError fires exactly once and the error is returned without partial
// text.
func (c *Consumer) Stream(ctx context.Context, opts Options, cbs Callbacks) (string, error) {
	// Every call owns its own cancellation, layered under the caller's.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cbs.OnStart != nil {
		cbs.OnStart()
	}

	full, err := c.run(ctx, opts, cbs)
	if err != nil {
		if cbs.OnError != nil {
			cbs.OnError(err)
		}
		return "", err
	}
	if cbs.OnComplete != nil {
		cbs.OnComplete(full)
	}
	return full, nil
}

func (c *Consumer) run(ctx context.Context, opts Options, cbs Callbacks) (string, error) {
	httpReq, url, err := c.buildRequest(ctx, opts)
	if err != nil {
		return "", err
	}

	c.log.Debug("stream request", map[string]interface{}{"method": httpReq.Method, "url": url})

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apiclient.ClassifyTransport(ctx, err, url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", apiclient.NewStatusError(resp.StatusCode, url, body)
	}

	return c.consume(ctx, resp.Body, opts, cbs)
}

// consume reads the body incrementally and splits it into logical lines.
// Bytes accumulate in tail until a newline arrives, so a multi-byte
// character split across two reads is never decoded partially.
func (c *Consumer) consume(ctx context.Context, body io.Reader, opts Options, cbs Callbacks) (string, error) {
	var full strings.Builder
	var tail []byte
	buf := make([]byte, readBufferSize)

	for {
		// Cooperative cancellation: observed between reads.
		if ctx.Err() != nil {
			return "", apiclient.NewCancelledError(ctx.Err())
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			tail = append(tail, buf[:n]...)
			for {
				idx := bytes.IndexByte(tail, '\n')
				if idx < 0 {
					break
				}
				line := tail[:idx]
				tail = tail[idx+1:]
				if c.handleLine(line, &full, opts, cbs) {
					return full.String(), nil
				}
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				// Flush a trailing line without a final newline.
				c.handleLine(tail, &full, opts, cbs)
				return full.String(), nil
			}
			return "", apiclient.ClassifyTransport(ctx, readErr, "")
		}
	}
}

// handleLine decodes one logical line and appends its content. Returns
// true when the [DONE] sentinel ends the stream.
func (c *Consumer) handleLine(raw []byte, full *strings.Builder, opts Options, cbs Callbacks) bool {
	line := strings.TrimSuffix(string(raw), "\r")
	if strings.TrimSpace(line) == "" {
		return false
	}

	var content string
	if strings.HasPrefix(line, dataPrefix) {
		payload := strings.TrimSpace(line[len(dataPrefix):])
		switch {
		case payload == doneSentinel:
			return true
		case json.Valid([]byte(payload)):
			if opts.ExtractContent != nil {
				content = opts.ExtractContent(json.RawMessage(payload))
			} else {
				content = stringifyJSON(payload)
			}
		default:
			content = payload
		}
	} else {
		// No SSE framing: append the raw line directly.
		content = line
	}

	if content == "" {
		return false
	}
	full.WriteString(content)
	if cbs.OnMessage != nil {
		cbs.OnMessage(content, full.String())
	}
	return false
}

func (c *Consumer) buildRequest(ctx context.Context, opts Options) (*http.Request, string, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodPost
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = c.baseURL
	}
	url := resolveURL(baseURL, opts.URL)

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, url, fmt.Errorf("stream: encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, url, fmt.Errorf("stream: create request: %w", err)
	}

	// Defaults first, caller headers last so the caller wins on collision.
	httpReq.Header.Set("Accept", "text/event-stream")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		httpReq.Header.Set(k, v)
	}

	return httpReq, url, nil
}

// stringifyJSON renders a parsed JSON payload as plain text: strings
// unquoted, null empty, everything else via fmt.
func stringifyJSON(payload string) string {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return payload
	}
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func resolveURL(baseURL, path string) string {
	if baseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
