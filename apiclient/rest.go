package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RequestOption configures a single call made through the typed helpers.
type RequestOption func(*Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithQueryParam adds a query parameter to the request.
func WithQueryParam(key, value string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(map[string]string)
		}
		r.Query[key] = value
	}
}

// WithTimeout sets a per-call timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *Request) { r.Timeout = d }
}

// WithSuccessCode overrides the expected business success code.
func WithSuccessCode(code int) RequestOption {
	return func(r *Request) { r.SuccessCode = Int(code) }
}

// WithGlobalMessage overrides whether failures surface through the
// global message handler for this call.
func WithGlobalMessage(show bool) RequestOption {
	return func(r *Request) { r.ShowGlobalMessage = Bool(show) }
}

// WithCodeCheck overrides envelope code enforcement for this call.
func WithCodeCheck(enabled bool) RequestOption {
	return func(r *Request) { r.EnableCodeCheck = Bool(enabled) }
}

// Get performs a GET request and decodes the unwrapped data into type T.
func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Call[T](ctx, c, build(http.MethodGet, path, nil, opts))
}

// Post performs a POST request with a JSON body and decodes the unwrapped
// data into type T.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return Call[T](ctx, c, build(http.MethodPost, path, body, opts))
}

// Put performs a PUT request with a JSON body and decodes the unwrapped
// data into type T.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (T, error) {
	return Call[T](ctx, c, build(http.MethodPut, path, body, opts))
}

// Delete performs a DELETE request and decodes the unwrapped data into
// type T.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	return Call[T](ctx, c, build(http.MethodDelete, path, nil, opts))
}

// Call executes an arbitrary request and decodes the unwrapped data into
// type T. An empty or null data payload leaves T at its zero value.
func Call[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var data T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return data, err
	}
	if len(resp.Body) > 0 && string(resp.Body) != "null" {
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return data, fmt.Errorf("apiclient: decode data: %w", err)
		}
	}
	return data, nil
}

func build(method, path string, body any, opts []RequestOption) Request {
	req := Request{Method: method, Path: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
