// Package apiclient provides an envelope-aware HTTP API client. Every
// response body is expected to follow the uniform wrapper
// {code, message, data}; a business code equal to the configured success
// code marks the call as successful regardless of anything else in the
// payload, and any other code is a business failure even on HTTP 200.
//
// The client standardizes four pipeline stages (request accepted, request
// rejected, response accepted, response rejected), each of which can be
// replaced wholesale through Interceptors. Optional Handlers surface
// authorization injection, global user-facing messages, and backend
// business errors without suppressing the returned error.
//
// Unwrap policy: on business success the client resolves with the
// envelope's data field, not the full envelope. Typed helpers decode
// that field directly:
//
//	client, _ := apiclient.New(apiclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Handlers: apiclient.Handlers{
//	        HandleGlobalMessage: func(msg string) { toast.Show(msg) },
//	    },
//	})
//
//	user, err := apiclient.Get[User](ctx, client, "/users/123")
//
// The streaming counterpart lives in the stream subpackage.
package apiclient
