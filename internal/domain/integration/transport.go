package integration

import (
	"context"
	"errors"
	"time"
)

// Transport errors
var (
	// ErrTransportTimeout indicates the call exceeded its deadline
	ErrTransportTimeout = errors.New("integration: transport call timed out")
	// ErrTransportUnavailable indicates the endpoint could not be reached
	ErrTransportUnavailable = errors.New("integration: endpoint unavailable")
)

// Request is the payload handed to the transport for one call
type Request struct {
	// Endpoint is the target endpoint
	Endpoint Endpoint
	// Auth is the credential to present
	Auth Credential
	// Payload is the request body (nil for probe calls)
	Payload map[string]any
	// Headers are additional request headers
	Headers map[string]string
	// Timeout bounds the call; zero means the adapter default
	Timeout time.Duration
}

// Response is the transport-level outcome of one call
type Response struct {
	// StatusCode is the protocol status code
	StatusCode int
	// Body is the decoded response body
	Body map[string]any
	// Duration is the wall-clock time spent on the wire
	Duration time.Duration
}

// Succeeded returns true for 2xx status codes
func (r *Response) Succeeded() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport defines the port interface for performing integration calls.
// The domain never constructs a transport; adapters (real HTTP client,
// deterministic test fakes) are injected from the outside.
type Transport interface {
	// Send performs one call against the endpoint.
	// A timeout is reported via ErrTransportTimeout; the returned
	// Response is nil whenever err is non-nil.
	Send(ctx context.Context, req Request) (*Response, error)
}
