// Package model defines shared types for the relay.
package model

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ForwardRequest represents a client request to be forwarded to the backend.
// The body is buffered in full before forwarding; this relay does not stream.
type ForwardRequest struct {
	Ctx    context.Context
	Method string
	Path   string // wildcard suffix, no leading slash
	Query  url.Values
	Header http.Header
	Body   []byte
}

// ProxyResult represents a completed backend exchange mirrored to the client.
type ProxyResult struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ErrorKind classifies a forwarding failure.
type ErrorKind string

const (
	// KindConfiguration means the relay itself cannot run correctly
	// (required settings missing). Mapped to 500.
	KindConfiguration ErrorKind = "ConfigurationError"

	// KindConnection means the relay ran correctly but the backend call
	// failed (DNS, refused, timeout, TLS, truncated read). Mapped to 502.
	KindConnection ErrorKind = "ConnectionError"
)

// ProxyError is a forwarding failure converted into a well-formed response
// rather than propagated as a crash.
type ProxyError struct {
	Kind       ErrorKind
	Message    string
	BackendURL string // attempted upstream URL, empty for configuration errors
	Err        error  // underlying cause, if any
}

func (e *ProxyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}

// StatusCode returns the caller-facing HTTP status for this failure.
// Connection failures are 502 because the fault is upstream, not in the
// relay's own logic.
func (e *ProxyError) StatusCode() int {
	if e.Kind == KindConnection {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorPayload is the structured JSON body returned to callers on failure.
// Detail carries raw internal error text and is populated only when debug
// errors are enabled.
type ErrorPayload struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	BackendURL string `json:"backend_url,omitempty"`
	Detail     string `json:"detail,omitempty"`
}
