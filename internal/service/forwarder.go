// Package service implements the core forwarding logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"backend-relay/internal/config"
	"backend-relay/internal/model"
)

// BackendDoer performs one HTTP exchange with the backend.
// *client.BackendClient implements it; tests substitute doubles.
type BackendDoer interface {
	Do(ctx context.Context, method, url string, header http.Header, body []byte) (int, http.Header, []byte, error)
}

// baselineDenyHeaders are always stripped from outbound requests, regardless
// of configuration. Host names the relay's own listening address and would
// break routing and TLS validation against the real backend; the rest are
// hop-by-hop or recomputed for the buffered outbound body.
var baselineDenyHeaders = []string{
	"Host",
	"Content-Length",
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// forwardableResponseHeaders are the only backend response headers mirrored
// to the client. Content-Length is recomputed from the buffered body.
var forwardableResponseHeaders = map[string]bool{
	"Content-Type":     true,
	"Content-Encoding": true,
	"Cache-Control":    true,
	"Date":             true,
	"Etag":             true,
	"Last-Modified":    true,
	"X-Request-Id":     true,
}

const (
	userAgent          = "backend-relay/1.0"
	defaultContentType = "application/json"
)

// Forwarder turns an inbound request into a backend call and maps the outcome
// into a result or a typed error. It holds no per-request state; concurrent
// use needs no synchronization.
type Forwarder struct {
	client  BackendDoer
	cfg     *config.Config
	logger  *slog.Logger
	baseURL *url.URL        // nil when backend.base_url is unset
	deny    map[string]bool // canonical header names never forwarded
}

// NewForwarder creates a Forwarder. An unset backend base URL is not an error
// here: it is reported per request as a configuration failure. A set but
// unparseable URL is rejected.
func NewForwarder(c BackendDoer, cfg *config.Config, logger *slog.Logger) (*Forwarder, error) {
	var base *url.URL
	if cfg.Backend.BaseURL != "" {
		u, err := url.Parse(cfg.Backend.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse backend base_url: %w", err)
		}
		base = u
	}

	deny := make(map[string]bool, len(baselineDenyHeaders)+len(cfg.Forward.HeaderDenylist))
	for _, h := range baselineDenyHeaders {
		deny[http.CanonicalHeaderKey(h)] = true
	}
	for _, h := range cfg.Forward.HeaderDenylist {
		deny[http.CanonicalHeaderKey(h)] = true
	}

	return &Forwarder{
		client:  c,
		cfg:     cfg,
		logger:  logger.With("component", "forwarder"),
		baseURL: base,
		deny:    deny,
	}, nil
}

// Forward sends a ForwardRequest to the backend and returns the mirrored
// result. Failures come back as a *model.ProxyError: configuration checks run
// first, in a fixed order, and short-circuit before any network I/O.
func (f *Forwarder) Forward(fr *model.ForwardRequest) (*model.ProxyResult, error) {
	if f.baseURL == nil {
		return nil, &model.ProxyError{
			Kind:    model.KindConfiguration,
			Message: "backend base URL not set",
		}
	}
	if f.cfg.Backend.SecretKey == "" {
		return nil, &model.ProxyError{
			Kind:    model.KindConfiguration,
			Message: "shared secret key not set",
		}
	}

	target := f.buildBackendURL(fr.Path, fr.Query)
	header := f.sanitizeHeaders(fr.Header)

	// GET and HEAD are bodyless through this relay, whatever the client sent.
	body := fr.Body
	if fr.Method == http.MethodGet || fr.Method == http.MethodHead {
		body = nil
	}

	f.logger.Debug("forwarding request",
		"method", fr.Method,
		"path", fr.Path,
	)

	status, respHeader, respBody, err := f.client.Do(fr.Ctx, fr.Method, target, header, body)
	if err != nil {
		return nil, &model.ProxyError{
			Kind:       model.KindConnection,
			Message:    "backend request failed",
			BackendURL: target,
			Err:        err,
		}
	}

	return &model.ProxyResult{
		StatusCode: status,
		Header:     f.filterResponseHeaders(respHeader),
		Body:       respBody,
	}, nil
}

// buildBackendURL joins the wildcard path suffix and re-encoded query onto
// the backend base URL. A root request maps to the base path plus "/".
func (f *Forwarder) buildBackendURL(path string, query url.Values) string {
	u := *f.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + path
	u.RawQuery = query.Encode()
	return u.String()
}

// sanitizeHeaders copies every inbound header except denied names, then
// forces the shared-secret header to the configured value. The secret always
// wins over anything the client supplied under that name.
func (f *Forwarder) sanitizeHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if f.deny[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}

	dst.Set(f.cfg.Backend.SecretHeader, f.cfg.Backend.SecretKey)

	if dst.Get("Content-Type") == "" {
		dst.Set("Content-Type", defaultContentType)
	}
	if dst.Get("User-Agent") == "" {
		dst.Set("User-Agent", userAgent)
	}
	return dst
}

func (f *Forwarder) filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		if forwardableResponseHeaders[http.CanonicalHeaderKey(key)] {
			dst[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
		}
	}
	if dst.Get("Content-Type") == "" {
		dst.Set("Content-Type", defaultContentType)
	}
	return dst
}
