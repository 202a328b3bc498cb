// Package client provides the HTTP client used to reach the backend.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"backend-relay/internal/config"
	"backend-relay/internal/metrics"
)

// BackendClient sends requests to the configured backend service.
type BackendClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewBackendClient creates a BackendClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable backend metrics recording.
func NewBackendClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *BackendClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Backend.IdleConnections,
		MaxIdleConnsPerHost: cfg.Backend.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &BackendClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "backend_client"),
		metrics: m,
	}
}

// Do sends one request to the backend and returns the raw status, headers and
// fully read body. A single attempt: any failure to connect, complete the
// exchange, or read the body is returned as an error with nothing retried.
// The context controls the lifetime of the call; when it is canceled (client
// disconnect) the backend request is abandoned.
func (c *BackendClient) Do(ctx context.Context, method, url string, header http.Header, body []byte) (int, http.Header, []byte, error) {
	var r io.Reader
	if len(body) > 0 {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header = header

	c.logger.Debug("backend request",
		"method", method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	m := metrics.NormalizeMethod(method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.BackendDuration.WithLabelValues(m).Observe(duration)
		}
		return 0, nil, nil, fmt.Errorf("backend request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if c.metrics != nil {
			c.metrics.BackendDuration.WithLabelValues(m).Observe(duration)
		}
		return 0, nil, nil, fmt.Errorf("read backend response: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.BackendDuration.WithLabelValues(m).Observe(duration)
		c.metrics.BackendResponses.WithLabelValues(m, status).Inc()
	}

	return resp.StatusCode, resp.Header, respBody, nil
}
