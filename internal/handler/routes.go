package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backend-relay/internal/config"
	"backend-relay/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The relay's
// own endpoints are registered before the wildcard so echo resolves them
// first; everything else falls through to the forwarder.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	e.GET("/healthz", health.Healthz)
	e.GET("/relay/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}

	for _, method := range forwardMethods {
		e.Add(method, "/*", proxy.Handle)
	}
}
