package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"backend-relay/internal/metrics"
)

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/*", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() != "backend_relay_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["method"] == "GET" && labels["status_code"] == "200" && labels["route"] == "forward" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected a GET/200/forward sample in backend_relay_http_requests_total")
	}
}

func TestMetricsMiddleware_ErrorStatusFromHTTPError(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/missing-route-handler", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing-route-handler", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() != "backend_relay_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "status_code" && l.GetValue() == "404" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected a 404 sample recorded from *echo.HTTPError")
	}
}
