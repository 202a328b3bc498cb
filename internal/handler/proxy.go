package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"backend-relay/internal/config"
	"backend-relay/internal/metrics"
	"backend-relay/internal/model"
	"backend-relay/internal/service"
)

// forwardMethods is the inbound surface of the relay. Anything else on the
// wildcard route gets echo's 405.
var forwardMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodHead,
}

// ProxyHandler forwards wildcard-route requests to the configured backend.
type ProxyHandler struct {
	forwarder *service.Forwarder
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewProxyHandler creates a ProxyHandler. The metrics parameter may be nil.
func NewProxyHandler(f *service.Forwarder, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ProxyHandler {
	return &ProxyHandler{
		forwarder: f,
		cfg:       cfg,
		logger:    logger.With("component", "proxy_handler"),
		metrics:   m,
	}
}

// Handle buffers the inbound request, forwards it, and mirrors the backend's
// response — or converts the failure into a structured JSON error.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	var body []byte
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, model.ErrorPayload{
				Error:   "RequestError",
				Message: "reading request body failed",
			})
		}
		body = b
	}

	fr := &model.ForwardRequest{
		Ctx:    req.Context(),
		Method: req.Method,
		Path:   c.Param("*"),
		Query:  c.QueryParams(),
		Header: req.Header,
		Body:   body,
	}

	res, err := h.forwarder.Forward(fr)
	if err != nil {
		return h.mapError(c, err)
	}

	for key, vals := range res.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}
	c.Response().WriteHeader(res.StatusCode)
	if _, err := c.Response().Write(res.Body); err != nil {
		h.logger.Error("writing response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

// mapError converts a forwarding failure into the caller-facing JSON error.
// Raw upstream error text is included only when forward.debug_errors is on.
func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	var pe *model.ProxyError
	if !errors.As(err, &pe) {
		h.logger.Error("proxy error",
			"err", err,
			"path", c.Request().URL.Path,
		)
		return c.JSON(http.StatusInternalServerError, model.ErrorPayload{
			Error:   string(model.KindConfiguration),
			Message: "internal proxy failure",
		})
	}

	h.logger.Error("proxy error",
		"kind", string(pe.Kind),
		"err", pe.Error(),
		"path", c.Request().URL.Path,
	)
	if h.metrics != nil {
		h.metrics.ForwardErrors.WithLabelValues(string(pe.Kind)).Inc()
	}

	payload := model.ErrorPayload{
		Error:      string(pe.Kind),
		Message:    pe.Message,
		BackendURL: pe.BackendURL,
	}
	if h.cfg.Forward.DebugErrors && pe.Err != nil {
		payload.Detail = pe.Err.Error()
	}

	return c.JSON(pe.StatusCode(), payload)
}
