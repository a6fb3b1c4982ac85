package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

func newRouter(h *Handler, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Liveness)
	mux.HandleFunc("GET /readyz", h.Readiness)
	mux.HandleFunc("GET /content", h.Content)

	return WithRequestID(Logging(log)(mux))
}
