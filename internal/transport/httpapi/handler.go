package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/leonardcser/clockverse/internal/bucket"
	"github.com/leonardcser/clockverse/internal/content"
	"github.com/leonardcser/clockverse/internal/coordinator"
	"github.com/leonardcser/clockverse/internal/service"
)

const headerOutcome = "X-Cache-Outcome"

type Handler struct {
	Service Current
	Log     *zap.Logger
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Service.Ready(ctx); err != nil {
		h.Log.Warn("store ping failed", zap.String("req_id", RequestIDFromCtx(r.Context())), zap.Error(err))
		writeJSON(w, r, http.StatusServiceUnavailable, errorBody{Error: "cache unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// Content serves the record for the current bucket.
//
//	GET /content?tz=Europe/Paris&context=lobby
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := bucket.Params{TimeZone: q.Get("tz"), Variant: q.Get("context")}

	resp, err := h.Service.Current(r.Context(), params)
	if resp.Outcome != 0 {
		w.Header().Set(headerOutcome, resp.Outcome.String())
	}

	status := statusFor(err)
	if status == http.StatusServiceUnavailable || status == http.StatusInternalServerError {
		h.Log.Warn("no content", zap.String("req_id", RequestIDFromCtx(r.Context())), zap.String("key", resp.Bucket.Data), zap.Error(err))
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, r, status, errorBody{Error: err.Error()})
		return
	}

	w.Header().Set("Cache-Control", cacheControl(resp))
	writeJSON(w, r, status, resp.Record)
}

// statusFor maps service errors to HTTP. A rate limited response still has a
// usable body.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, content.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, content.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// cacheControl lets clients keep a good record until its bucket ends.
// Anything assembled from fallbacks is not cacheable.
func cacheControl(resp service.Response) string {
	if resp.Outcome != coordinator.Hit && resp.Outcome != coordinator.Published {
		return "no-store"
	}
	secs := int(math.Ceil(resp.MaxAge.Seconds()))
	return "public, max-age=" + strconv.Itoa(secs)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
