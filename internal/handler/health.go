package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/minhvu/pushrelay/internal/store"
)

type HealthHandler struct {
	store  store.RecordStore
	logger *slog.Logger
}

func NewHealthHandler(store store.RecordStore, l *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: l}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Readiness pings the record store with a short timeout so a hanging
// database cannot hang the probe.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("Readiness check failed", slog.Any("error", err))
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
