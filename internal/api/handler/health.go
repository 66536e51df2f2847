package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/duoplay/internal/api/response"
	"github.com/mcoot/duoplay/internal/storage"
)

// Counter reports a live count, such as rooms or connections
type Counter interface {
	Count() int
}

// HealthHandler reports liveness and the read model's reachability
type HealthHandler struct {
	store       storage.Storage
	rooms       Counter
	connections Counter
	logger      *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store storage.Storage, rooms, connections Counter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:       store,
		rooms:       rooms,
		connections: connections,
		logger:      logger,
	}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.Health{
		Status:      "ok",
		Storage:     "ok",
		Rooms:       h.rooms.Count(),
		Connections: h.connections.Count(),
	}
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check: storage unreachable", slog.String("error", err.Error()))
		resp.Status = "degraded"
		resp.Storage = "unreachable"
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, resp)
}
