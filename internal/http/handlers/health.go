package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping     func(ctx context.Context) error
	database string
}

// NewHealthHandler takes the store ping and a display name for the store.
// A nil ping means there is nothing to wait on.
func NewHealthHandler(ping func(ctx context.Context) error, database string) *HealthHandler {
	return &HealthHandler{ping: ping, database: database}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if err := h.check(ctx); err != nil {
		slog.Default().WarnContext(ctx.Request.Context(), "readiness check failed", "database", h.database, "err", err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": "database unreachable"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) APIHealth(ctx *gin.Context) {
	status := "Server is running"
	if err := h.check(ctx); err != nil {
		status = "Server is running, database unreachable"
	}

	ctx.JSON(http.StatusOK, gin.H{"status": status, "database": h.database})
}

func (h *HealthHandler) check(ctx *gin.Context) error {
	if h.ping == nil {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
	defer cancel()

	return h.ping(cctx)
}
