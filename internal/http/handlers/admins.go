package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/qaportal/internal/config"
	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type AdminsLister interface {
	ListAdmins(ctx context.Context) ([]user.User, error)
}

type AdminsHandler struct {
	svc AdminsLister
}

func NewAdminsHandler(svc AdminsLister) *AdminsHandler {
	return &AdminsHandler{svc: svc}
}

// ListAdmins is public; it feeds the "questions by admin" picker.
func (h *AdminsHandler) ListAdmins(ctx *gin.Context) {
	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	admins, err := h.svc.ListAdmins(cctx)

	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "list admins failed", "err", err)
		RespondInternal(ctx, "Failed to fetch admins")
		return
	}

	if admins == nil {
		admins = []user.User{}
	}

	RespondJSONWithETag(ctx, http.StatusOK, admins)
}
