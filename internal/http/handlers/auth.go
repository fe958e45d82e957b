package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/qaportal/internal/config"
	"github.com/geocoder89/qaportal/internal/domain/user"
	"github.com/geocoder89/qaportal/internal/observability"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (user.User, error)
	Login(ctx context.Context, email, password string) (user.Session, error)
}

type AuthHandler struct {
	svc  AuthService
	prom *observability.Prom
}

func NewAuthHandler(svc AuthService, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{svc: svc, prom: prom}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,maxbytes=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		h.prom.AuthAttempt("register", "invalid")
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.svc.Register(cctx, req.Name, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrValidation):
			h.prom.AuthAttempt("register", "invalid")
			RespondBadRequest(ctx, "Invalid registration details", gin.H{"reason": err.Error()})
		case errors.Is(err, user.ErrEmailTaken):
			h.prom.AuthAttempt("register", "email_taken")
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
		default:
			h.prom.AuthAttempt("register", "error")
			slog.Default().ErrorContext(ctx.Request.Context(), "register failed", "err", err)
			RespondInternal(ctx, "Registration failed")
		}
		return
	}

	h.prom.AuthAttempt("register", "ok")

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		h.prom.AuthAttempt("login", "invalid")
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	sess, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			h.prom.AuthAttempt("login", "invalid_credentials")
			RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		h.prom.AuthAttempt("login", "error")
		slog.Default().ErrorContext(ctx.Request.Context(), "login failed", "err", err)
		RespondInternal(ctx, "Login failed")
		return
	}

	h.prom.AuthAttempt("login", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    sess,
	})
}
