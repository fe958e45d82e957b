package middlewares

import (
	"log/slog"
	"time"

	"github.com/geocoder89/qaportal/internal/actorctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)

		// accept a caller supplied id, otherwise mint one
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx.Writer.Header().Set(requestIDHeader, id)

		ctx.Set(CtxRequestID, id)
		ctx.Request = ctx.Request.WithContext(actorctx.WithRequestID(ctx.Request.Context(), id))

		ctx.Next()

	}
}

func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // fallback (e.g. 404)
		}

		method := ctx.Request.Method

		ctx.Next()

		lat := time.Since(start)
		status := ctx.Writer.Status()

		// request_id and actor_id come from the request context via the log handler
		logAttrs := []any{
			"method", method,
			"route", route,
			"status", status,
			"latency_ms", lat.Milliseconds(),
		}

		if len(ctx.Errors) > 0 {
			logAttrs = append(logAttrs, "errors", ctx.Errors.String())
		}

		slog.Default().InfoContext(ctx.Request.Context(), "http_request", logAttrs...)
	}
}
