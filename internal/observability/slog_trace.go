package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/qaportal/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// TraceHandler stamps trace/span ids plus the request and actor ids carried in ctx.
type TraceHandler struct {
	next slog.Handler
}

func NewTraceHandler(next slog.Handler) *TraceHandler {
	return &TraceHandler{next: next}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, r)
	}

	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()

	if sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if id, ok := actorctx.RequestIDFrom(ctx); ok {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id, ok := actorctx.ActorIDFrom(ctx); ok {
		r.AddAttrs(slog.String("actor_id", id))
	}

	return h.next.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{next: h.next.WithGroup(name)}
}
