package actorctx

import "context"

type ctxKey int

const (
	actorIDKey ctxKey = iota
	requestIDKey
)

// WithActorID records the user a request acts on behalf of (the adminId of a mutation).
func WithActorID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorIDKey, userID)
}

func ActorIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(actorIDKey).(string)

	return v, ok && v != ""
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)

	return v, ok && v != ""
}
