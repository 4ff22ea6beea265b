package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/inventory-backend/pkg/actor"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxRole      contextKey = "actor_role"
	ctxUsername  contextKey = "username"
	ctxRequestID contextKey = "request_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext assembles the acting user from the values the auth and
// request id middleware stored. Requests without a valid user id yield a
// system actor carrying only the request id.
func ActorFromContext(ctx context.Context) actor.Actor {
	a := actor.Actor{RequestID: RequestIDFromContext(ctx)}
	if ctx == nil {
		return a
	}
	if id, err := uuid.Parse(UserIDFromContext(ctx)); err == nil {
		a.UserID = &id
	}
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		a.Username = v
	}
	a.Role = enums.UserRole(RoleFromContext(ctx))
	return a
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithActor injects a full actor into the context. Used by tests and by
// anything that authenticates outside the bearer token flow.
func WithActor(ctx context.Context, a actor.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.UserID != nil {
		ctx = context.WithValue(ctx, ctxUserID, a.UserID.String())
	}
	ctx = context.WithValue(ctx, ctxUsername, a.Username)
	ctx = context.WithValue(ctx, ctxRole, string(a.Role))
	if a.RequestID != "" {
		ctx = context.WithValue(ctx, ctxRequestID, a.RequestID)
	}
	return ctx
}
