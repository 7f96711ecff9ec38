package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
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

// ActorFromContext rebuilds the authenticated caller. ok is false when the
// request did not pass through Auth.
func ActorFromContext(ctx context.Context) (types.Actor, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return types.Actor{}, false
	}
	role := enums.ActorRole(RoleFromContext(ctx))
	if !role.IsValid() || role == enums.ActorRoleSystem {
		return types.Actor{}, false
	}
	return types.Actor{ID: id, Role: role}, true
}

// WithActor injects an authenticated caller into the context.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.ID.String())
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}
