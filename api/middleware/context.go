package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourwae/fastget-backend/internal/authz"
	"github.com/yourwae/fastget-backend/pkg/enums"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxAccessID  contextKey = "access_id"
)

// PrincipalFromContext returns the authenticated caller, or authz.Anonymous.
func PrincipalFromContext(ctx context.Context) authz.Principal {
	if ctx == nil {
		return authz.Anonymous
	}
	if p, ok := ctx.Value(ctxPrincipal).(authz.Principal); ok {
		return p
	}
	return authz.Anonymous
}

func UserIDFromContext(ctx context.Context) string {
	p := PrincipalFromContext(ctx)
	if p.UserID == uuid.Nil {
		return ""
	}
	return p.UserID.String()
}

func RoleFromContext(ctx context.Context) string {
	return string(PrincipalFromContext(ctx).Role)
}

// AccessIDFromContext returns the jti of the bearer token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal injects the caller into the context.
func WithPrincipal(ctx context.Context, userID uuid.UUID, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, authz.Principal{UserID: userID, Role: role})
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}
