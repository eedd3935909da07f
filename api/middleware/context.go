package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity attaches the authenticated identity to the request context.
func WithIdentity(ctx context.Context, identity *permissions.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authenticated identity, or nil when the
// request was not authenticated.
func IdentityFromContext(ctx context.Context) *permissions.Identity {
	identity, _ := ctx.Value(identityKey).(*permissions.Identity)
	return identity
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if identity := IdentityFromContext(ctx); identity != nil {
		return identity.UserID
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if identity := IdentityFromContext(ctx); identity != nil {
		return identity.Role
	}
	return ""
}
