package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/coldrackhq/coldrack-backend/api/responses"
	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/auth"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

type sessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Auth validates the bearer access token, requires a live server-side
// session for its jti, and loads the current user row into the request
// context as an identity.
func Auth(cfg config.JWTConfig, sessions sessionChecker, loader userLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeUnauthorized, nil, "missing bearer token"))
				return
			}

			claims, err := auth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeUnauthorized, err, "invalid access token"))
				return
			}

			live, err := sessions.HasSession(ctx, claims.ID)
			if err != nil {
				responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeInternal, err, "checking session"))
				return
			}
			if !live {
				responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeUnauthorized, nil, "session expired"))
				return
			}

			user, err := loader.FindByID(ctx, claims.UserID)
			if err != nil {
				responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeUnauthorized, err, "account not found"))
				return
			}
			if !user.IsActive {
				responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeUnauthorized, nil, "account disabled"))
				return
			}

			identity := permissions.FromUser(user)
			ctx = WithIdentity(ctx, identity)
			if logg != nil {
				ctx = logg.WithUserID(ctx, identity.UserID.String())
				ctx = logg.WithActorRole(ctx, string(identity.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
