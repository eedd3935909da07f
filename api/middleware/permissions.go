package middleware

import (
	"net/http"

	"github.com/coldrackhq/coldrack-backend/api/responses"
	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

// RequirePage rejects requests whose identity lacks the given access kind
// on the given page. It must run after Auth.
func RequirePage(page enums.Page, access enums.AccessKind, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithPage(ctx, string(page))
			}

			identity := IdentityFromContext(ctx)
			if identity == nil {
				responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeUnauthorized, nil, "authentication required"))
				return
			}
			if !permissions.Allowed(identity, page, access) {
				responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeForbidden, nil, "page access denied"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
