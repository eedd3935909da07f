package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/coldrackhq/coldrack-backend/internal/routeguard"
)

// MarkerCookieName is the presence-only cookie the login flow sets. The
// edge gate only checks that it exists; real authorization happens against
// the bearer token on the API surface.
const MarkerCookieName = "coldrack_uid"

// EdgeGate performs the coarse cookie redirect for page navigations:
// dashboard paths without the marker cookie bounce to login carrying the
// attempted path, and the login path with a marker bounces back in.
func EdgeGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		_, err := r.Cookie(MarkerCookieName)
		hasMarker := err == nil

		if routeguard.PageForPath(path) != "" && !hasMarker {
			target := routeguard.LoginPath + "?from=" + url.QueryEscape(path)
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		if strings.TrimSuffix(path, "/") == routeguard.LoginPath && hasMarker {
			http.Redirect(w, r, safeReturnPath(r.URL.Query().Get("from")), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// safeReturnPath only honors same-origin relative paths so the `from`
// parameter cannot be used as an open redirect.
func safeReturnPath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return routeguard.DashboardRoot
	}
	return from
}
