package controllers

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/coldrackhq/coldrack-backend/api/middleware"
	"github.com/coldrackhq/coldrack-backend/api/responses"
	"github.com/coldrackhq/coldrack-backend/api/validators"
	"github.com/coldrackhq/coldrack-backend/internal/auth"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

const sessionMarkerTTL = 24 * time.Hour

// setSessionMarker writes the presence-only cookie the edge gate checks.
// It carries the user id, never a credential.
func setSessionMarker(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.MarkerCookieName,
		Value:    userID,
		Path:     "/",
		MaxAge:   int(sessionMarkerTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionMarker(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.MarkerCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func bearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}

// clientIP prefers proxy headers so login throttling keys on the real
// caller rather than the load balancer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// AuthLogin verifies credentials, issues the token pair, and sets the
// session marker cookie for the edge gate.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), body, clientIP(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionMarker(w, session.User.ID.String())
		responses.WriteSuccess(w, session)
	}
}

// AuthRefresh rotates the refresh token and re-hydrates the identity from
// a fresh profile read.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Refresh(r.Context(), body)
		if err != nil {
			clearSessionMarker(w)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionMarker(w, session.User.ID.String())
		responses.WriteSuccess(w, session)
	}
}

// AuthLogout revokes the server-side session and clears the marker cookie.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token, err := bearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Logout(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clearSessionMarker(w)
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthMe returns the current identity from a fresh profile row read.
func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		profile, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}
