package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/auth"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	dbtypes "github.com/coldrackhq/coldrack-backend/pkg/db/types"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
)

type stubSessions struct {
	ok  bool
	err error
}

func (s stubSessions) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

type stubUsers struct {
	user *models.User
	err  error
}

func (s stubUsers) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func testUser(id uuid.UUID) *models.User {
	return &models.User{
		ID:       id,
		Email:    "ops@coldrack.io",
		Name:     "Ops",
		Role:     enums.UserRoleAdmin,
		Grants:   dbtypes.PageGrants{},
		IsActive: true,
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Auth(cfg, stubSessions{ok: true}, stubUsers{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	handler := Auth(cfg, stubSessions{ok: true}, stubUsers{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID, enums.UserRoleAdmin)

	handler := Auth(cfg, stubSessions{ok: false}, stubUsers{user: testUser(userID)}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInactiveUser(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID, enums.UserRoleAdmin)

	user := testUser(userID)
	user.IsActive = false
	handler := Auth(cfg, stubSessions{ok: true}, stubUsers{user: user}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthLoadsIdentity(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID, enums.UserRoleAdmin)

	var captured *permissions.Identity
	handler := Auth(cfg, stubSessions{ok: true}, stubUsers{user: testUser(userID)}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured == nil {
		t.Fatal("expected identity in context")
	}
	if captured.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, captured.UserID)
	}
	if captured.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role got %s", captured.Role)
	}
}
