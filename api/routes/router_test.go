package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/internal/users"
	pkgauth "github.com/coldrackhq/coldrack-backend/pkg/auth"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	dbtypes "github.com/coldrackhq/coldrack-backend/pkg/db/types"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{ ok bool }

func (s stubSessions) HasSession(context.Context, string) (bool, error) {
	return s.ok, nil
}

type gormTx struct {
	conn *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.conn.WithContext(ctx).Transaction(fn)
}

func newRouterDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:routes_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	for _, schema := range []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'viewer',
			grants TEXT NOT NULL DEFAULT '{}',
			is_active INTEGER NOT NULL DEFAULT 1,
			last_login_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE racks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			line TEXT NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE rack_placements (
			id TEXT PRIMARY KEY,
			rack_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			floor INTEGER NOT NULL DEFAULT 1,
			weight_kg NUMERIC NOT NULL DEFAULT 0,
			manufacturer TEXT NOT NULL DEFAULT '',
			inbound_at DATETIME,
			outbound_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE activity_records (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			actor_id TEXT,
			actor_name TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL,
			details TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE change_events (
			id TEXT PRIMARY KEY,
			table_name TEXT NOT NULL,
			action TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			actor_id TEXT,
			payload TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			attempt_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			occurred_at DATETIME,
			published_at DATETIME
		)`,
	} {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func newTestRouter(t *testing.T, conn *gorm.DB) (http.Handler, config.JWTConfig) {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})

	recorder, err := history.NewRecorder(history.NewRepository(conn))
	require.NoError(t, err)
	racksSvc, err := racks.NewService(racks.ServiceParams{
		Tx:       gormTx{conn: conn},
		Repo:     racks.NewRepository(conn),
		Recorder: recorder,
		Changes:  outbox.NewService(outbox.NewRepository(conn), nil),
		Logger:   logg,
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "coldrack", ExpirationMinutes: 60}

	handler := NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Sessions: stubSessions{ok: true},
		Users:    users.NewRepository(conn),
		Racks:    racksSvc,
	})
	return handler, cfg.JWT
}

func seedUser(t *testing.T, conn *gorm.DB, role enums.UserRole, grants dbtypes.PageGrants) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@coldrack.io",
		PasswordHash: "x",
		Name:         "Router Test",
		Role:         role,
		Grants:       grants,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func bearerFor(t *testing.T, jwtCfg config.JWTConfig, user *models.User) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterHealthAndMetrics(t *testing.T) {
	handler, _ := newTestRouter(t, newRouterDB(t))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestRouterRequiresAuth(t *testing.T) {
	handler, _ := newTestRouter(t, newRouterDB(t))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/racks", nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRouterAdminListsRacks(t *testing.T) {
	conn := newRouterDB(t)
	handler, jwtCfg := newTestRouter(t, conn)
	admin := seedUser(t, conn, enums.UserRoleAdmin, dbtypes.PageGrants{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/racks", nil)
	req.Header.Set("Authorization", bearerFor(t, jwtCfg, admin))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"success":true`)
}

func TestRouterDeniesUngrantedPage(t *testing.T) {
	conn := newRouterDB(t)
	handler, jwtCfg := newTestRouter(t, conn)
	viewer := seedUser(t, conn, enums.UserRoleViewer, dbtypes.PageGrants{
		enums.PageHistory: {View: true},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/racks", nil)
	req.Header.Set("Authorization", bearerFor(t, jwtCfg, viewer))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRouterViewGrantCannotMutate(t *testing.T) {
	conn := newRouterDB(t)
	handler, jwtCfg := newTestRouter(t, conn)
	viewer := seedUser(t, conn, enums.UserRoleViewer, dbtypes.PageGrants{
		enums.PageRacks: {View: true},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/racks", strings.NewReader(`{"name":"A01","line":"LINE-1"}`))
	req.Header.Set("Authorization", bearerFor(t, jwtCfg, viewer))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRouterEdgeGateRedirects(t *testing.T) {
	handler, _ := newTestRouter(t, newRouterDB(t))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/dashboard/racks", nil))
	require.Equal(t, http.StatusFound, resp.Code)
	require.Equal(t, "/login?from=%2Fdashboard%2Fracks", resp.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/racks", nil)
	req.AddCookie(&http.Cookie{Name: "coldrack_uid", Value: uuid.NewString()})
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}
