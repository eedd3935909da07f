package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	dbtypes "github.com/coldrackhq/coldrack-backend/pkg/db/types"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
	"github.com/coldrackhq/coldrack-backend/pkg/security"
)

type gormTx struct {
	conn *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.conn.WithContext(ctx).Transaction(fn)
}

func newUsersDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:users_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
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

func newUsersService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	recorder, err := history.NewRecorder(history.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Tx:             gormTx{conn: conn},
		Repo:           NewRepository(conn),
		Recorder:       recorder,
		Changes:        outbox.NewService(outbox.NewRepository(conn), nil),
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc
}

func adminIdentity() *permissions.Identity {
	return &permissions.Identity{
		UserID: uuid.New(),
		Name:   "Admin One",
		Role:   enums.UserRoleAdmin,
	}
}

func TestServiceCreateUserPersistsAndAudits(t *testing.T) {
	conn := newUsersDB(t)
	svc := newUsersService(t, conn)

	created, err := svc.Create(context.Background(), adminIdentity(), CreateUserRequest{
		Email:    "Alice@Example.com",
		Name:     "Alice Park",
		Password: "super-secret-1",
		Role:     enums.UserRoleManager,
		Grants: dbtypes.PageGrants{
			enums.PageRacks: {View: true, Edit: true},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", created.Email)
	require.True(t, created.Grants[enums.PageRacks].Edit)

	var user models.User
	require.NoError(t, conn.First(&user, "email = ?", "alice@example.com").Error)
	valid, err := security.VerifyPassword("super-secret-1", user.PasswordHash)
	require.NoError(t, err)
	require.True(t, valid)

	var auditCount, eventCount int64
	require.NoError(t, conn.Model(&models.ActivityRecord{}).Count(&auditCount).Error)
	require.NoError(t, conn.Model(&models.ChangeEvent{}).Count(&eventCount).Error)
	require.Equal(t, int64(1), auditCount)
	require.Equal(t, int64(1), eventCount)
}

func TestServiceCreateRejectsInvalidGrants(t *testing.T) {
	conn := newUsersDB(t)
	svc := newUsersService(t, conn)

	_, err := svc.Create(context.Background(), adminIdentity(), CreateUserRequest{
		Email:    "bob@example.com",
		Name:     "Bob",
		Password: "super-secret-1",
		Role:     enums.UserRoleViewer,
		Grants: dbtypes.PageGrants{
			enums.PageRacks: {View: false, Edit: true},
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(context.Background(), adminIdentity(), CreateUserRequest{
		Email:    "bob@example.com",
		Name:     "Bob",
		Password: "super-secret-1",
		Role:     enums.UserRoleViewer,
		Grants: dbtypes.PageGrants{
			enums.Page("warehouse"): {View: true},
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceCreateDuplicateEmailConflicts(t *testing.T) {
	conn := newUsersDB(t)
	svc := newUsersService(t, conn)

	req := CreateUserRequest{
		Email:    "dup@example.com",
		Name:     "First",
		Password: "super-secret-1",
		Role:     enums.UserRoleViewer,
	}
	_, err := svc.Create(context.Background(), adminIdentity(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), adminIdentity(), req)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestServiceUpdateAppliesPartialFields(t *testing.T) {
	conn := newUsersDB(t)
	svc := newUsersService(t, conn)

	created, err := svc.Create(context.Background(), adminIdentity(), CreateUserRequest{
		Email:    "carol@example.com",
		Name:     "Carol",
		Password: "super-secret-1",
		Role:     enums.UserRoleViewer,
	})
	require.NoError(t, err)

	role := enums.UserRoleManager
	grants := dbtypes.PageGrants{enums.PageProducts: {View: true}}
	updated, err := svc.Update(context.Background(), adminIdentity(), created.ID, UpdateUserRequest{
		Role:   &role,
		Grants: &grants,
	})
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleManager, updated.Role)
	require.True(t, updated.Grants[enums.PageProducts].View)
	require.Equal(t, "Carol", updated.Name)

	_, err = svc.Update(context.Background(), adminIdentity(), uuid.New(), UpdateUserRequest{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceDeleteGuardsSelfAndAudits(t *testing.T) {
	conn := newUsersDB(t)
	svc := newUsersService(t, conn)
	admin := adminIdentity()

	created, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Email:    "dave@example.com",
		Name:     "Dave",
		Password: "super-secret-1",
		Role:     enums.UserRoleViewer,
	})
	require.NoError(t, err)

	self := &permissions.Identity{UserID: created.ID, Role: enums.UserRoleAdmin}
	err = svc.Delete(context.Background(), self, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, svc.Delete(context.Background(), admin, created.ID))

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	require.Equal(t, int64(0), count)

	err = svc.Delete(context.Background(), admin, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceResetPasswordRotatesCredential(t *testing.T) {
	conn := newUsersDB(t)
	svc := newUsersService(t, conn)

	created, err := svc.Create(context.Background(), adminIdentity(), CreateUserRequest{
		Email:    "erin@example.com",
		Name:     "Erin",
		Password: "original-secret-1",
		Role:     enums.UserRoleViewer,
	})
	require.NoError(t, err)

	resp, err := svc.ResetPassword(context.Background(), adminIdentity(), created.ID)
	require.NoError(t, err)
	require.NotEmpty(t, resp.TempPassword)

	var user models.User
	require.NoError(t, conn.First(&user, "id = ?", created.ID).Error)

	valid, err := security.VerifyPassword(resp.TempPassword, user.PasswordHash)
	require.NoError(t, err)
	require.True(t, valid)

	old, err := security.VerifyPassword("original-secret-1", user.PasswordHash)
	require.NoError(t, err)
	require.False(t, old)
}
