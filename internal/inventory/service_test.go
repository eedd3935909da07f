package inventory

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/catalog"
	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/internal/users"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

func newInventoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:inventory_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	for _, schema := range []string{
		`CREATE TABLE racks (
			id TEXT PRIMARY KEY,
			line TEXT NOT NULL,
			name TEXT NOT NULL,
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
			weight_kg TEXT NOT NULL DEFAULT '0',
			manufacturer TEXT NOT NULL DEFAULT '',
			inbound_at DATETIME,
			outbound_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE product_codes (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME
		)`,
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			grants TEXT,
			is_active BOOLEAN NOT NULL DEFAULT true,
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
	} {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newInventoryService(t *testing.T, conn *gorm.DB) (Service, *Store) {
	t.Helper()
	store := NewStore()
	svc, err := NewService(ServiceParams{
		Store:    store,
		Racks:    racks.NewRepository(conn),
		Catalog:  catalog.NewRepository(conn),
		Users:    users.NewRepository(conn),
		Activity: history.NewRepository(conn),
		Config: config.InventoryConfig{
			RefreshInterval: time.Minute,
			StaleAfter:      5 * time.Minute,
			HistoryLimit:    50,
		},
		Logger: testLogger(),
	})
	require.NoError(t, err)
	return svc, store
}

func seedInventory(t *testing.T, conn *gorm.DB) {
	t.Helper()
	rack := models.Rack{ID: uuid.New(), Line: "A", Name: "A01"}
	require.NoError(t, conn.Create(&rack).Error)
	require.NoError(t, conn.Create(&models.RackPlacement{
		ID:        uuid.New(),
		RackID:    rack.ID,
		ProductID: uuid.New(),
		Code:      "PRD-001",
		Name:      "냉동 만두",
		Floor:     2,
		WeightKG:  decimal.NewFromInt(12),
		InboundAt: time.Now(),
	}).Error)
	require.NoError(t, conn.Create(&models.ProductCode{
		ID: uuid.New(), Code: "PRD-001", Name: "냉동 만두", Category: "Frozen",
	}).Error)
	require.NoError(t, conn.Create(&models.Category{ID: uuid.New(), Name: "Frozen"}).Error)
	require.NoError(t, conn.Create(&models.User{
		ID: uuid.New(), Email: "kim@example.com", Name: "Kim", PasswordHash: "x",
		Role: enums.UserRoleManager, IsActive: true,
	}).Error)
	require.NoError(t, conn.Create(&models.ActivityRecord{
		ID: uuid.New(), Type: enums.ActivityInbound, Summary: "입고: PRD-001",
	}).Error)
}

func TestRefreshPopulatesSnapshot(t *testing.T) {
	conn := newInventoryDB(t)
	seedInventory(t, conn)
	svc, store := newInventoryService(t, conn)

	require.True(t, store.RefreshedAt().IsZero())
	require.NoError(t, svc.Refresh(context.Background()))

	snap := svc.Current()
	require.Len(t, snap.Racks, 1)
	require.Len(t, snap.Racks[0].Placements, 1)
	require.Len(t, snap.ProductCodes, 1)
	require.Len(t, snap.Categories, 1)
	require.Len(t, snap.Users, 1)
	require.Len(t, snap.Activity, 1)
	require.False(t, snap.RefreshedAt.IsZero())
}

func TestRefreshSwapsWholeSnapshot(t *testing.T) {
	conn := newInventoryDB(t)
	seedInventory(t, conn)
	svc, _ := newInventoryService(t, conn)

	require.NoError(t, svc.Refresh(context.Background()))
	first := svc.Current()

	require.NoError(t, conn.Create(&models.Category{ID: uuid.New(), Name: "Dairy"}).Error)
	require.NoError(t, svc.Refresh(context.Background()))

	second := svc.Current()
	require.Len(t, first.Categories, 1)
	require.Len(t, second.Categories, 2)
	require.True(t, second.RefreshedAt.After(first.RefreshedAt) || second.RefreshedAt.Equal(first.RefreshedAt))
}

type failingRackSource struct{}

func (failingRackSource) ListWithPlacements(context.Context) ([]models.Rack, error) {
	return nil, errors.New("connection reset")
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	conn := newInventoryDB(t)
	seedInventory(t, conn)
	svc, store := newInventoryService(t, conn)
	require.NoError(t, svc.Refresh(context.Background()))
	warm := store.Current()

	broken, err := NewService(ServiceParams{
		Store:    store,
		Racks:    failingRackSource{},
		Catalog:  catalog.NewRepository(conn),
		Users:    users.NewRepository(conn),
		Activity: history.NewRepository(conn),
		Config:   config.InventoryConfig{HistoryLimit: 50},
		Logger:   testLogger(),
	})
	require.NoError(t, err)

	err = broken.Refresh(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	kept := store.Current()
	require.Equal(t, warm.RefreshedAt, kept.RefreshedAt)
	require.Len(t, kept.Racks, 1)
}
