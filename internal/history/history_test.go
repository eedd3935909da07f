package history

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/pagination"
)

func newHistoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:history_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	schema := `CREATE TABLE activity_records (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		actor_id TEXT,
		actor_name TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL,
		details TEXT,
		created_at DATETIME
	)`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func newHistoryService(t *testing.T, conn *gorm.DB, cfg config.HistoryConfig) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Config: cfg,
		Logger: logg,
	})
	require.NoError(t, err)
	return svc
}

func seedRecords(t *testing.T, conn *gorm.DB, n int, start time.Time) []models.ActivityRecord {
	t.Helper()
	records := make([]models.ActivityRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := models.ActivityRecord{
			ID:        uuid.New(),
			Type:      enums.ActivityUpdate,
			ActorName: "tester",
			Summary:   fmt.Sprintf("event %d", i),
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(&rec).Error)
		records = append(records, rec)
	}
	return records
}

func TestRecorderAppendsWithinTransaction(t *testing.T) {
	conn := newHistoryDB(t)
	rec, err := NewRecorder(NewRepository(conn))
	require.NoError(t, err)

	actorID := uuid.New()
	err = conn.Transaction(func(tx *gorm.DB) error {
		return rec.Record(context.Background(), tx, Entry{
			Type:    enums.ActivityMove,
			Actor:   Actor{ID: &actorID, Name: "Kim Manager"},
			Summary: "moved PRD-001 from A01 to B02",
			Details: map[string]string{"from": "A01", "to": "B02"},
		})
	})
	require.NoError(t, err)

	var row models.ActivityRecord
	require.NoError(t, conn.First(&row).Error)
	require.Equal(t, enums.ActivityMove, row.Type)
	require.Equal(t, "Kim Manager", row.ActorName)
	require.Equal(t, &actorID, row.ActorID)
	require.Contains(t, string(row.Details), `"from":"A01"`)
}

func TestRecorderRejectsInvalidEntries(t *testing.T) {
	conn := newHistoryDB(t)
	rec, err := NewRecorder(NewRepository(conn))
	require.NoError(t, err)

	err = rec.Record(context.Background(), nil, Entry{
		Type:    enums.ActivityCreate,
		Summary: "x",
	})
	require.Error(t, err)

	err = conn.Transaction(func(tx *gorm.DB) error {
		return rec.Record(context.Background(), tx, Entry{Type: "bogus", Summary: "x"})
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = conn.Transaction(func(tx *gorm.DB) error {
		return rec.Record(context.Background(), tx, Entry{Type: enums.ActivityCreate})
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLatestReturnsNewestFirstCapped(t *testing.T) {
	conn := newHistoryDB(t)
	seedRecords(t, conn, 6, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	svc := newHistoryService(t, conn, config.HistoryConfig{LatestLimit: 4})

	records, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, "event 5", records[0].Summary)
	require.Equal(t, "event 2", records[3].Summary)
}

func TestListPaginatesWithCursor(t *testing.T) {
	conn := newHistoryDB(t)
	seedRecords(t, conn, 5, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	svc := newHistoryService(t, conn, config.HistoryConfig{})

	first, err := svc.List(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Records, 2)
	require.NotEmpty(t, first.NextCursor)
	require.Equal(t, "event 4", first.Records[0].Summary)

	second, err := svc.List(context.Background(), pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Records, 2)
	require.Equal(t, "event 2", second.Records[0].Summary)

	third, err := svc.List(context.Background(), pagination.Params{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, third.Records, 1)
	require.Empty(t, third.NextCursor)
	require.Equal(t, "event 0", third.Records[0].Summary)
}

func TestListRejectsMalformedCursor(t *testing.T) {
	conn := newHistoryDB(t)
	svc := newHistoryService(t, conn, config.HistoryConfig{})

	_, err := svc.List(context.Background(), pagination.Params{Cursor: "not-base64!"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRestoreIsRefused(t *testing.T) {
	conn := newHistoryDB(t)
	records := seedRecords(t, conn, 1, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	svc := newHistoryService(t, conn, config.HistoryConfig{})

	err := svc.Restore(context.Background(), records[0].ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	err = svc.Restore(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCleanupExpiredHonorsRetention(t *testing.T) {
	conn := newHistoryDB(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedRecords(t, conn, 3, now.AddDate(0, 0, -40))
	seedRecords(t, conn, 2, now.AddDate(0, 0, -5))
	svc := newHistoryService(t, conn, config.HistoryConfig{RetentionDays: 30})

	removed, err := svc.CleanupExpired(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)

	var count int64
	require.NoError(t, conn.Model(&models.ActivityRecord{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}
