package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/repo"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/pagination"
)

// Repository persists and queries append-only activity records.
type Repository struct {
	repo.Base
}

// NewRepository constructs a history repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// InsertTx appends a record inside the caller's transaction.
func (r *Repository) InsertTx(tx *gorm.DB, record *models.ActivityRecord) error {
	return tx.Create(record).Error
}

// Latest returns the most recent records, newest first.
func (r *Repository) Latest(ctx context.Context, limit int) ([]models.ActivityRecord, error) {
	var records []models.ActivityRecord
	err := r.DB(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListPage returns one cursor page of records, newest first. The cursor
// points at the last record of the previous page.
func (r *Repository) ListPage(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.ActivityRecord, error) {
	q := r.DB(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if cursor != nil {
		q = q.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var records []models.ActivityRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByID loads a single record.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ActivityRecord, error) {
	var record models.ActivityRecord
	if err := r.DB(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteBefore removes records older than the cutoff and reports how many
// rows were dropped.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ActivityRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
