package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends an event inside the caller's transaction.
func (r *Repository) Insert(tx *gorm.DB, event *models.ChangeEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(event).Error
}

// FetchPendingTx locks and returns the oldest pending events still under the
// attempt ceiling.
func (r *Repository) FetchPendingTx(tx *gorm.DB, limit, maxAttempts int) ([]models.ChangeEvent, error) {
	var rows []models.ChangeEvent
	err := tx.Where("status = ? AND attempt_count < ?", enums.OutboxPending, maxAttempts).
		Order("occurred_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkPublishedTx flips an event to published.
func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&models.ChangeEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.OutboxPublished,
			"published_at": time.Now(),
		}).Error
}

// MarkFailedTx records a retryable publish failure.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	return tx.Model(&models.ChangeEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    cause.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminalTx parks an event that will never be retried again.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	return tx.Model(&models.ChangeEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.OutboxFailed,
			"last_error": cause.Error(),
		}).Error
}

// DeletePublishedBefore removes published events older than the cutoff and
// returns the number of rows removed.
func (r *Repository) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("status = ? AND published_at < ?", enums.OutboxPublished, cutoff).
		Delete(&models.ChangeEvent{})
	return res.RowsAffected, res.Error
}
