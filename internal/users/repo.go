package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/repo"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
)

// Repository exposes user persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateTx inserts a new user inside the caller's transaction.
func (r *Repository) CreateTx(tx *gorm.DB, user *models.User) error {
	return tx.Create(user).Error
}

// List returns every account, newest first.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveTx persists every field of the user inside the caller's transaction.
func (r *Repository) SaveTx(tx *gorm.DB, user *models.User) error {
	return tx.Save(user).Error
}

// DeleteTx removes the user row inside the caller's transaction.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Delete(&models.User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// UpdatePasswordTx overwrites the stored password hash.
func (r *Repository) UpdatePasswordTx(tx *gorm.DB, id uuid.UUID, hash string) error {
	return tx.Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
