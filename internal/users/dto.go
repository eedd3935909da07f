package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	dbtypes "github.com/coldrackhq/coldrack-backend/pkg/db/types"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID          `json:"id"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Role        enums.UserRole     `json:"role"`
	Grants      dbtypes.PageGrants `json:"grants"`
	IsActive    bool               `json:"is_active"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CreateUserRequest captures the payload for creating an operator account.
type CreateUserRequest struct {
	Email    string             `json:"email" validate:"required,email"`
	Name     string             `json:"name" validate:"required"`
	Password string             `json:"password" validate:"required,min=8"`
	Role     enums.UserRole     `json:"role" validate:"required"`
	Grants   dbtypes.PageGrants `json:"grants"`
	IsActive *bool              `json:"is_active"`
}

// UpdateUserRequest carries a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	Name     *string             `json:"name"`
	Role     *enums.UserRole     `json:"role"`
	Grants   *dbtypes.PageGrants `json:"grants"`
	IsActive *bool               `json:"is_active"`
}

// ResetPasswordResponse returns the generated temporary password exactly
// once; only its hash is stored.
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Grants:      u.Grants.Normalized(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func FromModels(users []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, *FromModel(&users[i]))
	}
	return out
}
