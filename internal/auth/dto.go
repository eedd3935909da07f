package auth

import (
	"github.com/coldrackhq/coldrack-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the expired access token plus its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SessionResponse contains the token pair and hydrated profile produced by
// login and refresh. The profile drives the permission gates client-side;
// the session marker cookie is set by the controller from User.ID.
type SessionResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}
