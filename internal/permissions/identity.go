package permissions

import "github.com/coldrackhq/coldrack-backend/pkg/db/models"

// FromUser builds the evaluator identity from a loaded account row. Grants
// are normalized so stale edit-without-view entries never grant access.
func FromUser(u *models.User) *Identity {
	if u == nil {
		return nil
	}
	return &Identity{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		Grants: u.Grants.Normalized(),
	}
}
