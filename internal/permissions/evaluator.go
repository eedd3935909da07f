package permissions

import (
	dbtypes "github.com/coldrackhq/coldrack-backend/pkg/db/types"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	"github.com/google/uuid"
)

// Identity is the hydrated caller passed to every permission check.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   enums.UserRole
	Grants dbtypes.PageGrants
}

// IsAdmin reports whether the identity short-circuits page grants.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == enums.UserRoleAdmin
}

// Allowed evaluates page access for the identity. A nil identity is denied
// everything; admins are allowed everything; ungated pages require only an
// identity; otherwise the grant map decides, defaulting to deny.
func Allowed(identity *Identity, page enums.Page, access enums.AccessKind) bool {
	if identity == nil {
		return false
	}
	if !page.IsValid() || !access.IsValid() {
		return false
	}
	if identity.IsAdmin() {
		return true
	}
	if !page.IsGated() {
		return true
	}

	grant, ok := identity.Grants[page]
	if !ok {
		return false
	}
	switch access {
	case enums.AccessView:
		return grant.View
	case enums.AccessEdit:
		return grant.Edit
	default:
		return false
	}
}

// CanView is shorthand for a view check.
func CanView(identity *Identity, page enums.Page) bool {
	return Allowed(identity, page, enums.AccessView)
}

// CanEdit is shorthand for an edit check.
func CanEdit(identity *Identity, page enums.Page) bool {
	return Allowed(identity, page, enums.AccessEdit)
}

// ValidateGrants rejects grant maps that reference unknown pages or grant
// edit without view.
func ValidateGrants(grants dbtypes.PageGrants) error {
	for page, access := range grants {
		if !page.IsValid() {
			return &GrantError{Page: string(page), Reason: "unknown page"}
		}
		if access.Edit && !access.View {
			return &GrantError{Page: string(page), Reason: "edit requires view"}
		}
	}
	return nil
}

// GrantError describes a rejected grant entry.
type GrantError struct {
	Page   string
	Reason string
}

func (e *GrantError) Error() string {
	return "grant for page " + e.Page + ": " + e.Reason
}
