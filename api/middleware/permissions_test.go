package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	dbtypes "github.com/coldrackhq/coldrack-backend/pkg/db/types"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
)

func requirePageRequest(t *testing.T, identity *permissions.Identity, access enums.AccessKind) *httptest.ResponseRecorder {
	t.Helper()
	handler := RequirePage(enums.PageRacks, access, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/racks", nil)
	if identity != nil {
		req = req.WithContext(WithIdentity(req.Context(), identity))
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestRequirePageRejectsAnonymous(t *testing.T) {
	resp := requirePageRequest(t, nil, enums.AccessView)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequirePageAllowsAdmin(t *testing.T) {
	identity := &permissions.Identity{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	resp := requirePageRequest(t, identity, enums.AccessEdit)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRequirePageDeniesMissingGrant(t *testing.T) {
	identity := &permissions.Identity{
		UserID: uuid.New(),
		Role:   enums.UserRoleViewer,
		Grants: dbtypes.PageGrants{enums.PageHistory: {View: true}},
	}
	resp := requirePageRequest(t, identity, enums.AccessView)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequirePageDeniesEditWithViewOnlyGrant(t *testing.T) {
	identity := &permissions.Identity{
		UserID: uuid.New(),
		Role:   enums.UserRoleViewer,
		Grants: dbtypes.PageGrants{enums.PageRacks: {View: true}},
	}

	if resp := requirePageRequest(t, identity, enums.AccessView); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for view got %d", resp.Code)
	}
	if resp := requirePageRequest(t, identity, enums.AccessEdit); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for edit got %d", resp.Code)
	}
}
