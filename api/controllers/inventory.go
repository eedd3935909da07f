package controllers

import (
	"net/http"

	"github.com/coldrackhq/coldrack-backend/api/responses"
	"github.com/coldrackhq/coldrack-backend/internal/inventory"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

// InventorySnapshot serves the cached warehouse snapshot. Reads never hit
// the database; the worker refreshes the cache on change events.
func InventorySnapshot(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Current())
	}
}
