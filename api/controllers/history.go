package controllers

import (
	"net/http"

	"github.com/coldrackhq/coldrack-backend/api/responses"
	"github.com/coldrackhq/coldrack-backend/api/validators"
	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/pagination"
)

// HistoryList returns activity records newest first, cursor-paginated.
func HistoryList(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// HistoryRestore validates the record and reports that restoration is not
// supported for any current record type.
func HistoryRestore(svc history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "recordID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Restore(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "restored"})
	}
}
