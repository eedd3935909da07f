package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/coldrackhq/coldrack-backend/api/middleware"
	"github.com/coldrackhq/coldrack-backend/api/responses"
	"github.com/coldrackhq/coldrack-backend/api/validators"
	"github.com/coldrackhq/coldrack-backend/internal/imports"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

const uploadFieldName = "file"

func openUpload(r *http.Request, cfg config.ImportConfig) (multipart.File, error) {
	maxBytes := int64(cfg.MaxUploadMB) << 20
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("upload exceeds %dMB or is not multipart", cfg.MaxUploadMB))
	}
	file, _, err := r.FormFile(uploadFieldName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "missing upload file")
	}
	return file, nil
}

// ImportRacksPreview parses an uploaded rack sheet and returns the valid
// rows alongside per-row validation errors.
func ImportRacksPreview(svc imports.Service, cfg config.ImportConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := openUpload(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		preview, err := svc.PreviewRacks(r.Context(), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

type commitRacksRequest struct {
	Rows []imports.RackRowDTO `json:"rows" validate:"required,min=1"`
}

// ImportRacksCommit applies previously previewed rows, one transaction per
// rack, and reports per-rack failures without rolling back the rest.
func ImportRacksCommit(svc imports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body commitRacksRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CommitRacks(r.Context(), middleware.IdentityFromContext(r.Context()), body.Rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ImportProductCodesPreview(svc imports.Service, cfg config.ImportConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := openUpload(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		preview, err := svc.PreviewProductCodes(r.Context(), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

type commitProductCodesRequest struct {
	Rows []imports.ProductCodeRowDTO `json:"rows" validate:"required,min=1"`
}

func ImportProductCodesCommit(svc imports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body commitProductCodesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CommitProductCodes(r.Context(), middleware.IdentityFromContext(r.Context()), body.Rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeTemplate(w http.ResponseWriter, filename string, build func() ([]byte, error), logg *logger.Logger, r *http.Request) {
	data, err := build()
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building template"))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ExportRackTemplate serves the import template sheet for racks.
func ExportRackTemplate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeTemplate(w, "racks_template.xlsx", imports.RackTemplate, logg, r)
	}
}

// ExportProductCodeTemplate serves the import template sheet for codes.
func ExportProductCodeTemplate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeTemplate(w, "product_codes_template.xlsx", imports.ProductCodeTemplate, logg, r)
	}
}
