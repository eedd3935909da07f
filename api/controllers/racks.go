package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coldrackhq/coldrack-backend/api/middleware"
	"github.com/coldrackhq/coldrack-backend/api/responses"
	"github.com/coldrackhq/coldrack-backend/api/validators"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func RackList(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func RackGet(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rack, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rack)
	}
}

func RackCreate(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body racks.CreateRackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rack, err := svc.Create(r.Context(), middleware.IdentityFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rack)
	}
}

func RackUpdate(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body racks.UpdateRackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rack, err := svc.Update(r.Context(), middleware.IdentityFromContext(r.Context()), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rack)
	}
}

func RackDelete(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// RackCopy duplicates a rack with its placements under the next available
// name suffix.
func RackCopy(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rack, err := svc.Copy(r.Context(), middleware.IdentityFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rack)
	}
}

func RackMoveLine(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body racks.MoveLineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rack, err := svc.MoveLine(r.Context(), middleware.IdentityFromContext(r.Context()), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rack)
	}
}

// RackMoveProduct moves one placement between racks in a single
// transaction. Replays of an already applied move succeed without writes.
func RackMoveProduct(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body racks.MoveProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MoveProduct(r.Context(), middleware.IdentityFromContext(r.Context()), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "moved"})
	}
}

func RackAddProduct(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body racks.AddProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		placement, err := svc.AddProduct(r.Context(), middleware.IdentityFromContext(r.Context()), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, placement)
	}
}

func RackUpdateProduct(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rackID, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body racks.UpdatePlacementRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		placement, err := svc.UpdateProduct(r.Context(), middleware.IdentityFromContext(r.Context()), rackID, productID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, placement)
	}
}

// RackOutboundProduct stamps a placement as shipped out.
func RackOutboundProduct(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rackID, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		placement, err := svc.OutboundProduct(r.Context(), middleware.IdentityFromContext(r.Context()), rackID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, placement)
	}
}

func RackRemoveProduct(svc racks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rackID, err := pathUUID(r, "rackID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveProduct(r.Context(), middleware.IdentityFromContext(r.Context()), rackID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
