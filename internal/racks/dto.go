package racks

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
)

// RackDTO is the transport shape of a rack with its resident products.
type RackDTO struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Line       string         `json:"line"`
	Capacity   int            `json:"capacity"`
	Placements []PlacementDTO `json:"placements"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// PlacementDTO describes one product resident in a rack. ProductID is
// stable across moves; the placement id is not.
type PlacementDTO struct {
	ID           uuid.UUID       `json:"id"`
	RackID       uuid.UUID       `json:"rack_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Floor        int             `json:"floor"`
	WeightKG     decimal.Decimal `json:"weight_kg"`
	Manufacturer string          `json:"manufacturer"`
	InboundAt    time.Time       `json:"inbound_at"`
	OutboundAt   *time.Time      `json:"outbound_at,omitempty"`
}

// CreateRackRequest captures the payload for creating a rack.
type CreateRackRequest struct {
	Name     string `json:"name" validate:"required"`
	Line     string `json:"line" validate:"required"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// UpdateRackRequest carries a partial rack update.
type UpdateRackRequest struct {
	Name     *string `json:"name"`
	Line     *string `json:"line"`
	Capacity *int    `json:"capacity"`
}

// MoveLineRequest reassigns a rack to another line.
type MoveLineRequest struct {
	Line string `json:"line" validate:"required"`
}

// MoveProductRequest moves one product between racks.
type MoveProductRequest struct {
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	SourceRackID uuid.UUID `json:"source_rack_id" validate:"required"`
	DestRackID   uuid.UUID `json:"dest_rack_id" validate:"required"`
}

// AddProductRequest places a product into a rack (inbound).
type AddProductRequest struct {
	Code         string          `json:"code" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Floor        int             `json:"floor"`
	WeightKG     decimal.Decimal `json:"weight_kg" validate:"required"`
	Manufacturer string          `json:"manufacturer" validate:"required"`
	InboundAt    *time.Time      `json:"inbound_at"`
}

// UpdatePlacementRequest carries a partial placement update.
type UpdatePlacementRequest struct {
	Code         *string          `json:"code"`
	Name         *string          `json:"name"`
	Floor        *int             `json:"floor"`
	WeightKG     *decimal.Decimal `json:"weight_kg"`
	Manufacturer *string          `json:"manufacturer"`
	OutboundAt   *time.Time       `json:"outbound_at"`
}

func rackFromModel(r *models.Rack) *RackDTO {
	if r == nil {
		return nil
	}
	dto := &RackDTO{
		ID:         r.ID,
		Name:       r.Name,
		Line:       r.Line,
		Capacity:   r.Capacity,
		Placements: make([]PlacementDTO, 0, len(r.Placements)),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	for i := range r.Placements {
		dto.Placements = append(dto.Placements, placementFromModel(&r.Placements[i]))
	}
	return dto
}

func placementFromModel(p *models.RackPlacement) PlacementDTO {
	return PlacementDTO{
		ID:           p.ID,
		RackID:       p.RackID,
		ProductID:    p.ProductID,
		Code:         p.Code,
		Name:         p.Name,
		Floor:        p.Floor,
		WeightKG:     p.WeightKG,
		Manufacturer: p.Manufacturer,
		InboundAt:    p.InboundAt,
		OutboundAt:   p.OutboundAt,
	}
}

func FromModels(racks []models.Rack) []RackDTO {
	out := make([]RackDTO, 0, len(racks))
	for i := range racks {
		out = append(out, *rackFromModel(&racks[i]))
	}
	return out
}
