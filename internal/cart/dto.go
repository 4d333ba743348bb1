package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/stockroom-backend/internal/shipping"
	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
)

// CartItemInput is one requested cart line.
type CartItemInput struct {
	SKU      string
	Quantity int
}

// UpsertCartInput replaces the cart's contents with the provided lines.
type UpsertCartInput struct {
	Items []CartItemInput
}

// CartLineDTO is one cart line joined with its catalog data.
type CartLineDTO struct {
	SKU             string          `json:"sku"`
	SKUVariantID    int64           `json:"sku_variant_id"`
	Description     string          `json:"description"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	CollectionID    *int64          `json:"collection_id,omitempty"`
	CollectionName  string          `json:"collection_name,omitempty"`
	ShipWindowStart string          `json:"ship_window_start,omitempty"`
	ShipWindowEnd   string          `json:"ship_window_end,omitempty"`
}

// CartDTO is the cart snapshot returned to clients.
type CartDTO struct {
	ID                uuid.UUID        `json:"id"`
	Status            enums.CartStatus `json:"status"`
	Currency          enums.Currency   `json:"currency"`
	EditingOrderID    *uuid.UUID       `json:"editing_order_id,omitempty"`
	OverrideConfirmed bool             `json:"override_confirmed"`
	Items             []CartLineDTO    `json:"items"`
}

// ShipmentDTO mirrors one planned shipment for the API surface.
type ShipmentDTO struct {
	ID                  string   `json:"id"`
	CollectionID        *int64   `json:"collection_id,omitempty"`
	CollectionName      string   `json:"collection_name,omitempty"`
	ItemSKUs            []string `json:"item_skus"`
	PlannedShipStart    string   `json:"planned_ship_start"`
	PlannedShipEnd      string   `json:"planned_ship_end"`
	MinAllowedStart     string   `json:"min_allowed_start,omitempty"`
	MinAllowedEnd       string   `json:"min_allowed_end,omitempty"`
	IsCombined          bool     `json:"is_combined"`
	OriginalShipmentIDs []string `json:"original_shipment_ids,omitempty"`
	CanCombineWith      []string `json:"can_combine_with,omitempty"`
}

// PlanDTO is the derived shipment plan plus its validation outcome.
type PlanDTO struct {
	Shipments         []ShipmentDTO                      `json:"shipments"`
	Errors            map[string]shipping.ShipmentErrors `json:"errors,omitempty"`
	HasErrors         bool                               `json:"has_errors"`
	OverrideConfirmed bool                               `json:"override_confirmed"`
	CanSubmit         bool                               `json:"can_submit"`
}

func shipmentDTO(s shipping.PlannedShipment) ShipmentDTO {
	return ShipmentDTO{
		ID:                  s.ID,
		CollectionID:        s.CollectionID,
		CollectionName:      s.CollectionName,
		ItemSKUs:            s.ItemSKUs,
		PlannedShipStart:    s.PlannedShipStart,
		PlannedShipEnd:      s.PlannedShipEnd,
		MinAllowedStart:     s.MinAllowedStart,
		MinAllowedEnd:       s.MinAllowedEnd,
		IsCombined:          s.IsCombined,
		OriginalShipmentIDs: s.OriginalShipmentIDs,
		CanCombineWith:      s.CanCombineWith,
	}
}

func planDTO(plan shipping.Plan, overrideConfirmed bool) *PlanDTO {
	shipments := make([]ShipmentDTO, 0, len(plan.Shipments))
	for _, s := range plan.Shipments {
		shipments = append(shipments, shipmentDTO(s))
	}
	errs := plan.Errors
	if len(errs) == 0 {
		errs = nil
	}
	return &PlanDTO{
		Shipments:         shipments,
		Errors:            errs,
		HasErrors:         plan.HasErrors,
		OverrideConfirmed: overrideConfirmed,
		CanSubmit:         plan.CanSubmit,
	}
}

func cartDTO(record *models.CartRecord, lines []CartLineDTO) *CartDTO {
	return &CartDTO{
		ID:                record.ID,
		Status:            record.Status,
		Currency:          record.Currency,
		EditingOrderID:    record.EditingOrderID,
		OverrideConfirmed: record.OverrideConfirmed,
		Items:             lines,
	}
}
