package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
	"github.com/harborline/stockroom-backend/pkg/types"
)

// SubmitOrderInput carries the submission payload beyond the cart itself.
type SubmitOrderInput struct {
	Notes           *string
	ShippingAddress *types.ShippingAddress
}

// OrderLineDTO is one SKU line inside a shipment.
type OrderLineDTO struct {
	SKU          string          `json:"sku"`
	SKUVariantID int64           `json:"sku_variant_id"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

// OrderShipmentDTO is one persisted shipment split of an order.
type OrderShipmentDTO struct {
	ID                  uuid.UUID      `json:"id"`
	CollectionID        *int64         `json:"collection_id,omitempty"`
	CollectionName      string         `json:"collection_name,omitempty"`
	PlannedShipStart    string         `json:"planned_ship_start"`
	PlannedShipEnd      string         `json:"planned_ship_end"`
	IsCombined          bool           `json:"is_combined"`
	OriginalShipmentIDs []string       `json:"original_shipment_ids,omitempty"`
	Items               []OrderLineDTO `json:"items"`
}

// OrderDTO is the full order detail returned to clients.
type OrderDTO struct {
	ID              uuid.UUID              `json:"id"`
	OrderNumber     int64                  `json:"order_number"`
	RetailAccountID uuid.UUID              `json:"retail_account_id"`
	Status          enums.OrderStatus      `json:"status"`
	Currency        enums.Currency         `json:"currency"`
	Total           decimal.Decimal        `json:"total"`
	AllowOverride   bool                   `json:"allow_override"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
	Shipments       []OrderShipmentDTO     `json:"shipments"`
	CreatedAt       time.Time              `json:"created_at"`
}

// OrderSummary exposes the aggregated fields returned in the order list.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber int64             `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	Currency    enums.Currency    `json:"currency"`
	Total       decimal.Decimal   `json:"total"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func orderSummary(row models.Order) OrderSummary {
	return OrderSummary{
		ID:          row.ID,
		OrderNumber: row.OrderNumber,
		Status:      row.Status,
		Currency:    row.Currency,
		Total:       row.Total,
		CreatedAt:   row.CreatedAt,
	}
}

func orderDTO(row *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              row.ID,
		OrderNumber:     row.OrderNumber,
		RetailAccountID: row.RetailAccountID,
		Status:          row.Status,
		Currency:        row.Currency,
		Total:           row.Total,
		AllowOverride:   row.AllowOverride,
		ShippingAddress: row.ShippingAddress,
		Notes:           row.Notes,
		CreatedAt:       row.CreatedAt,
	}
	for _, shipment := range row.Shipments {
		dto.Shipments = append(dto.Shipments, shipmentDTO(shipment))
	}
	return dto
}

func shipmentDTO(row models.OrderShipment) OrderShipmentDTO {
	dto := OrderShipmentDTO{
		ID:                  row.ID,
		CollectionID:        row.CollectionID,
		PlannedShipStart:    row.PlannedShipStart,
		PlannedShipEnd:      row.PlannedShipEnd,
		IsCombined:          row.IsCombined,
		OriginalShipmentIDs: row.OriginalShipmentIDs,
	}
	if row.CollectionName != nil {
		dto.CollectionName = *row.CollectionName
	}
	for _, line := range row.Items {
		dto.Items = append(dto.Items, OrderLineDTO{
			SKU:          line.SKU,
			SKUVariantID: line.SKUVariantID,
			Quantity:     line.Quantity,
			Price:        line.Price,
		})
	}
	return dto
}
