package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/stockroom-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when a cart is submitted as an order.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     int64           `json:"order_number"`
	RetailAccountID uuid.UUID       `json:"retail_account_id"`
	Currency        enums.Currency  `json:"currency"`
	Total           decimal.Decimal `json:"total"`
	ShipmentCount   int             `json:"shipment_count"`
	AllowOverride   bool            `json:"allow_override"`
}

// OrderUpdatedEvent is emitted when an order edit is saved. Shipments that
// lost all their items during the edit are deleted on save and listed here.
type OrderUpdatedEvent struct {
	OrderID            uuid.UUID       `json:"order_id"`
	OrderNumber        int64           `json:"order_number"`
	RetailAccountID    uuid.UUID       `json:"retail_account_id"`
	Total              decimal.Decimal `json:"total"`
	ShipmentCount      int             `json:"shipment_count"`
	DeletedShipmentIDs []uuid.UUID     `json:"deleted_shipment_ids,omitempty"`
	AllowOverride      bool            `json:"allow_override"`
}

// OrderCanceledEvent is emitted when a submitted order is canceled.
type OrderCanceledEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	OrderNumber     int64     `json:"order_number"`
	RetailAccountID uuid.UUID `json:"retail_account_id"`
}
