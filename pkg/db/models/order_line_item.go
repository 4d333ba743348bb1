package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem is one SKU line inside an order shipment.
type OrderLineItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ShipmentID   uuid.UUID       `gorm:"column:shipment_id;type:uuid;not null;index"`
	SKU          string          `gorm:"column:sku;not null"`
	SKUVariantID int64           `gorm:"column:sku_variant_id;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
