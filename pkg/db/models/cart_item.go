package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one cart line. Catalog data (collection, ship window, current
// price) is joined in at plan time from the SKU table rather than duplicated
// here; the price column is the snapshot taken when the line was added.
type CartItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID       uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	SKU          string          `gorm:"column:sku;not null;index"`
	SKUVariantID int64           `gorm:"column:sku_variant_id;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
