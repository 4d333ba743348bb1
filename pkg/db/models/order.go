package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/stockroom-backend/pkg/enums"
	"github.com/harborline/stockroom-backend/pkg/types"
)

// Order is a submitted wholesale order. AllowOverride records that the buyer
// explicitly confirmed submission despite ship-window violations.
type Order struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64                  `gorm:"column:order_number;not null;uniqueIndex"`
	RetailAccountID uuid.UUID              `gorm:"column:retail_account_id;type:uuid;not null;index"`
	PlacedByUserID  uuid.UUID              `gorm:"column:placed_by_user_id;type:uuid;not null"`
	Status          enums.OrderStatus      `gorm:"column:status;type:order_status;not null;default:'submitted'"`
	Currency        enums.Currency         `gorm:"column:currency;type:text;not null;default:'USD'"`
	Total           decimal.Decimal        `gorm:"column:total;type:numeric(14,2);not null"`
	AllowOverride   bool                   `gorm:"column:allow_override;not null;default:false"`
	ShippingAddress *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Notes           *string                `gorm:"column:notes"`
	Shipments       []OrderShipment        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
