package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborline/stockroom-backend/pkg/enums"
	"github.com/harborline/stockroom-backend/pkg/types"
)

// CartRecord is the active draft for one retail account. Alongside the line
// items it owns the shipment-planning session state: the user's date
// overrides, the combine groupings, and the override confirmation. The
// planned shipments themselves are derived on every read, never stored here.
type CartRecord struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RetailAccountID   uuid.UUID               `gorm:"column:retail_account_id;type:uuid;not null;index"`
	Status            enums.CartStatus        `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Currency          enums.Currency          `gorm:"column:currency;type:text;not null;default:'USD'"`
	EditingOrderID    *uuid.UUID              `gorm:"column:editing_order_id;type:uuid"`
	DateOverrides     types.ShipDateOverrides `gorm:"column:date_overrides;type:jsonb;serializer:json"`
	Groupings         types.ShipmentGroupings `gorm:"column:groupings;type:jsonb;serializer:json"`
	OverrideConfirmed bool                    `gorm:"column:override_confirmed;not null;default:false"`
	Items             []CartItem              `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
