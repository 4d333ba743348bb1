package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborline/stockroom-backend/pkg/types"
)

// RetailAccount is one wholesale buyer: a retailer ordering through the
// storefront, optionally managed by an assigned sales rep.
type RetailAccount struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string                 `gorm:"column:name;not null"`
	ShopifyCustomerID *int64                 `gorm:"column:shopify_customer_id;uniqueIndex"`
	SalesRepID        *uuid.UUID             `gorm:"column:sales_rep_id;type:uuid"`
	ShippingAddress   *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
