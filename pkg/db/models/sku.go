package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborline/stockroom-backend/pkg/enums"
)

// SKU is one sellable variant in the local catalog mirror. The SKU string is
// the natural key the ordering flow works in; VariantID references the
// commerce platform's variant.
type SKU struct {
	SKU          string          `gorm:"column:sku;primaryKey"`
	VariantID    int64           `gorm:"column:variant_id;not null;uniqueIndex"`
	Description  string          `gorm:"column:description;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Currency     enums.Currency  `gorm:"column:currency;type:text;not null;default:'USD'"`
	CollectionID *int64          `gorm:"column:collection_id"`
	Collection   *Collection     `gorm:"foreignKey:CollectionID"`
	Active       bool            `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
