package models

import "time"

// Collection is a named pre-order cohort sharing one ship window, mirrored
// from the commerce platform. Window bounds are YYYY-MM-DD strings; null
// bounds mean the collection ships without a window constraint.
type Collection struct {
	ID                  int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ShopifyCollectionID *int64    `gorm:"column:shopify_collection_id;uniqueIndex"`
	Name                string    `gorm:"column:name;not null"`
	ShipWindowStart     *string   `gorm:"column:ship_window_start;type:text"`
	ShipWindowEnd       *string   `gorm:"column:ship_window_end;type:text"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
