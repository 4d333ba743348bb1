package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderShipment is one persisted shipment split of an order. Planned dates
// are YYYY-MM-DD strings, the same representation the planner validates.
// OriginalShipmentIDs is only populated for combined shipments and lets the
// planner undo the combine when the order is edited.
type OrderShipment struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	CollectionID        *int64          `gorm:"column:collection_id"`
	CollectionName      *string         `gorm:"column:collection_name"`
	PlannedShipStart    string          `gorm:"column:planned_ship_start;type:text;not null"`
	PlannedShipEnd      string          `gorm:"column:planned_ship_end;type:text;not null"`
	IsCombined          bool            `gorm:"column:is_combined;not null;default:false"`
	OriginalShipmentIDs []string        `gorm:"column:original_shipment_ids;type:jsonb;serializer:json"`
	Items               []OrderLineItem `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
