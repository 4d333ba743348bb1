package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborline/stockroom-backend/pkg/enums"
)

// User is an authenticated principal: a buyer, a sales rep, or an admin.
type User struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string         `gorm:"column:email;not null;uniqueIndex"`
	Name            string         `gorm:"column:name;not null"`
	Role            enums.UserRole `gorm:"column:role;type:user_role;not null"`
	RetailAccountID *uuid.UUID     `gorm:"column:retail_account_id;type:uuid"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
