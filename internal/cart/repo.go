package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
)

// CartRepository persists cart records, line items, and the planning session
// state carried on the record.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*models.CartRecord, error)
	FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.CartRecord, error)
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	UpdateSessionState(ctx context.Context, record *models.CartRecord) error
	MarkConverted(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("retail_account_id = ? AND status = ?", accountID, enums.CartStatusActive).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND retail_account_id = ?", id, accountID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// UpdateSessionState writes only the planning session columns, leaving items
// and totals untouched.
func (r *repository) UpdateSessionState(ctx context.Context, record *models.CartRecord) error {
	return r.db.WithContext(ctx).
		Model(record).
		Select("date_overrides", "groupings", "override_confirmed").
		Updates(record).Error
}

func (r *repository) MarkConverted(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ?", cartID).
		Update("status", enums.CartStatusConverted).Error
}
