package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harborline/stockroom-backend/pkg/db/models"
)

// Repository handles catalog persistence: the SKU lookup table and the
// collection window table mirrored from the commerce platform.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindSKU loads one SKU with its collection.
func (r *Repository) FindSKU(ctx context.Context, sku string) (*models.SKU, error) {
	var row models.SKU
	if err := r.db.WithContext(ctx).
		Preload("Collection").
		Where("sku = ?", sku).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindSKUs loads the given SKUs with their collections, in no particular
// order. Missing SKUs are simply absent from the result.
func (r *Repository) FindSKUs(ctx context.Context, skus []string) ([]models.SKU, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var rows []models.SKU
	if err := r.db.WithContext(ctx).
		Preload("Collection").
		Where("sku IN ?", skus).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListSKUs returns active SKUs ordered by their key.
func (r *Repository) ListSKUs(ctx context.Context, limit int, afterSKU string) ([]models.SKU, error) {
	q := r.db.WithContext(ctx).
		Preload("Collection").
		Where("active = ?", true).
		Order("sku ASC").
		Limit(limit)
	if afterSKU != "" {
		q = q.Where("sku > ?", afterSKU)
	}
	var rows []models.SKU
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCollections returns every collection ordered by name.
func (r *Repository) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var rows []models.Collection
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindCollection loads one collection by its local id.
func (r *Repository) FindCollection(ctx context.Context, id int64) (*models.Collection, error) {
	var row models.Collection
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindCollectionByShopifyID resolves the local row for a remote collection.
func (r *Repository) FindCollectionByShopifyID(ctx context.Context, shopifyID int64) (*models.Collection, error) {
	var row models.Collection
	if err := r.db.WithContext(ctx).Where("shopify_collection_id = ?", shopifyID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertCollection inserts or refreshes a collection mirrored from the
// commerce platform, keyed by its remote id.
func (r *Repository) UpsertCollection(ctx context.Context, row *models.Collection) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shopify_collection_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "ship_window_start", "ship_window_end", "updated_at"}),
		}).
		Create(row).Error
}

// UpsertSKUs inserts or refreshes mirrored SKUs keyed by the SKU string.
func (r *Repository) UpsertSKUs(ctx context.Context, rows []models.SKU) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"variant_id", "description", "price", "currency", "collection_id", "active", "updated_at"}),
		}).
		Create(&rows).Error
}
