package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextOrderNumber allocates the next sequential order number. Callers run it
// inside the submit transaction.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(MAX(order_number), 1000) + 1").
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Shipments").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateShipments(ctx context.Context, shipments []models.OrderShipment) error {
	if len(shipments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Items").Create(&shipments).Error
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Shipments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Shipments.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Shipments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Shipments.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND retail_account_id = ?", id, accountID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindShipmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderShipment, error) {
	var shipments []models.OrderShipment
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&shipments).Error
	if err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("retail_account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, orderSummary(row))
	}
	return list, nil
}

func (r *repository) UpdateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Select("status", "total", "allow_override", "notes", "shipping_address").
		Updates(order).Error
}

func (r *repository) UpdateShipment(ctx context.Context, shipment *models.OrderShipment) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderShipment{}).
		Where("id = ?", shipment.ID).
		Select(
			"collection_id", "collection_name",
			"planned_ship_start", "planned_ship_end",
			"is_combined", "original_shipment_ids",
		).
		Updates(shipment).Error
}

func (r *repository) ReplaceShipmentItems(ctx context.Context, shipmentID uuid.UUID, items []models.OrderLineItem) error {
	if err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Delete(&models.OrderLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) DeleteShipment(ctx context.Context, shipmentID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Delete(&models.OrderLineItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", shipmentID).
		Delete(&models.OrderShipment{}).Error
}
