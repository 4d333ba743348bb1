package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateShipments(ctx context.Context, shipments []models.OrderShipment) error
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Order, error)
	FindShipmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderShipment, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*OrderList, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	UpdateShipment(ctx context.Context, shipment *models.OrderShipment) error
	ReplaceShipmentItems(ctx context.Context, shipmentID uuid.UUID, items []models.OrderLineItem) error
	DeleteShipment(ctx context.Context, shipmentID uuid.UUID) error
}
