package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
	"github.com/harborline/stockroom-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL,
  retail_account_id TEXT NOT NULL,
  placed_by_user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'submitted',
  currency TEXT NOT NULL DEFAULT 'USD',
  total TEXT NOT NULL,
  allow_override INTEGER NOT NULL DEFAULT 0,
  shipping_address TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	shipments := `
CREATE TABLE IF NOT EXISTS order_shipments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  collection_id INTEGER,
  collection_name TEXT,
  planned_ship_start TEXT NOT NULL,
  planned_ship_end TEXT NOT NULL,
  is_combined INTEGER NOT NULL DEFAULT 0,
  original_shipment_ids TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  shipment_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  sku_variant_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(shipments).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, accountID uuid.UUID, number int64, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		RetailAccountID: accountID,
		PlacedByUserID:  uuid.New(),
		Status:          enums.OrderStatusSubmitted,
		Currency:        enums.CurrencyUSD,
		Total:           decimal.RequireFromString("25.00"),
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, db.Omit("Shipments").Create(order).Error)

	collectionID := int64(7)
	collectionName := "Summer"
	shipment := &models.OrderShipment{
		ID:               uuid.New(),
		OrderID:          order.ID,
		CollectionID:     &collectionID,
		CollectionName:   &collectionName,
		PlannedShipStart: "2025-06-01",
		PlannedShipEnd:   "2025-06-30",
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	require.NoError(t, db.Omit("Items").Create(shipment).Error)

	item := &models.OrderLineItem{
		ID:           uuid.New(),
		OrderID:      order.ID,
		ShipmentID:   shipment.ID,
		SKU:          "TEE-001",
		SKUVariantID: 101,
		Quantity:     2,
		Price:        decimal.RequireFromString("12.50"),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	require.NoError(t, db.Create(item).Error)
	return order
}

func TestRepositoryFindByIDAndAccount(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	accountID := uuid.New()
	order := createTestOrder(t, db, accountID, 1001, time.Now().UTC())

	got, err := repo.FindByIDAndAccount(context.Background(), order.ID, accountID)
	require.NoError(t, err)
	require.Len(t, got.Shipments, 1)
	require.Len(t, got.Shipments[0].Items, 1)
	assert.Equal(t, "TEE-001", got.Shipments[0].Items[0].SKU)
	assert.Equal(t, "2025-06-01", got.Shipments[0].PlannedShipStart)

	_, err = repo.FindByIDAndAccount(context.Background(), order.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByAccountPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	accountID := uuid.New()
	now := time.Now().UTC()
	createTestOrder(t, db, accountID, 1001, now.Add(-time.Hour))
	createTestOrder(t, db, accountID, 1002, now)
	createTestOrder(t, db, uuid.New(), 1003, now)

	list, err := repo.ListByAccount(context.Background(), accountID, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, int64(1002), list.Orders[0].OrderNumber)
	assert.NotEmpty(t, list.NextCursor)

	second, err := repo.ListByAccount(context.Background(), accountID, pagination.Params{Limit: 1, Cursor: list.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, int64(1001), second.Orders[0].OrderNumber)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryNextOrderNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	first, err := repo.NextOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1001), first)

	createTestOrder(t, db, uuid.New(), first, time.Now().UTC())

	next, err := repo.NextOrderNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first+1, next)
}

func TestRepositoryReplaceShipmentItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	accountID := uuid.New()
	order := createTestOrder(t, db, accountID, 1001, time.Now().UTC())
	shipments, err := repo.FindShipmentsByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, shipments, 1)
	shipmentID := shipments[0].ID

	replacement := []models.OrderLineItem{
		{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ShipmentID:   shipmentID,
			SKU:          "HAT-002",
			SKUVariantID: 102,
			Quantity:     5,
			Price:        decimal.RequireFromString("8.00"),
		},
	}
	require.NoError(t, repo.ReplaceShipmentItems(context.Background(), shipmentID, replacement))

	shipments, err = repo.FindShipmentsByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, shipments[0].Items, 1)
	assert.Equal(t, "HAT-002", shipments[0].Items[0].SKU)
}

func TestRepositoryDeleteShipment(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	accountID := uuid.New()
	order := createTestOrder(t, db, accountID, 1001, time.Now().UTC())
	shipments, err := repo.FindShipmentsByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, shipments, 1)

	require.NoError(t, repo.DeleteShipment(context.Background(), shipments[0].ID))

	shipments, err = repo.FindShipmentsByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Empty(t, shipments)

	var count int64
	require.NoError(t, db.Model(&models.OrderLineItem{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepositoryUpdateShipment(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	accountID := uuid.New()
	order := createTestOrder(t, db, accountID, 1001, time.Now().UTC())
	shipments, err := repo.FindShipmentsByOrder(context.Background(), order.ID)
	require.NoError(t, err)

	shipment := shipments[0]
	shipment.PlannedShipStart = "2025-06-10"
	shipment.PlannedShipEnd = "2025-06-20"
	require.NoError(t, repo.UpdateShipment(context.Background(), &shipment))

	shipments, err = repo.FindShipmentsByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", shipments[0].PlannedShipStart)
	assert.Equal(t, "2025-06-20", shipments[0].PlannedShipEnd)
}
