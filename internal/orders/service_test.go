package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborline/stockroom-backend/internal/cart"
	"github.com/harborline/stockroom-backend/internal/shipping"
	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/outbox"
	"github.com/harborline/stockroom-backend/pkg/pagination"
)

func submittableCart(accountID uuid.UUID) *models.CartRecord {
	record := &models.CartRecord{
		ID:              uuid.New(),
		RetailAccountID: accountID,
		Status:          enums.CartStatusActive,
		Currency:        enums.CurrencyUSD,
	}
	record.Items = []models.CartItem{
		{CartID: record.ID, SKU: "TEE-001", SKUVariantID: 101, Quantity: 2, Price: decimal.RequireFromString("12.50")},
		{CartID: record.ID, SKU: "HAT-002", SKUVariantID: 102, Quantity: 1, Price: decimal.RequireFromString("8.00")},
	}
	return record
}

func collectionRef(id int64) *int64 { return &id }

func submittablePlan(record *models.CartRecord) *cart.SubmitPlan {
	return &cart.SubmitPlan{
		Plan: shipping.Plan{
			Shipments: []shipping.PlannedShipment{
				{
					ID:               "shipment-7",
					CollectionID:     collectionRef(7),
					CollectionName:   "Summer",
					ItemSKUs:         []string{"TEE-001"},
					PlannedShipStart: "2025-06-01",
					PlannedShipEnd:   "2025-06-30",
				},
				{
					ID:               "shipment-9",
					CollectionID:     collectionRef(9),
					CollectionName:   "Fall",
					ItemSKUs:         []string{"HAT-002"},
					PlannedShipStart: "2025-09-01",
					PlannedShipEnd:   "2025-09-30",
				},
			},
			CanSubmit: true,
		},
		Record: record,
	}
}

func newTestOrderService(t *testing.T, repo *stubOrdersRepo, carts *stubCartRepo, planner *stubPlanner, publisher *stubOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, carts, planner, stubTxRunner{}, publisher)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSubmitCreatesOrderWithShipments(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := submittableCart(accountID)
	repo := newStubOrdersRepo()
	carts := &stubCartRepo{record: record}
	publisher := &stubOutbox{}
	svc := newTestOrderService(t, repo, carts, &stubPlanner{plan: submittablePlan(record)}, publisher)

	actor := Actor{UserID: uuid.New(), AccountID: accountID, Role: "buyer"}
	got, err := svc.Submit(context.Background(), actor, SubmitOrderInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrderNumber != 1001 {
		t.Fatalf("expected first order number, got %d", got.OrderNumber)
	}
	if !got.Total.Equal(decimal.RequireFromString("33.00")) {
		t.Fatalf("unexpected total %s", got.Total)
	}
	if len(got.Shipments) != 2 {
		t.Fatalf("expected two shipments, got %d", len(got.Shipments))
	}
	if got.Shipments[0].PlannedShipStart != "2025-06-01" {
		t.Fatalf("unexpected shipment dates %+v", got.Shipments[0])
	}
	if len(got.Shipments[0].Items) != 1 || got.Shipments[0].Items[0].SKU != "TEE-001" {
		t.Fatalf("unexpected shipment lines %+v", got.Shipments[0].Items)
	}
	if got.AllowOverride {
		t.Fatal("expected clean submission without override flag")
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected order_created event, got %+v", publisher.events)
	}
	if carts.record.Status != enums.CartStatusConverted {
		t.Fatal("expected cart marked converted")
	}
}

func TestSubmitRecordsOverride(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := submittableCart(accountID)
	record.OverrideConfirmed = true
	plan := submittablePlan(record)
	plan.Plan.HasErrors = true
	plan.Plan.Errors = map[string]shipping.ShipmentErrors{
		"shipment-7": {Start: "start date is before Summer opens (2025-06-01)"},
	}
	plan.Plan.CanSubmit = true

	repo := newStubOrdersRepo()
	svc := newTestOrderService(t, repo, &stubCartRepo{record: record}, &stubPlanner{plan: plan}, &stubOutbox{})

	got, err := svc.Submit(context.Background(), Actor{UserID: uuid.New(), AccountID: accountID}, SubmitOrderInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.AllowOverride {
		t.Fatal("expected override recorded on the order")
	}
}

func TestSubmitBlockedByShipWindowErrors(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := submittableCart(accountID)
	plan := submittablePlan(record)
	plan.Plan.HasErrors = true
	plan.Plan.CanSubmit = false
	plan.Plan.Errors = map[string]shipping.ShipmentErrors{
		"shipment-7": {End: "end date is after Summer closes (2025-06-30)"},
	}

	svc := newTestOrderService(t, newStubOrdersRepo(), &stubCartRepo{record: record}, &stubPlanner{plan: plan}, &stubOutbox{})

	_, err := svc.Submit(context.Background(), Actor{UserID: uuid.New(), AccountID: accountID}, SubmitOrderInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if typed.Details() == nil {
		t.Fatal("expected field errors in details")
	}
}

func TestSubmitRejectsEditingCart(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := submittableCart(accountID)
	editing := uuid.New()
	record.EditingOrderID = &editing

	svc := newTestOrderService(t, newStubOrdersRepo(), &stubCartRepo{record: record}, &stubPlanner{plan: submittablePlan(record)}, &stubOutbox{})

	_, err := svc.Submit(context.Background(), Actor{UserID: uuid.New(), AccountID: accountID}, SubmitOrderInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := submittableCart(accountID)
	record.Items = nil
	plan := submittablePlan(record)
	plan.Plan.Shipments = nil

	svc := newTestOrderService(t, newStubOrdersRepo(), &stubCartRepo{record: record}, &stubPlanner{plan: plan}, &stubOutbox{})

	_, err := svc.Submit(context.Background(), Actor{UserID: uuid.New(), AccountID: accountID}, SubmitOrderInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRewritesShipmentsAndDeletesEmptied(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	orderID := uuid.New()
	keptID := uuid.New()
	emptiedID := uuid.New()

	repo := newStubOrdersRepo()
	repo.orders[orderID] = &models.Order{
		ID:              orderID,
		OrderNumber:     1001,
		RetailAccountID: accountID,
		Status:          enums.OrderStatusSubmitted,
		Currency:        enums.CurrencyUSD,
		Shipments: []models.OrderShipment{
			{ID: keptID, OrderID: orderID, PlannedShipStart: "2025-06-01", PlannedShipEnd: "2025-06-30"},
			{ID: emptiedID, OrderID: orderID, PlannedShipStart: "2025-09-01", PlannedShipEnd: "2025-09-30"},
		},
	}

	record := submittableCart(accountID)
	record.EditingOrderID = &orderID
	plan := &cart.SubmitPlan{
		Plan: shipping.Plan{
			Shipments: []shipping.PlannedShipment{
				{
					ID:               keptID.String(),
					ItemSKUs:         []string{"TEE-001", "HAT-002"},
					PlannedShipStart: "2025-06-10",
					PlannedShipEnd:   "2025-06-20",
				},
			},
			CanSubmit: true,
		},
		Record: record,
	}

	publisher := &stubOutbox{}
	carts := &stubCartRepo{record: record}
	svc := newTestOrderService(t, repo, carts, &stubPlanner{plan: plan}, publisher)

	got, err := svc.Update(context.Background(), Actor{UserID: uuid.New(), AccountID: accountID}, orderID, SubmitOrderInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Shipments) != 1 {
		t.Fatalf("expected single shipment after edit, got %d", len(got.Shipments))
	}
	if got.Shipments[0].ID != keptID {
		t.Fatalf("expected kept shipment identity, got %s", got.Shipments[0].ID)
	}
	if got.Shipments[0].PlannedShipStart != "2025-06-10" {
		t.Fatalf("expected updated dates, got %s", got.Shipments[0].PlannedShipStart)
	}
	if len(got.Shipments[0].Items) != 2 {
		t.Fatalf("expected both lines on kept shipment, got %d", len(got.Shipments[0].Items))
	}
	if !repo.deleted[emptiedID] {
		t.Fatal("expected emptied shipment deleted on save")
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventOrderUpdated {
		t.Fatalf("expected order_updated event, got %+v", publisher.events)
	}
	if carts.record.Status != enums.CartStatusConverted {
		t.Fatal("expected edit cart marked converted")
	}
}

func TestUpdateRequiresMatchingEditTarget(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := submittableCart(accountID)

	svc := newTestOrderService(t, newStubOrdersRepo(), &stubCartRepo{record: record}, &stubPlanner{plan: submittablePlan(record)}, &stubOutbox{})

	_, err := svc.Update(context.Background(), Actor{UserID: uuid.New(), AccountID: accountID}, uuid.New(), SubmitOrderInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCancelSubmittedOrder(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	orderID := uuid.New()
	repo := newStubOrdersRepo()
	repo.orders[orderID] = &models.Order{
		ID:              orderID,
		OrderNumber:     1001,
		RetailAccountID: accountID,
		Status:          enums.OrderStatusSubmitted,
	}

	publisher := &stubOutbox{}
	record := submittableCart(accountID)
	svc := newTestOrderService(t, repo, &stubCartRepo{record: record}, &stubPlanner{plan: submittablePlan(record)}, publisher)

	got, err := svc.Cancel(context.Background(), Actor{UserID: uuid.New(), AccountID: accountID}, orderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != enums.OrderStatusCanceled {
		t.Fatalf("expected canceled status, got %s", got.Status)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != enums.EventOrderCanceled {
		t.Fatalf("expected order_canceled event, got %+v", publisher.events)
	}

	_, err = svc.Cancel(context.Background(), Actor{UserID: uuid.New(), AccountID: accountID}, orderID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for second cancel, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	record := submittableCart(uuid.New())
	svc := newTestOrderService(t, newStubOrdersRepo(), &stubCartRepo{record: record}, &stubPlanner{plan: submittablePlan(record)}, &stubOutbox{})

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

type stubOrdersRepo struct {
	orders  map[uuid.UUID]*models.Order
	deleted map[uuid.UUID]bool
	number  int64
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders:  map[uuid.UUID]*models.Order{},
		deleted: map[uuid.UUID]bool{},
		number:  1000,
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	s.number++
	return s.number, nil
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) CreateShipments(ctx context.Context, shipments []models.OrderShipment) error {
	for _, shipment := range shipments {
		order := s.orders[shipment.OrderID]
		order.Shipments = append(order.Shipments, shipment)
	}
	return nil
}

func (s *stubOrdersRepo) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	for _, item := range items {
		order := s.orders[item.OrderID]
		for i := range order.Shipments {
			if order.Shipments[i].ID == item.ShipmentID {
				order.Shipments[i].Items = append(order.Shipments[i].Items, item)
			}
		}
	}
	return nil
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrdersRepo) FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok || order.RetailAccountID != accountID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrdersRepo) FindShipmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderShipment, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return order.Shipments, nil
}

func (s *stubOrdersRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list := &OrderList{}
	for _, order := range s.orders {
		if order.RetailAccountID == accountID {
			list.Orders = append(list.Orders, orderSummary(*order))
		}
	}
	return list, nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, order *models.Order) error {
	existing, ok := s.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	existing.Status = order.Status
	existing.Total = order.Total
	existing.AllowOverride = order.AllowOverride
	existing.Notes = order.Notes
	existing.ShippingAddress = order.ShippingAddress
	return nil
}

func (s *stubOrdersRepo) UpdateShipment(ctx context.Context, shipment *models.OrderShipment) error {
	order := s.orders[shipment.OrderID]
	for i := range order.Shipments {
		if order.Shipments[i].ID == shipment.ID {
			items := order.Shipments[i].Items
			order.Shipments[i] = *shipment
			order.Shipments[i].Items = items
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ReplaceShipmentItems(ctx context.Context, shipmentID uuid.UUID, items []models.OrderLineItem) error {
	for _, order := range s.orders {
		for i := range order.Shipments {
			if order.Shipments[i].ID == shipmentID {
				order.Shipments[i].Items = items
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) DeleteShipment(ctx context.Context, shipmentID uuid.UUID) error {
	s.deleted[shipmentID] = true
	for _, order := range s.orders {
		for i := range order.Shipments {
			if order.Shipments[i].ID == shipmentID {
				order.Shipments = append(order.Shipments[:i], order.Shipments[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

type stubCartRepo struct {
	record *models.CartRecord
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) cart.CartRepository { return s }

func (s *stubCartRepo) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*models.CartRecord, error) {
	if s.record == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.record, nil
}

func (s *stubCartRepo) FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.CartRecord, error) {
	if s.record == nil || s.record.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.record, nil
}

func (s *stubCartRepo) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	s.record = record
	return record, nil
}

func (s *stubCartRepo) Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	s.record = record
	return record, nil
}

func (s *stubCartRepo) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	return nil
}

func (s *stubCartRepo) UpdateSessionState(ctx context.Context, record *models.CartRecord) error {
	return nil
}

func (s *stubCartRepo) MarkConverted(ctx context.Context, cartID uuid.UUID) error {
	if s.record != nil && s.record.ID == cartID {
		s.record.Status = enums.CartStatusConverted
	}
	return nil
}

type stubPlanner struct {
	plan *cart.SubmitPlan
	err  error
}

func (s *stubPlanner) PlanForOrder(ctx context.Context, accountID uuid.UUID) (*cart.SubmitPlan, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.plan, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}
