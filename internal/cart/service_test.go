package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborline/stockroom-backend/internal/catalog"
	"github.com/harborline/stockroom-backend/pkg/config"
	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/types"
)

func testClock() time.Time {
	return time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, repo CartRepository, lookup skuLookup, orders orderLoader) Service {
	t.Helper()
	if lookup == nil {
		lookup = stubCatalog{}
	}
	if orders == nil {
		orders = stubOrderLoader{}
	}
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       stubTxRunner{},
		Catalog:  lookup,
		Orders:   orders,
		Shipping: config.ShippingConfig{DefaultWindowDays: 14},
		Now:      testClock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seasonalCatalog() stubCatalog {
	summerStart, summerEnd := "2025-06-01", "2025-06-30"
	fallStart, fallEnd := "2025-09-01", "2025-09-30"
	return stubCatalog{
		"TEE-001": {
			SKU:       "TEE-001",
			VariantID: 101,
			Price:     decimal.RequireFromString("12.50"),
			Collection: &catalog.CollectionDTO{
				ID: 7, Name: "Summer",
				ShipWindowStart: &summerStart, ShipWindowEnd: &summerEnd,
			},
		},
		"HAT-002": {
			SKU:       "HAT-002",
			VariantID: 102,
			Price:     decimal.RequireFromString("8.00"),
			Collection: &catalog.CollectionDTO{
				ID: 9, Name: "Fall",
				ShipWindowStart: &fallStart, ShipWindowEnd: &fallEnd,
			},
		},
		"BAG-003": {
			SKU:       "BAG-003",
			VariantID: 103,
			Price:     decimal.RequireFromString("20.00"),
		},
	}
}

func activeRecord(accountID uuid.UUID, skus ...string) *models.CartRecord {
	record := &models.CartRecord{
		ID:              uuid.New(),
		RetailAccountID: accountID,
		Status:          enums.CartStatusActive,
	}
	lookup := seasonalCatalog()
	for _, sku := range skus {
		row := lookup[sku]
		record.Items = append(record.Items, models.CartItem{
			CartID:       record.ID,
			SKU:          row.SKU,
			SKUVariantID: row.VariantID,
			Quantity:     2,
			Price:        row.Price,
		})
	}
	return record
}

func TestUpsertCartCreatesCartWithPriceSnapshot(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	got, err := svc.UpsertCart(context.Background(), accountID, UpsertCartInput{
		Items: []CartItemInput{{SKU: "TEE-001", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(got.Items))
	}
	line := got.Items[0]
	if !line.Price.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected catalog price snapshot, got %s", line.Price)
	}
	if line.SKUVariantID != 101 {
		t.Fatalf("expected variant id from catalog, got %d", line.SKUVariantID)
	}
}

func TestUpsertCartRejectsUnknownSKU(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{}, seasonalCatalog(), nil)

	_, err := svc.UpsertCart(context.Background(), uuid.New(), UpsertCartInput{
		Items: []CartItemInput{{SKU: "NOPE-999", Quantity: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpsertCartRejectsBadQuantities(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{}, seasonalCatalog(), nil)

	_, err := svc.UpsertCart(context.Background(), uuid.New(), UpsertCartInput{
		Items: []CartItemInput{{SKU: "TEE-001", Quantity: 0}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.UpsertCart(context.Background(), uuid.New(), UpsertCartInput{
		Items: []CartItemInput{
			{SKU: "TEE-001", Quantity: 1},
			{SKU: "TEE-001", Quantity: 2},
		},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for duplicate sku, got %v", err)
	}
}

func TestPlanGroupsByCollection(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	repo := &stubCartRepo{record: activeRecord(accountID, "TEE-001", "HAT-002", "BAG-003")}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	plan, err := svc.Plan(context.Background(), accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Shipments) != 3 {
		t.Fatalf("expected three shipments, got %d", len(plan.Shipments))
	}
	if plan.Shipments[0].ID != "shipment-7" || plan.Shipments[1].ID != "shipment-9" {
		t.Fatalf("unexpected shipment ids: %s, %s", plan.Shipments[0].ID, plan.Shipments[1].ID)
	}
	if plan.Shipments[2].ID != "shipment-default" {
		t.Fatalf("expected a default shipment, got %s", plan.Shipments[2].ID)
	}
	if plan.Shipments[0].PlannedShipStart != "2025-06-01" || plan.Shipments[0].PlannedShipEnd != "2025-06-30" {
		t.Fatalf("expected collection window dates, got %s..%s",
			plan.Shipments[0].PlannedShipStart, plan.Shipments[0].PlannedShipEnd)
	}
	// Default-window shipment starts today and runs the configured span.
	if plan.Shipments[2].PlannedShipStart != "2025-05-01" || plan.Shipments[2].PlannedShipEnd != "2025-05-15" {
		t.Fatalf("unexpected default window %s..%s",
			plan.Shipments[2].PlannedShipStart, plan.Shipments[2].PlannedShipEnd)
	}
	if plan.HasErrors || !plan.CanSubmit {
		t.Fatalf("expected clean submittable plan, got %+v", plan)
	}
}

func TestPlanNoActiveCart(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{findErr: gorm.ErrRecordNotFound}, nil, nil)

	_, err := svc.Plan(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetShipmentDatesOverridesAndValidates(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	repo := &stubCartRepo{record: activeRecord(accountID, "TEE-001")}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	plan, err := svc.SetShipmentDates(context.Background(), accountID, "shipment-7", "2025-05-20", "2025-06-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Shipments[0].PlannedShipStart != "2025-05-20" {
		t.Fatalf("expected override applied, got %s", plan.Shipments[0].PlannedShipStart)
	}
	if !plan.HasErrors {
		t.Fatal("expected error for start before collection opens")
	}
	errs := plan.Errors["shipment-7"]
	if errs.Start == "" || errs.End != "" {
		t.Fatalf("expected start-side error only, got %+v", errs)
	}
	if plan.CanSubmit {
		t.Fatal("expected submission blocked without override confirmation")
	}

	plan, err = svc.ClearShipmentDates(context.Background(), accountID, "shipment-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Shipments[0].PlannedShipStart != "2025-06-01" {
		t.Fatalf("expected window restored after clear, got %s", plan.Shipments[0].PlannedShipStart)
	}
	if plan.HasErrors {
		t.Fatal("expected clean plan after clearing override")
	}
}

func TestCombineShipmentsRecordsGrouping(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := activeRecord(accountID, "TEE-001", "BAG-003")
	repo := &stubCartRepo{record: record}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	plan, err := svc.CombineShipments(context.Background(), accountID, []string{"shipment-7", "shipment-default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Shipments) != 1 {
		t.Fatalf("expected single combined shipment, got %d", len(plan.Shipments))
	}
	combined := plan.Shipments[0]
	if !combined.IsCombined {
		t.Fatal("expected combined shipment")
	}
	if _, ok := record.Groupings[combined.ID]; !ok {
		t.Fatalf("expected grouping stored under %s", combined.ID)
	}
	if len(combined.ItemSKUs) != 2 {
		t.Fatalf("expected both items in combined shipment, got %v", combined.ItemSKUs)
	}
}

func TestCombineShipmentsRejectsDisjointWindows(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	repo := &stubCartRepo{record: activeRecord(accountID, "TEE-001", "HAT-002")}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	_, err := svc.CombineShipments(context.Background(), accountID, []string{"shipment-7", "shipment-9"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for disjoint windows, got %v", err)
	}
}

func TestCombineShipmentsUnknownID(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	repo := &stubCartRepo{record: activeRecord(accountID, "TEE-001")}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	_, err := svc.CombineShipments(context.Background(), accountID, []string{"shipment-7", "shipment-404"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSplitShipmentRestoresConstituents(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := activeRecord(accountID, "TEE-001", "BAG-003")
	combinedID := "combined-shipment-7+shipment-default"
	record.Groupings = types.ShipmentGroupings{combinedID: {"shipment-7", "shipment-default"}}
	record.DateOverrides = types.ShipDateOverrides{combinedID: {Start: "2025-06-05", End: "2025-06-10"}}
	repo := &stubCartRepo{record: record}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	plan, err := svc.SplitShipment(context.Background(), accountID, combinedID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Shipments) != 2 {
		t.Fatalf("expected two shipments after split, got %d", len(plan.Shipments))
	}
	if _, ok := record.Groupings[combinedID]; ok {
		t.Fatal("expected grouping removed")
	}
	if _, ok := record.DateOverrides[combinedID]; ok {
		t.Fatal("expected combined-shipment override discarded on split")
	}
}

func TestSplitShipmentUnknownGrouping(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	repo := &stubCartRepo{record: activeRecord(accountID, "TEE-001")}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	_, err := svc.SplitShipment(context.Background(), accountID, "combined-a+b")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmOverrideUnblocksSubmission(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := activeRecord(accountID, "TEE-001")
	record.DateOverrides = types.ShipDateOverrides{"shipment-7": {Start: "2025-05-20", End: "2025-06-10"}}
	repo := &stubCartRepo{record: record}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	plan, err := svc.ConfirmOverride(context.Background(), accountID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.HasErrors {
		t.Fatal("expected errors to stay visible after confirmation")
	}
	if !plan.CanSubmit {
		t.Fatal("expected confirmation to unblock submission")
	}
}

func TestOverrideConfirmationResetsWhenPlanClean(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	record := activeRecord(accountID, "TEE-001")
	record.OverrideConfirmed = true
	repo := &stubCartRepo{record: record}
	svc := newTestService(t, repo, seasonalCatalog(), nil)

	plan, err := svc.Plan(context.Background(), accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.HasErrors {
		t.Fatalf("expected clean plan, got %+v", plan.Errors)
	}
	if plan.OverrideConfirmed {
		t.Fatal("expected stale confirmation cleared")
	}
	if record.OverrideConfirmed {
		t.Fatal("expected reset persisted on the record")
	}
	if repo.sessionSaves == 0 {
		t.Fatal("expected session state write for the reset")
	}
}

func TestStartOrderEditSeedsCartFromOrder(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	orderID := uuid.New()
	shipmentID := uuid.New()
	collectionID := int64(7)
	collectionName := "Summer"
	order := &models.Order{
		ID:              orderID,
		RetailAccountID: accountID,
		Currency:        enums.CurrencyUSD,
		Shipments: []models.OrderShipment{
			{
				ID:               shipmentID,
				OrderID:          orderID,
				CollectionID:     &collectionID,
				CollectionName:   &collectionName,
				PlannedShipStart: "2025-06-01",
				PlannedShipEnd:   "2025-06-30",
				Items: []models.OrderLineItem{
					{SKU: "TEE-001", SKUVariantID: 101, Quantity: 2, Price: decimal.RequireFromString("12.50")},
				},
			},
		},
	}
	repo := &stubCartRepo{findErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, repo, seasonalCatalog(), stubOrderLoader{order: order})

	got, err := svc.StartOrderEdit(context.Background(), accountID, orderID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EditingOrderID == nil || *got.EditingOrderID != orderID {
		t.Fatalf("expected editing order id set, got %+v", got.EditingOrderID)
	}
	if len(got.Items) != 1 || got.Items[0].SKU != "TEE-001" {
		t.Fatalf("expected order lines copied into cart, got %+v", got.Items)
	}
}

func TestStartOrderEditRejectsExistingActiveCart(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	repo := &stubCartRepo{record: activeRecord(accountID, "TEE-001")}
	svc := newTestService(t, repo, seasonalCatalog(), stubOrderLoader{})

	_, err := svc.StartOrderEdit(context.Background(), accountID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStartOrderEditForeignOrder(t *testing.T) {
	t.Parallel()

	order := &models.Order{ID: uuid.New(), RetailAccountID: uuid.New()}
	repo := &stubCartRepo{findErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, repo, seasonalCatalog(), stubOrderLoader{order: order})

	_, err := svc.StartOrderEdit(context.Background(), uuid.New(), order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPlanReconcilesPersistedShipments(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()
	orderID := uuid.New()
	shipmentID := uuid.New()
	collectionID := int64(7)
	collectionName := "Summer"

	record := activeRecord(accountID, "TEE-001")
	record.EditingOrderID = &orderID
	repo := &stubCartRepo{record: record}
	loader := stubOrderLoader{
		shipments: []models.OrderShipment{
			{
				ID:               shipmentID,
				OrderID:          orderID,
				CollectionID:     &collectionID,
				CollectionName:   &collectionName,
				PlannedShipStart: "2025-06-10",
				PlannedShipEnd:   "2025-06-20",
				Items: []models.OrderLineItem{
					{SKU: "TEE-001", SKUVariantID: 101, Quantity: 2},
				},
			},
		},
	}
	svc := newTestService(t, repo, seasonalCatalog(), loader)

	plan, err := svc.Plan(context.Background(), accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Shipments) != 1 {
		t.Fatalf("expected one shipment, got %d", len(plan.Shipments))
	}
	got := plan.Shipments[0]
	if got.ID != shipmentID.String() {
		t.Fatalf("expected persisted identity kept, got %s", got.ID)
	}
	if got.PlannedShipStart != "2025-06-10" || got.PlannedShipEnd != "2025-06-20" {
		t.Fatalf("expected saved dates kept, got %s..%s", got.PlannedShipStart, got.PlannedShipEnd)
	}
}

type stubCartRepo struct {
	record       *models.CartRecord
	findErr      error
	sessionSaves int
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*models.CartRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.record == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.record, nil
}

func (s *stubCartRepo) FindByIDAndAccount(ctx context.Context, id, accountID uuid.UUID) (*models.CartRecord, error) {
	if s.record != nil && s.record.ID == id {
		return s.record, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.record = record
	s.findErr = nil
	return record, nil
}

func (s *stubCartRepo) Update(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	s.record = record
	return record, nil
}

func (s *stubCartRepo) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	if s.record != nil && s.record.ID == cartID {
		s.record.Items = items
	}
	return nil
}

func (s *stubCartRepo) UpdateSessionState(ctx context.Context, record *models.CartRecord) error {
	s.sessionSaves++
	s.record = record
	return nil
}

func (s *stubCartRepo) MarkConverted(ctx context.Context, cartID uuid.UUID) error {
	if s.record != nil && s.record.ID == cartID {
		s.record.Status = enums.CartStatusConverted
	}
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCatalog map[string]catalog.SKUDTO

func (s stubCatalog) LookupSKUs(ctx context.Context, skus []string) (map[string]catalog.SKUDTO, error) {
	out := map[string]catalog.SKUDTO{}
	for _, sku := range skus {
		if row, ok := s[sku]; ok {
			out[sku] = row
		}
	}
	return out, nil
}

type stubOrderLoader struct {
	order     *models.Order
	shipments []models.OrderShipment
}

func (s stubOrderLoader) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s stubOrderLoader) FindShipmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderShipment, error) {
	return s.shipments, nil
}
