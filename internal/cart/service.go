package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/stockroom-backend/internal/catalog"
	"github.com/harborline/stockroom-backend/internal/shipping"
	"github.com/harborline/stockroom-backend/pkg/config"
	"github.com/harborline/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type skuLookup interface {
	LookupSKUs(ctx context.Context, skus []string) (map[string]catalog.SKUDTO, error)
}

type orderLoader interface {
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindShipmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderShipment, error)
}

// SubmitPlan bundles everything the order submitter needs from the cart: the
// computed plan, the backing record, and the engine's item view.
type SubmitPlan struct {
	Plan   shipping.Plan
	Record *models.CartRecord
	Items  []shipping.CartItem
}

// Service owns the cart and its shipment-planning session: the date override
// map, the combine groupings, and the override confirmation. Planned
// shipments are recomputed from scratch on every call; only the session
// state is stored.
type Service interface {
	UpsertCart(ctx context.Context, accountID uuid.UUID, input UpsertCartInput) (*CartDTO, error)
	GetActiveCart(ctx context.Context, accountID uuid.UUID) (*CartDTO, error)
	StartOrderEdit(ctx context.Context, accountID, orderID uuid.UUID) (*CartDTO, error)
	Plan(ctx context.Context, accountID uuid.UUID) (*PlanDTO, error)
	PlanForOrder(ctx context.Context, accountID uuid.UUID) (*SubmitPlan, error)
	SetShipmentDates(ctx context.Context, accountID uuid.UUID, shipmentID, start, end string) (*PlanDTO, error)
	ClearShipmentDates(ctx context.Context, accountID uuid.UUID, shipmentID string) (*PlanDTO, error)
	CombineShipments(ctx context.Context, accountID uuid.UUID, shipmentIDs []string) (*PlanDTO, error)
	SplitShipment(ctx context.Context, accountID uuid.UUID, combinedID string) (*PlanDTO, error)
	ConfirmOverride(ctx context.Context, accountID uuid.UUID, confirmed bool) (*PlanDTO, error)
	MarkConverted(ctx context.Context, cartID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	catalog  skuLookup
	orders   orderLoader
	shipping config.ShippingConfig
	now      func() time.Time
}

// ServiceParams wires the cart service dependencies.
type ServiceParams struct {
	Repo     CartRepository
	Tx       txRunner
	Catalog  skuLookup
	Orders   orderLoader
	Shipping config.ShippingConfig
	Now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		catalog:  params.Catalog,
		orders:   params.Orders,
		shipping: params.Shipping,
		now:      params.Now,
	}, nil
}

func (s *service) UpsertCart(ctx context.Context, accountID uuid.UUID, input UpsertCartInput) (*CartDTO, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retail account id is required")
	}

	seen := map[string]bool{}
	skus := make([]string, 0, len(input.Items))
	for _, item := range input.Items {
		if item.SKU == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if seen[item.SKU] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate sku %s", item.SKU))
		}
		seen[item.SKU] = true
		skus = append(skus, item.SKU)
	}

	lookup, err := s.catalog.LookupSKUs(ctx, skus)
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, 0, len(input.Items))
	for _, payload := range input.Items {
		row, ok := lookup[payload.SKU]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("sku %s not found", payload.SKU))
		}
		items = append(items, models.CartItem{
			SKU:          row.SKU,
			SKUVariantID: row.VariantID,
			Quantity:     payload.Quantity,
			Price:        row.Price,
		})
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		record, err := txRepo.FindActiveByAccount(ctx, accountID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if record == nil {
			record = &models.CartRecord{RetailAccountID: accountID}
			if record, err = txRepo.Create(ctx, record); err != nil {
				return err
			}
		}

		for i := range items {
			items[i].CartID = record.ID
		}
		if err := txRepo.ReplaceItems(ctx, record.ID, items); err != nil {
			return err
		}

		saved, err = txRepo.FindByIDAndAccount(ctx, record.ID, accountID)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	return s.cartDTOFor(ctx, saved)
}

func (s *service) GetActiveCart(ctx context.Context, accountID uuid.UUID) (*CartDTO, error) {
	record, err := s.loadActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.cartDTOFor(ctx, record)
}

// StartOrderEdit opens a new active cart seeded from a submitted order so
// its shipments can be re-planned. The resulting plan reconciles against the
// order's persisted shipments by item membership.
func (s *service) StartOrderEdit(ctx context.Context, accountID, orderID uuid.UUID) (*CartDTO, error) {
	if _, err := s.loadActive(ctx, accountID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active cart already exists")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	order, err := s.orders.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.RetailAccountID != accountID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to a different account")
	}

	var items []models.CartItem
	for _, shipment := range order.Shipments {
		for _, line := range shipment.Items {
			items = append(items, models.CartItem{
				SKU:          line.SKU,
				SKUVariantID: line.SKUVariantID,
				Quantity:     line.Quantity,
				Price:        line.Price,
			})
		}
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		editingID := orderID
		record, err := txRepo.Create(ctx, &models.CartRecord{
			RetailAccountID: accountID,
			Currency:        order.Currency,
			EditingOrderID:  &editingID,
		})
		if err != nil {
			return err
		}
		for i := range items {
			items[i].CartID = record.ID
		}
		if err := txRepo.ReplaceItems(ctx, record.ID, items); err != nil {
			return err
		}
		saved, err = txRepo.FindByIDAndAccount(ctx, record.ID, accountID)
		return err
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open order edit")
	}

	return s.cartDTOFor(ctx, saved)
}

func (s *service) Plan(ctx context.Context, accountID uuid.UUID) (*PlanDTO, error) {
	record, err := s.loadActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	plan, _, err := s.computePlan(ctx, record)
	if err != nil {
		return nil, err
	}
	return planDTO(plan, record.OverrideConfirmed), nil
}

// PlanForOrder computes the plan the order submitter treats as authoritative.
func (s *service) PlanForOrder(ctx context.Context, accountID uuid.UUID) (*SubmitPlan, error) {
	record, err := s.loadActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	plan, items, err := s.computePlan(ctx, record)
	if err != nil {
		return nil, err
	}
	return &SubmitPlan{Plan: plan, Record: record, Items: items}, nil
}

func (s *service) SetShipmentDates(ctx context.Context, accountID uuid.UUID, shipmentID, start, end string) (*PlanDTO, error) {
	if shipmentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id is required")
	}
	return s.mutateSession(ctx, accountID, func(record *models.CartRecord) error {
		if record.DateOverrides == nil {
			record.DateOverrides = types.ShipDateOverrides{}
		}
		record.DateOverrides[shipmentID] = types.ShipWindowOverride{Start: start, End: end}
		return nil
	})
}

func (s *service) ClearShipmentDates(ctx context.Context, accountID uuid.UUID, shipmentID string) (*PlanDTO, error) {
	return s.mutateSession(ctx, accountID, func(record *models.CartRecord) error {
		delete(record.DateOverrides, shipmentID)
		return nil
	})
}

func (s *service) CombineShipments(ctx context.Context, accountID uuid.UUID, shipmentIDs []string) (*PlanDTO, error) {
	if len(shipmentIDs) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "combining requires at least two shipments")
	}
	distinct := map[string]bool{}
	for _, id := range shipmentIDs {
		if distinct[id] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate shipment id %s", id))
		}
		distinct[id] = true
	}

	record, err := s.loadActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	plan, _, err := s.computePlan(ctx, record)
	if err != nil {
		return nil, err
	}

	byID := map[string]shipping.PlannedShipment{}
	for _, shipment := range plan.Shipments {
		byID[shipment.ID] = shipment
	}
	for _, id := range shipmentIDs {
		shipment, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("shipment %s not found", id))
		}
		if shipment.IsCombined {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("shipment %s is already combined; split it first", id))
		}
	}
	for i, a := range shipmentIDs {
		for _, b := range shipmentIDs[i+1:] {
			if !containsID(byID[a].CanCombineWith, b) {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("shipments %s and %s have no overlapping ship window", a, b))
			}
		}
	}

	combinedID := shipping.CombinedShipmentID(shipmentIDs)
	return s.mutateSessionRecord(ctx, record, func(record *models.CartRecord) error {
		if record.Groupings == nil {
			record.Groupings = types.ShipmentGroupings{}
		}
		record.Groupings[combinedID] = shipmentIDs
		return nil
	})
}

func (s *service) SplitShipment(ctx context.Context, accountID uuid.UUID, combinedID string) (*PlanDTO, error) {
	record, err := s.loadActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if _, ok := record.Groupings[combinedID]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no combined shipment %s", combinedID))
	}
	return s.mutateSessionRecord(ctx, record, func(record *models.CartRecord) error {
		delete(record.Groupings, combinedID)
		// A date override targeting the combined shipment has nothing to
		// attach to once split.
		delete(record.DateOverrides, combinedID)
		return nil
	})
}

func (s *service) ConfirmOverride(ctx context.Context, accountID uuid.UUID, confirmed bool) (*PlanDTO, error) {
	return s.mutateSession(ctx, accountID, func(record *models.CartRecord) error {
		record.OverrideConfirmed = confirmed
		return nil
	})
}

func (s *service) MarkConverted(ctx context.Context, cartID uuid.UUID) error {
	return s.repo.MarkConverted(ctx, cartID)
}

func (s *service) loadActive(ctx context.Context, accountID uuid.UUID) (*models.CartRecord, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retail account id is required")
	}
	record, err := s.repo.FindActiveByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

func (s *service) mutateSession(ctx context.Context, accountID uuid.UUID, mutate func(*models.CartRecord) error) (*PlanDTO, error) {
	record, err := s.loadActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.mutateSessionRecord(ctx, record, mutate)
}

func (s *service) mutateSessionRecord(ctx context.Context, record *models.CartRecord, mutate func(*models.CartRecord) error) (*PlanDTO, error) {
	if err := mutate(record); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSessionState(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save planning state")
	}
	plan, _, err := s.computePlan(ctx, record)
	if err != nil {
		return nil, err
	}
	return planDTO(plan, record.OverrideConfirmed), nil
}

// computePlan derives the current shipment plan for the record. When a
// recompute comes back clean the stored override confirmation is cleared so
// a stale confirmation cannot silently re-permit a future violation.
func (s *service) computePlan(ctx context.Context, record *models.CartRecord) (shipping.Plan, []shipping.CartItem, error) {
	items, err := s.engineItems(ctx, record)
	if err != nil {
		return shipping.Plan{}, nil, err
	}

	persisted, err := s.persistedShipments(ctx, record)
	if err != nil {
		return shipping.Plan{}, nil, err
	}

	plan := shipping.ComputeShipments(shipping.PlanInput{
		Items:              items,
		PersistedShipments: persisted,
		Overrides:          engineOverrides(record.DateOverrides),
		Groupings:          shipping.Groupings(record.Groupings),
		OverrideConfirmed:  record.OverrideConfirmed,
		Today:              s.now().Format("2006-01-02"),
		DefaultWindowDays:  s.shipping.DefaultWindowDays,
	})

	if record.OverrideConfirmed && !plan.HasErrors {
		record.OverrideConfirmed = false
		if err := s.repo.UpdateSessionState(ctx, record); err != nil {
			return shipping.Plan{}, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset override confirmation")
		}
	}
	return plan, items, nil
}

// engineItems joins cart lines with the catalog to build the planner's view.
// A line whose SKU has left the catalog falls back to its cart snapshot and
// plans as available-to-ship.
func (s *service) engineItems(ctx context.Context, record *models.CartRecord) ([]shipping.CartItem, error) {
	skus := make([]string, 0, len(record.Items))
	for _, item := range record.Items {
		skus = append(skus, item.SKU)
	}
	lookup, err := s.catalog.LookupSKUs(ctx, skus)
	if err != nil {
		return nil, err
	}

	items := make([]shipping.CartItem, 0, len(record.Items))
	for _, line := range record.Items {
		item := shipping.CartItem{
			SKU:          line.SKU,
			SKUVariantID: line.SKUVariantID,
			Quantity:     line.Quantity,
			Price:        line.Price,
		}
		if row, ok := lookup[line.SKU]; ok && row.Collection != nil {
			item.CollectionID = &row.Collection.ID
			item.CollectionName = row.Collection.Name
			if row.Collection.ShipWindowStart != nil {
				item.ShipWindowStart = *row.Collection.ShipWindowStart
			}
			if row.Collection.ShipWindowEnd != nil {
				item.ShipWindowEnd = *row.Collection.ShipWindowEnd
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *service) persistedShipments(ctx context.Context, record *models.CartRecord) ([]shipping.PersistedShipment, error) {
	if record.EditingOrderID == nil {
		return nil, nil
	}
	rows, err := s.orders.FindShipmentsByOrder(ctx, *record.EditingOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load persisted shipments")
	}
	out := make([]shipping.PersistedShipment, 0, len(rows))
	for _, row := range rows {
		shipment := shipping.PersistedShipment{
			ID:                  row.ID.String(),
			CollectionID:        row.CollectionID,
			ItemSKUs:            make([]string, 0, len(row.Items)),
			PlannedShipStart:    row.PlannedShipStart,
			PlannedShipEnd:      row.PlannedShipEnd,
			IsCombined:          row.IsCombined,
			OriginalShipmentIDs: row.OriginalShipmentIDs,
		}
		if row.CollectionName != nil {
			shipment.CollectionName = *row.CollectionName
		}
		for _, line := range row.Items {
			shipment.ItemSKUs = append(shipment.ItemSKUs, line.SKU)
		}
		out = append(out, shipment)
	}
	return out, nil
}

func (s *service) cartDTOFor(ctx context.Context, record *models.CartRecord) (*CartDTO, error) {
	skus := make([]string, 0, len(record.Items))
	for _, item := range record.Items {
		skus = append(skus, item.SKU)
	}
	lookup, err := s.catalog.LookupSKUs(ctx, skus)
	if err != nil {
		return nil, err
	}

	lines := make([]CartLineDTO, 0, len(record.Items))
	for _, item := range record.Items {
		line := CartLineDTO{
			SKU:          item.SKU,
			SKUVariantID: item.SKUVariantID,
			Quantity:     item.Quantity,
			Price:        item.Price,
		}
		if row, ok := lookup[item.SKU]; ok {
			line.Description = row.Description
			if row.Collection != nil {
				line.CollectionID = &row.Collection.ID
				line.CollectionName = row.Collection.Name
				if row.Collection.ShipWindowStart != nil {
					line.ShipWindowStart = *row.Collection.ShipWindowStart
				}
				if row.Collection.ShipWindowEnd != nil {
					line.ShipWindowEnd = *row.Collection.ShipWindowEnd
				}
			}
		}
		lines = append(lines, line)
	}
	return cartDTO(record, lines), nil
}

func engineOverrides(overrides types.ShipDateOverrides) shipping.Overrides {
	if len(overrides) == 0 {
		return nil
	}
	out := make(shipping.Overrides, len(overrides))
	for id, window := range overrides {
		out[id] = shipping.Window{Start: window.Start, End: window.End}
	}
	return out
}

func containsID(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
