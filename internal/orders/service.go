package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborline/stockroom-backend/internal/cart"
	"github.com/harborline/stockroom-backend/internal/shipping"
	"github.com/harborline/stockroom-backend/pkg/db"
	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/outbox"
	"github.com/harborline/stockroom-backend/pkg/outbox/payloads"
	"github.com/harborline/stockroom-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// cartPlanner supplies the authoritative plan for the account's active cart.
type cartPlanner interface {
	PlanForOrder(ctx context.Context, accountID uuid.UUID) (*cart.SubmitPlan, error)
}

// Actor identifies who is placing or changing the order.
type Actor struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
	Role      string
}

// Service defines order submission and lifecycle operations. Submit and
// Update recompute the shipment plan server-side; the client's view of the
// plan is never trusted.
type Service interface {
	Submit(ctx context.Context, actor Actor, input SubmitOrderInput) (*OrderDTO, error)
	Update(ctx context.Context, actor Actor, orderID uuid.UUID, input SubmitOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, accountID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*OrderList, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo    Repository
	carts   cart.CartRepository
	planner cartPlanner
	tx      txRunner
	outbox  outboxPublisher
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, carts cart.CartRepository, planner cartPlanner, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if planner == nil {
		return nil, fmt.Errorf("cart planner required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		carts:   carts,
		planner: planner,
		tx:      tx,
		outbox:  publisher,
	}, nil
}

func (s *service) Submit(ctx context.Context, actor Actor, input SubmitOrderInput) (*OrderDTO, error) {
	sp, err := s.planner.PlanForOrder(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}
	record := sp.Record
	if record.EditingOrderID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is editing an existing order; save the edit instead")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	}
	if err := submitGate(sp.Plan); err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		number, err := txRepo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:              uuid.New(),
			OrderNumber:     number,
			RetailAccountID: actor.AccountID,
			PlacedByUserID:  actor.UserID,
			Status:          enums.OrderStatusSubmitted,
			Currency:        record.Currency,
			Total:           cartTotal(record.Items),
			AllowOverride:   sp.Plan.HasErrors,
			ShippingAddress: input.ShippingAddress,
			Notes:           input.Notes,
		}
		if _, err := txRepo.CreateOrder(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "idx_orders_order_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order number collision, retry submission")
			}
			return err
		}
		orderID = order.ID

		shipments, lines := shipmentRows(order.ID, sp.Plan.Shipments, record.Items)
		if err := txRepo.CreateShipments(ctx, shipments); err != nil {
			return err
		}
		if err := txRepo.CreateLineItems(ctx, lines); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:         order.ID,
				OrderNumber:     order.OrderNumber,
				RetailAccountID: order.RetailAccountID,
				Currency:        order.Currency,
				Total:           order.Total,
				ShipmentCount:   len(shipments),
				AllowOverride:   order.AllowOverride,
			},
		}); err != nil {
			return err
		}

		return s.carts.WithTx(tx).MarkConverted(ctx, record.ID)
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit order")
	}

	return s.Get(ctx, actor.AccountID, orderID)
}

// Update saves an order edit. Planned shipments carrying the id of an
// existing row are written in place, fresh splits are inserted, and
// existing shipments the plan no longer mentions lost all their items
// during the edit and are deleted.
func (s *service) Update(ctx context.Context, actor Actor, orderID uuid.UUID, input SubmitOrderInput) (*OrderDTO, error) {
	sp, err := s.planner.PlanForOrder(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}
	record := sp.Record
	if record.EditingOrderID == nil || *record.EditingOrderID != orderID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not editing this order")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	}
	if err := submitGate(sp.Plan); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByIDAndAccount(ctx, orderID, actor.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if existing.Status != enums.OrderStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s and can no longer be edited", existing.Status))
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		existingByID := map[uuid.UUID]models.OrderShipment{}
		for _, shipment := range existing.Shipments {
			existingByID[shipment.ID] = shipment
		}

		index := lineIndex(record.Items)
		claimed := map[uuid.UUID]bool{}
		var newShipments []models.OrderShipment
		var newLines []models.OrderLineItem

		for _, planned := range sp.Plan.Shipments {
			if id, parseErr := uuid.Parse(planned.ID); parseErr == nil {
				if _, ok := existingByID[id]; ok {
					claimed[id] = true
					row := shipmentRow(id, orderID, planned)
					if err := txRepo.UpdateShipment(ctx, &row); err != nil {
						return err
					}
					if err := txRepo.ReplaceShipmentItems(ctx, id, lineRows(orderID, id, planned.ItemSKUs, index)); err != nil {
						return err
					}
					continue
				}
			}
			row := shipmentRow(uuid.New(), orderID, planned)
			newShipments = append(newShipments, row)
			newLines = append(newLines, lineRows(orderID, row.ID, planned.ItemSKUs, index)...)
		}

		var deleted []uuid.UUID
		for _, shipment := range existing.Shipments {
			if claimed[shipment.ID] {
				continue
			}
			if err := txRepo.DeleteShipment(ctx, shipment.ID); err != nil {
				return err
			}
			deleted = append(deleted, shipment.ID)
		}

		if err := txRepo.CreateShipments(ctx, newShipments); err != nil {
			return err
		}
		if err := txRepo.CreateLineItems(ctx, newLines); err != nil {
			return err
		}

		updated := &models.Order{
			ID:              orderID,
			Status:          existing.Status,
			Total:           cartTotal(record.Items),
			AllowOverride:   sp.Plan.HasErrors,
			Notes:           existing.Notes,
			ShippingAddress: existing.ShippingAddress,
		}
		if input.Notes != nil {
			updated.Notes = input.Notes
		}
		if input.ShippingAddress != nil {
			updated.ShippingAddress = input.ShippingAddress
		}
		if err := txRepo.UpdateOrder(ctx, updated); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderUpdated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actorRef(actor),
			Version:       1,
			Data: payloads.OrderUpdatedEvent{
				OrderID:            orderID,
				OrderNumber:        existing.OrderNumber,
				RetailAccountID:    existing.RetailAccountID,
				Total:              updated.Total,
				ShipmentCount:      len(sp.Plan.Shipments),
				DeletedShipmentIDs: deleted,
				AllowOverride:      updated.AllowOverride,
			},
		}); err != nil {
			return err
		}

		return s.carts.WithTx(tx).MarkConverted(ctx, record.ID)
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order edit")
	}

	return s.Get(ctx, actor.AccountID, orderID)
}

func (s *service) Get(ctx context.Context, accountID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByIDAndAccount(ctx, orderID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return orderDTO(order), nil
}

func (s *service) List(ctx context.Context, accountID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListByAccount(ctx, accountID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByIDAndAccount(ctx, orderID, actor.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusSubmitted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is %s and can no longer be canceled", order.Status))
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order.Status = enums.OrderStatusCanceled
		if err := txRepo.UpdateOrder(ctx, order); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actor),
			Version:       1,
			Data: payloads.OrderCanceledEvent{
				OrderID:         order.ID,
				OrderNumber:     order.OrderNumber,
				RetailAccountID: order.RetailAccountID,
			},
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}

	return s.Get(ctx, actor.AccountID, orderID)
}

// submitGate blocks submission while the plan reports unconfirmed
// ship-window violations.
func submitGate(plan shipping.Plan) error {
	if plan.CanSubmit {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "planned ship dates violate collection windows").
		WithDetails(plan.Errors)
}

func actorRef(actor Actor) *outbox.ActorRef {
	accountID := actor.AccountID
	return &outbox.ActorRef{
		UserID:    actor.UserID,
		AccountID: &accountID,
		Role:      actor.Role,
	}
}

func cartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func lineIndex(items []models.CartItem) map[string]models.CartItem {
	index := make(map[string]models.CartItem, len(items))
	for _, item := range items {
		index[item.SKU] = item
	}
	return index
}

func shipmentRow(id, orderID uuid.UUID, planned shipping.PlannedShipment) models.OrderShipment {
	row := models.OrderShipment{
		ID:                  id,
		OrderID:             orderID,
		CollectionID:        planned.CollectionID,
		PlannedShipStart:    planned.PlannedShipStart,
		PlannedShipEnd:      planned.PlannedShipEnd,
		IsCombined:          planned.IsCombined,
		OriginalShipmentIDs: planned.OriginalShipmentIDs,
	}
	if planned.CollectionName != "" {
		name := planned.CollectionName
		row.CollectionName = &name
	}
	return row
}

func lineRows(orderID, shipmentID uuid.UUID, skus []string, index map[string]models.CartItem) []models.OrderLineItem {
	lines := make([]models.OrderLineItem, 0, len(skus))
	for _, sku := range skus {
		item, ok := index[sku]
		if !ok {
			continue
		}
		lines = append(lines, models.OrderLineItem{
			OrderID:      orderID,
			ShipmentID:   shipmentID,
			SKU:          item.SKU,
			SKUVariantID: item.SKUVariantID,
			Quantity:     item.Quantity,
			Price:        item.Price,
		})
	}
	return lines
}

func shipmentRows(orderID uuid.UUID, planned []shipping.PlannedShipment, items []models.CartItem) ([]models.OrderShipment, []models.OrderLineItem) {
	index := lineIndex(items)
	shipments := make([]models.OrderShipment, 0, len(planned))
	var lines []models.OrderLineItem
	for _, shipment := range planned {
		row := shipmentRow(uuid.New(), orderID, shipment)
		shipments = append(shipments, row)
		lines = append(lines, lineRows(orderID, row.ID, shipment.ItemSKUs, index)...)
	}
	return shipments, lines
}
