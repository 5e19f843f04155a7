package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-inventory-pos/internal/lock"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor identifies who performs an operation. The engine only stores ID.
type Actor struct {
	ID    string
	Name  string
	Email string
}

type LineItemInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Variant   string          `json:"variant"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitCost  decimal.Decimal `json:"unit_cost" validate:"dec_gte0"`
}

type CreateOrderRequest struct {
	SupplierID   uuid.UUID       `json:"supplier_id" validate:"uuid_required"`
	Items        []LineItemInput `json:"items" validate:"required,min=1,dive"`
	Notes        string          `json:"notes"`
	ExpectedDate *time.Time      `json:"expected_date"`
}

// UpdateOrderRequest fields left nil are unchanged.
type UpdateOrderRequest struct {
	SupplierID   *uuid.UUID       `json:"supplier_id"`
	Items        []LineItemInput  `json:"items" validate:"omitempty,dive"`
	Notes        *string          `json:"notes"`
	TotalAmount  *decimal.Decimal `json:"total_amount" validate:"omitempty,dec_gte0"`
	ExpectedDate *time.Time       `json:"expected_date"`
}

type PurchaseOrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest, actor Actor) (*model.PurchaseOrder, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req *UpdateOrderRequest, actor Actor) (*model.PurchaseOrder, error)
	RequestTransition(ctx context.Context, id uuid.UUID, target model.PurchaseOrderStatus, actor Actor) (*model.PurchaseOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	List(ctx context.Context, params repository.PurchaseOrderListParams) ([]model.PurchaseOrder, model.Pagination, error)
	ListActive(ctx context.Context) ([]model.PurchaseOrder, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor Actor) error
}

type purchaseOrderService struct {
	db        *gorm.DB
	orders    repository.PurchaseOrderRepository
	products  repository.ProductRepository
	suppliers repository.CatalogRepository[model.Supplier]
	counters  repository.CounterRepository
	movements repository.StockMovementRepository

	locker lock.Locker
	hub    *ws.Hub
	log    *zap.Logger
	now    func() time.Time
}

type PurchaseOrderOption func(*purchaseOrderService)

func WithLocker(l lock.Locker) PurchaseOrderOption {
	return func(s *purchaseOrderService) { s.locker = l }
}

func WithHub(h *ws.Hub) PurchaseOrderOption {
	return func(s *purchaseOrderService) { s.hub = h }
}

func WithLogger(l *zap.Logger) PurchaseOrderOption {
	return func(s *purchaseOrderService) { s.log = l }
}

func WithClock(now func() time.Time) PurchaseOrderOption {
	return func(s *purchaseOrderService) { s.now = now }
}

func NewPurchaseOrderService(
	db *gorm.DB,
	orders repository.PurchaseOrderRepository,
	products repository.ProductRepository,
	suppliers repository.CatalogRepository[model.Supplier],
	counters repository.CounterRepository,
	movements repository.StockMovementRepository,
	opts ...PurchaseOrderOption,
) PurchaseOrderService {
	s := &purchaseOrderService{
		db:        db,
		orders:    orders,
		products:  products,
		suppliers: suppliers,
		counters:  counters,
		movements: movements,
		locker:    lock.Noop{},
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("purchase_order")
	return s
}

func FormatOrderNumber(year, seq int) string {
	return fmt.Sprintf("PO-%d-%04d", year, seq)
}

func (s *purchaseOrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest, actor Actor) (*model.PurchaseOrder, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}
	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &model.PurchaseOrder{
		SoftDelete:    model.SoftDelete{Active: true},
		SupplierID:    req.SupplierID,
		OrderDate:     now,
		ExpectedDate:  req.ExpectedDate,
		Status:        model.POStatusDraft,
		Notes:         req.Notes,
		Items:         datatypes.JSONSlice[model.LineItem](items),
		StatusHistory: datatypes.JSONSlice[model.StatusHistoryEntry]{},
		TotalAmount:   model.SumItems(items),
	}
	order.CreatedBy = actor.ID
	order.UpdatedBy = actor.ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		year := now.Year()

		seq, err := s.counters.WithTx(tx).Next(ctx, repository.ScopePurchaseOrder, year, func() (int64, error) {
			return orders.MaxSequence(ctx, year)
		})
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		order.OrderNumber = FormatOrderNumber(year, seq)

		if err := orders.Create(ctx, order); err != nil {
			if repository.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, order.OrderNumber)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.log.Warn("create purchase order failed", zap.String("actor", actor.ID), zap.Error(err))
		return nil, err
	}

	s.log.Info("purchase order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("actor", actor.ID),
		zap.Int("items", len(items)),
	)
	s.hub.Publish(ws.EventPurchaseOrderSaved, orderEvent(order, "created", actor))
	return order, nil
}

func (s *purchaseOrderService) UpdateOrder(ctx context.Context, id uuid.UUID, req *UpdateOrderRequest, actor Actor) (*model.PurchaseOrder, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Items != nil && len(req.Items) == 0 {
		return nil, validationFailed("items must not be empty")
	}

	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != model.POStatusDraft {
		return nil, ErrImmutableAfterDraft
	}

	if req.SupplierID != nil {
		if err := s.checkSupplier(ctx, *req.SupplierID); err != nil {
			return nil, err
		}
	}
	var items []model.LineItem
	if req.Items != nil {
		if items, err = s.buildItems(ctx, req.Items); err != nil {
			return nil, err
		}
	}

	var order *model.PurchaseOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		var err error
		if order, err = s.loadActive(ctx, orders, id); err != nil {
			return err
		}
		// The order may have left draft since the first read.
		if order.Status != model.POStatusDraft {
			return ErrImmutableAfterDraft
		}

		if req.SupplierID != nil {
			order.SupplierID = *req.SupplierID
			order.Supplier = nil
		}
		if req.Notes != nil {
			order.Notes = *req.Notes
		}
		if req.ExpectedDate != nil {
			order.ExpectedDate = req.ExpectedDate
		}
		if items != nil {
			order.Items = datatypes.JSONSlice[model.LineItem](items)
			order.TotalAmount = model.SumItems(items)
		}
		if req.TotalAmount != nil {
			order.TotalAmount = *req.TotalAmount
		}
		order.UpdatedBy = actor.ID
		return orders.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.EventPurchaseOrderSaved, orderEvent(order, "updated", actor))
	return order, nil
}

// RequestTransition moves an order along one edge of the status table. Reaching received applies
// every line to stock inside the same transaction as the status change.
func (s *purchaseOrderService) RequestTransition(ctx context.Context, id uuid.UUID, target model.PurchaseOrderStatus, actor Actor) (*model.PurchaseOrder, error) {
	release, err := s.locker.Acquire(ctx, "purchase_order:"+id.String())
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		return nil, ErrOrderBusy
	case err != nil:
		// The transaction and receipt ledger still keep the transition safe without the lock.
		s.log.Warn("order lock unavailable, continuing without it", zap.String("order_id", id.String()), zap.Error(err))
		release = func() {}
	}
	defer release()

	var (
		order   *model.PurchaseOrder
		from    model.PurchaseOrderStatus
		applied []model.StockMovement
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		var err error
		if order, err = s.loadActive(ctx, orders, id); err != nil {
			return err
		}

		from = order.Status
		if !from.CanTransitionTo(target) {
			return &InvalidTransitionError{From: from, To: target}
		}

		now := s.now()
		if target == model.POStatusReceived {
			if applied, err = s.receive(ctx, tx, order, actor); err != nil {
				return err
			}
			order.ReceivedDate = &now
			order.ReceivedBy = actor.ID
		}

		order.StatusHistory = append(order.StatusHistory, model.StatusHistoryEntry{
			From:      from,
			To:        target,
			ChangedBy: actor.ID,
			ChangedAt: now,
		})
		order.Status = target
		order.UpdatedBy = actor.ID
		return orders.Save(ctx, order)
	})
	if err != nil {
		s.log.Warn("purchase order transition rejected",
			zap.String("order_id", id.String()),
			zap.String("to", string(target)),
			zap.String("actor", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("purchase order transitioned",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", actor.ID),
		zap.Int("lines_applied", len(applied)),
	)
	s.hub.Publish(ws.EventPurchaseOrderStatus, map[string]any{
		"id":           order.ID,
		"order_number": order.OrderNumber,
		"from":         from,
		"to":           target,
		"user":         actorPayload(actor),
		"message":      fmt.Sprintf("%s moved %s from %s to %s", actor.Name, order.OrderNumber, from, target),
	})
	for _, m := range applied {
		s.hub.Publish(ws.EventStockUpdate, map[string]any{
			"action":     "purchase_order_received",
			"product_id": m.ProductID,
			"variant":    m.Variant,
			"delta":      m.Quantity,
			"reference":  m.Reference,
			"user":       actorPayload(actor),
		})
	}
	return order, nil
}

// receive applies each not-yet-recorded line to stock and logs an IN movement for it.
func (s *purchaseOrderService) receive(ctx context.Context, tx *gorm.DB, order *model.PurchaseOrder, actor Actor) ([]model.StockMovement, error) {
	products := s.products.WithTx(tx)
	orders := s.orders.WithTx(tx)

	movements := make([]model.StockMovement, 0, len(order.Items))
	for i, item := range order.Items {
		product, err := products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fromRepo(err, fmt.Sprintf("product %s on line %d", item.ProductID, i+1))
		}

		variant := ""
		if product.HasVariants && item.Variant != "" {
			variant = item.Variant
		}

		fresh, err := orders.RecordReceipt(ctx, &model.StockReceipt{
			OrderID:    order.ID,
			LineIndex:  i,
			ProductID:  item.ProductID,
			Variant:    variant,
			Quantity:   item.Quantity,
			ReceivedBy: actor.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("record receipt line %d: %w", i+1, err)
		}
		if !fresh {
			s.log.Warn("line already received, skipping",
				zap.String("order_number", order.OrderNumber), zap.Int("line", i+1))
			continue
		}

		if err := products.IncrementStock(ctx, item.ProductID, variant, item.Quantity); err != nil {
			return nil, fromRepo(err, fmt.Sprintf("%q on product %s (line %d)", variant, item.ProductID, i+1))
		}

		m := model.StockMovement{
			ProductID: item.ProductID,
			Variant:   variant,
			Type:      model.MovementIn,
			Quantity:  item.Quantity,
			Reference: order.OrderNumber,
			Note:      "purchase order received",
		}
		m.CreatedBy = actor.ID
		m.UpdatedBy = actor.ID
		movements = append(movements, m)
	}

	ptrs := make([]*model.StockMovement, len(movements))
	for i := range movements {
		ptrs[i] = &movements[i]
	}
	if err := s.movements.WithTx(tx).Create(ctx, ptrs...); err != nil {
		return nil, fmt.Errorf("log stock movements: %w", err)
	}
	return movements, nil
}

func (s *purchaseOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "purchase order "+id.String())
	}
	if !order.Active {
		return nil, fmt.Errorf("%w: purchase order %s", ErrNotFound, id)
	}
	return order, nil
}

func (s *purchaseOrderService) List(ctx context.Context, params repository.PurchaseOrderListParams) ([]model.PurchaseOrder, model.Pagination, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, model.Pagination{}, validationFailed(fmt.Sprintf("unknown status %q", params.Status))
	}
	orders, total, err := s.orders.List(ctx, params)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return orders, model.NewPagination(params.ListParams, total), nil
}

func (s *purchaseOrderService) ListActive(ctx context.Context) ([]model.PurchaseOrder, error) {
	return s.orders.FindAll(ctx, false)
}

func (s *purchaseOrderService) SoftDelete(ctx context.Context, id uuid.UUID, actor Actor) error {
	if err := s.orders.SoftDelete(ctx, id, actor.ID, s.now()); err != nil {
		return fromRepo(err, "purchase order "+id.String())
	}
	s.log.Info("purchase order deactivated", zap.String("order_id", id.String()), zap.String("actor", actor.ID))
	return nil
}

// loadActive reads and row-locks an active order inside a transaction.
func (s *purchaseOrderService) loadActive(ctx context.Context, orders repository.PurchaseOrderRepository, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := orders.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "purchase order "+id.String())
	}
	if !order.Active {
		return nil, fmt.Errorf("%w: purchase order %s", ErrNotFound, id)
	}
	return order, nil
}

func (s *purchaseOrderService) checkSupplier(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return fromRepo(err, "supplier "+id.String())
	}
	if !supplier.Active {
		return fmt.Errorf("%w: supplier %s", ErrNotFound, id)
	}
	return nil
}

// buildItems validates every line against its product and computes subtotals.
// Nothing is written; any failure aborts the whole request.
func (s *purchaseOrderService) buildItems(ctx context.Context, inputs []LineItemInput) ([]model.LineItem, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]model.LineItem, 0, len(inputs))
	for _, in := range inputs {
		product, ok := byID[in.ProductID]
		if !ok || !product.Active {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, in.ProductID)
		}
		if err := checkVariant(product, in.Variant); err != nil {
			return nil, err
		}
		items = append(items, model.LineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Variant:     in.Variant,
			Quantity:    in.Quantity,
			UnitCost:    in.UnitCost,
			Subtotal:    in.UnitCost.Mul(decimal.NewFromInt(int64(in.Quantity))),
		})
	}
	return items, nil
}

func actorPayload(a Actor) map[string]any {
	return map[string]any{"id": a.ID, "name": a.Name, "email": a.Email}
}

func orderEvent(o *model.PurchaseOrder, action string, actor Actor) map[string]any {
	return map[string]any{
		"action":       action,
		"id":           o.ID,
		"order_number": o.OrderNumber,
		"status":       o.Status,
		"total_amount": o.TotalAmount,
		"user":         actorPayload(actor),
	}
}
