package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-inventory-pos/internal/lock"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/testutil"
	"go-inventory-pos/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type poFixture struct {
	db        *gorm.DB
	svc       PurchaseOrderService
	products  repository.ProductRepository
	orders    repository.PurchaseOrderRepository
	movements repository.StockMovementRepository
	hub       *ws.Hub

	supplier *model.Supplier
	plain    *model.Product // simple product, stock 10
	shirt    *model.Product // variant product: Red-M stock 2, Blue-L stock 0
}

var actor = Actor{ID: "user-1", Name: "Ann", Email: "ann@example.com"}

func newPOFixture(t *testing.T, opts ...PurchaseOrderOption) *poFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)

	f := &poFixture{
		db:        db,
		products:  repository.NewProductRepo(db),
		orders:    repository.NewPurchaseOrderRepo(db),
		movements: repository.NewStockMovementRepo(db),
		hub:       ws.NewHub(nil),
	}
	suppliers := repository.NewSupplierRepo(db)

	f.supplier = &model.Supplier{SoftDelete: model.SoftDelete{Active: true}, Name: "Acme"}
	require.NoError(t, suppliers.Create(ctx, f.supplier))

	f.plain = &model.Product{SoftDelete: model.SoftDelete{Active: true}, SKU: "A-1", Name: "Widget", Stock: 10}
	require.NoError(t, f.products.Create(ctx, f.plain))

	f.shirt = &model.Product{
		SoftDelete:  model.SoftDelete{Active: true},
		SKU:         "B-1",
		Name:        "Shirt",
		HasVariants: true,
		Variants: []model.ProductVariant{
			{Name: "Red-M", Stock: 2, Price: decimal.NewFromInt(50)},
			{Name: "Blue-L", Stock: 0, Price: decimal.NewFromInt(55)},
		},
	}
	require.NoError(t, f.products.Create(ctx, f.shirt))

	clock := func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	all := append([]PurchaseOrderOption{WithClock(clock), WithHub(f.hub)}, opts...)
	f.svc = NewPurchaseOrderService(db, f.orders, f.products, suppliers,
		repository.NewCounterRepo(db), f.movements, all...)
	return f
}

func (f *poFixture) twoLineRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		SupplierID: f.supplier.ID,
		Items: []LineItemInput{
			{ProductID: f.plain.ID, Quantity: 3, UnitCost: decimal.RequireFromString("2.50")},
			{ProductID: f.shirt.ID, Variant: "Red-M", Quantity: 5, UnitCost: decimal.NewFromInt(20)},
		},
		Notes: "restock",
	}
}

func (f *poFixture) stock(t *testing.T, productID uuid.UUID, variant string) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	if variant == "" {
		return p.Stock
	}
	v, ok := p.Variant(variant)
	require.True(t, ok)
	return v.Stock
}

func (f *poFixture) orderedOrder(t *testing.T) *model.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
	require.NoError(t, err)
	order, err = f.svc.RequestTransition(ctx, order.ID, model.POStatusOrdered, actor)
	require.NoError(t, err)
	return order
}

func TestCreateOrder_DraftWithComputedTotals(t *testing.T) {
	f := newPOFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), f.twoLineRequest(), actor)
	require.NoError(t, err)

	assert.Equal(t, "PO-2025-0001", order.OrderNumber)
	assert.Equal(t, model.POStatusDraft, order.Status)
	assert.Empty(t, order.StatusHistory)
	assert.True(t, order.Active)
	assert.Equal(t, actor.ID, order.CreatedBy)
	require.Len(t, order.Items, 2)
	assert.True(t, decimal.RequireFromString("7.50").Equal(order.Items[0].Subtotal))
	assert.True(t, decimal.NewFromInt(100).Equal(order.Items[1].Subtotal))
	assert.True(t, decimal.RequireFromString("107.50").Equal(order.TotalAmount))
	assert.Equal(t, "Widget", order.Items[0].ProductName)
}

func TestCreateOrder_ConsecutiveNumbersInSameYear(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
	require.NoError(t, err)

	assert.Equal(t, "PO-2025-0001", first.OrderNumber)
	assert.Equal(t, "PO-2025-0002", second.OrderNumber)
}

func TestCreateOrder_ContinuesExistingNumbering(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()

	// Orders written before the counter row existed.
	for _, n := range []string{"PO-2025-0001", "PO-2025-0002", "PO-2024-0009"} {
		require.NoError(t, f.orders.Create(ctx, &model.PurchaseOrder{
			SoftDelete: model.SoftDelete{Active: true}, OrderNumber: n, SupplierID: f.supplier.ID,
			OrderDate: time.Now(), Status: model.POStatusDraft,
		}))
	}

	order, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-0003", order.OrderNumber)
}

func TestCreateOrder_VariantOnSimpleProductPersistsNothing(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()

	req := &CreateOrderRequest{
		SupplierID: f.supplier.ID,
		Items:      []LineItemInput{{ProductID: f.plain.ID, Variant: "Red-M", Quantity: 1, UnitCost: decimal.NewFromInt(1)}},
	}
	_, err := f.svc.CreateOrder(ctx, req, actor)

	require.ErrorIs(t, err, ErrVariantMismatch)
	var mismatch *VariantMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, f.plain.ID, mismatch.ProductID)

	all, err := f.orders.FindAll(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateOrder_VariantRules(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()

	cases := map[string]LineItemInput{
		"missing variant on variant product": {ProductID: f.shirt.ID, Quantity: 1},
		"unknown variant":                    {ProductID: f.shirt.ID, Variant: "Green-S", Quantity: 1},
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, &CreateOrderRequest{SupplierID: f.supplier.ID, Items: []LineItemInput{item}}, actor)
			assert.ErrorIs(t, err, ErrVariantMismatch)
		})
	}
}

func TestCreateOrder_NotFoundAndValidation(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, &CreateOrderRequest{
		SupplierID: uuid.New(),
		Items:      []LineItemInput{{ProductID: f.plain.ID, Quantity: 1}},
	}, actor)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CreateOrder(ctx, &CreateOrderRequest{
		SupplierID: f.supplier.ID,
		Items:      []LineItemInput{{ProductID: uuid.New(), Quantity: 1}},
	}, actor)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CreateOrder(ctx, &CreateOrderRequest{
		SupplierID: f.supplier.ID,
		Items:      []LineItemInput{{ProductID: f.plain.ID, Quantity: 0}},
	}, actor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateOrder(ctx, &CreateOrderRequest{
		SupplierID: f.supplier.ID,
		Items:      []LineItemInput{{ProductID: f.plain.ID, Quantity: 1, UnitCost: decimal.NewFromInt(-1)}},
	}, actor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateOrder(ctx, &CreateOrderRequest{SupplierID: f.supplier.ID}, actor)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateOrder_DraftEditsRecomputeTotal(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
	require.NoError(t, err)

	notes := "urgent"
	updated, err := f.svc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{
		Notes: &notes,
		Items: []LineItemInput{{ProductID: f.plain.ID, Quantity: 4, UnitCost: decimal.NewFromInt(5)}},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, "urgent", updated.Notes)
	require.Len(t, updated.Items, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(updated.TotalAmount))
	assert.Equal(t, order.OrderNumber, updated.OrderNumber)

	total := decimal.NewFromInt(99)
	updated, err = f.svc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{TotalAmount: &total}, actor)
	require.NoError(t, err)
	assert.True(t, total.Equal(updated.TotalAmount))
	assert.Len(t, updated.Items, 1)
}

func TestUpdateOrder_ImmutableAfterDraft(t *testing.T) {
	f := newPOFixture(t)
	order := f.orderedOrder(t)

	notes := "too late"
	_, err := f.svc.UpdateOrder(context.Background(), order.ID, &UpdateOrderRequest{Notes: &notes}, actor)
	assert.ErrorIs(t, err, ErrImmutableAfterDraft)

	got, err := f.svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "restock", got.Notes)
}

func TestUpdateOrder_RejectsBadItems(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
	require.NoError(t, err)

	_, err = f.svc.UpdateOrder(ctx, order.ID, &UpdateOrderRequest{
		Items: []LineItemInput{{ProductID: f.shirt.ID, Quantity: 1}},
	}, actor)
	assert.ErrorIs(t, err, ErrVariantMismatch)

	got, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestRequestTransition_ReceivedAppliesStock(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()
	order := f.orderedOrder(t)

	received, err := f.svc.RequestTransition(ctx, order.ID, model.POStatusReceived, Actor{ID: "receiver"})
	require.NoError(t, err)

	assert.Equal(t, 13, f.stock(t, f.plain.ID, ""))
	assert.Equal(t, 7, f.stock(t, f.shirt.ID, "Red-M"))
	assert.Equal(t, 0, f.stock(t, f.shirt.ID, "Blue-L"))
	assert.Equal(t, 0, f.stock(t, f.shirt.ID, ""))

	assert.Equal(t, model.POStatusReceived, received.Status)
	require.NotNil(t, received.ReceivedDate)
	assert.Equal(t, "receiver", received.ReceivedBy)
	require.Len(t, received.StatusHistory, 2)
	last := received.StatusHistory[1]
	assert.Equal(t, model.POStatusOrdered, last.From)
	assert.Equal(t, model.POStatusReceived, last.To)
	assert.Equal(t, "receiver", last.ChangedBy)

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusReceived, stored.Status)
	assert.Equal(t, stored.Status, stored.StatusHistory[len(stored.StatusHistory)-1].To)

	movements, total, err := f.movements.List(ctx, repository.MovementListParams{Reference: order.OrderNumber})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, m := range movements {
		assert.Equal(t, model.MovementIn, m.Type)
	}
}

func TestRequestTransition_OnlyTableEdges(t *testing.T) {
	all := []model.PurchaseOrderStatus{model.POStatusDraft, model.POStatusOrdered, model.POStatusReceived, model.POStatusCancelled, "shipped"}
	paths := map[model.PurchaseOrderStatus][]model.PurchaseOrderStatus{
		model.POStatusDraft:     nil,
		model.POStatusOrdered:   {model.POStatusOrdered},
		model.POStatusReceived:  {model.POStatusOrdered, model.POStatusReceived},
		model.POStatusCancelled: {model.POStatusCancelled},
	}

	for from, path := range paths {
		for _, to := range all {
			if from.CanTransitionTo(to) {
				continue
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				f := newPOFixture(t)
				ctx := context.Background()
				order, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
				require.NoError(t, err)
				for _, step := range path {
					order, err = f.svc.RequestTransition(ctx, order.ID, step, actor)
					require.NoError(t, err)
				}
				before := len(order.StatusHistory)

				_, err = f.svc.RequestTransition(ctx, order.ID, to, actor)
				require.ErrorIs(t, err, ErrInvalidTransition)
				var invalid *InvalidTransitionError
				require.True(t, errors.As(err, &invalid))
				assert.Equal(t, from, invalid.From)
				assert.Equal(t, to, invalid.To)

				after, err := f.svc.GetOrder(ctx, order.ID)
				require.NoError(t, err)
				assert.Equal(t, from, after.Status)
				assert.Len(t, after.StatusHistory, before)
			})
		}
	}
}

func TestRequestTransition_CancelDoesNotTouchStock(t *testing.T) {
	f := newPOFixture(t)
	order := f.orderedOrder(t)

	cancelled, err := f.svc.RequestTransition(context.Background(), order.ID, model.POStatusCancelled, actor)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.ReceivedDate)
	assert.Equal(t, 10, f.stock(t, f.plain.ID, ""))
	assert.Equal(t, 2, f.stock(t, f.shirt.ID, "Red-M"))
}

// Receiving twice must not double the stock: the second call is rejected by the
// transition table, and the receipt ledger would skip already-applied lines anyway.
func TestRequestTransition_ReceivedTwiceDoesNotDoubleIncrement(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()
	order := f.orderedOrder(t)

	_, err := f.svc.RequestTransition(ctx, order.ID, model.POStatusReceived, actor)
	require.NoError(t, err)
	_, err = f.svc.RequestTransition(ctx, order.ID, model.POStatusReceived, actor)
	require.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, 13, f.stock(t, f.plain.ID, ""))
	assert.Equal(t, 7, f.stock(t, f.shirt.ID, "Red-M"))
}

func TestRequestTransition_ReceiptLedgerSkipsAppliedLines(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()
	order := f.orderedOrder(t)

	// Simulate a crashed earlier attempt that applied line 0 and recorded it.
	fresh, err := f.orders.RecordReceipt(ctx, &model.StockReceipt{OrderID: order.ID, LineIndex: 0, ProductID: f.plain.ID, Quantity: 3})
	require.NoError(t, err)
	require.True(t, fresh)
	require.NoError(t, f.products.IncrementStock(ctx, f.plain.ID, "", 3))

	_, err = f.svc.RequestTransition(ctx, order.ID, model.POStatusReceived, actor)
	require.NoError(t, err)

	assert.Equal(t, 13, f.stock(t, f.plain.ID, ""))
	assert.Equal(t, 7, f.stock(t, f.shirt.ID, "Red-M"))
}

func TestRequestTransition_MissingVariantRollsBack(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()
	order := f.orderedOrder(t)

	// The variant disappears between ordering and receiving.
	require.NoError(t, f.db.Where("product_id = ? AND name = ?", f.shirt.ID, "Red-M").Delete(&model.ProductVariant{}).Error)

	_, err := f.svc.RequestTransition(ctx, order.ID, model.POStatusReceived, actor)
	require.ErrorIs(t, err, ErrVariantNotFound)

	// Line 0 was applied before line 1 failed; the whole transaction must be undone.
	assert.Equal(t, 10, f.stock(t, f.plain.ID, ""))
	got, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusOrdered, got.Status)
	assert.Nil(t, got.ReceivedDate)
	assert.Len(t, got.StatusHistory, 1)

	var receipts int64
	require.NoError(t, f.db.Model(&model.StockReceipt{}).Where("order_id = ?", order.ID).Count(&receipts).Error)
	assert.Zero(t, receipts)
}

func TestSoftDelete_HidesOrderButKeepsEffects(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()
	order := f.orderedOrder(t)
	_, err := f.svc.RequestTransition(ctx, order.ID, model.POStatusReceived, actor)
	require.NoError(t, err)

	require.NoError(t, f.svc.SoftDelete(ctx, order.ID, actor))

	active, err := f.svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = f.svc.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.RequestTransition(ctx, order.ID, model.POStatusCancelled, actor)
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusReceived, raw.Status)
	assert.False(t, raw.Active)
	assert.Equal(t, 13, f.stock(t, f.plain.ID, ""))

	withInactive, page, err := f.svc.List(ctx, repository.PurchaseOrderListParams{ListParams: model.ListParams{IncludeInactive: true}})
	require.NoError(t, err)
	assert.Len(t, withInactive, 1)
	assert.EqualValues(t, 1, page.Total)

	assert.ErrorIs(t, f.svc.SoftDelete(ctx, order.ID, actor), ErrNotFound)
}

func TestRequestTransition_BusyWhenLocked(t *testing.T) {
	f := newPOFixture(t, WithLocker(heldLocker{}))
	order, err := f.svc.CreateOrder(context.Background(), f.twoLineRequest(), actor)
	require.NoError(t, err)

	_, err = f.svc.RequestTransition(context.Background(), order.ID, model.POStatusOrdered, actor)
	assert.ErrorIs(t, err, ErrOrderBusy)
}

func TestRequestTransition_PublishesEvents(t *testing.T) {
	f := newPOFixture(t)
	order := f.orderedOrder(t)
	for f.hub.Pending() > 0 {
		f.hub.Next()
	}

	_, err := f.svc.RequestTransition(context.Background(), order.ID, model.POStatusReceived, actor)
	require.NoError(t, err)

	msg, ok := f.hub.Next()
	require.True(t, ok)
	assert.Equal(t, ws.EventPurchaseOrderStatus, msg.Type)
	assert.Equal(t, 2, f.hub.Pending())
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string) (func(), error) {
	return nil, lock.ErrNotAcquired
}

func TestCreateOrder_ContinuesAfterGappedNumbers(t *testing.T) {
	f := newPOFixture(t)
	ctx := context.Background()

	for _, number := range []string{"PO-2025-0001", "PO-2025-0003"} {
		require.NoError(t, f.orders.Create(ctx, &model.PurchaseOrder{
			SoftDelete:    model.SoftDelete{Active: true},
			OrderNumber:   number,
			SupplierID:    f.supplier.ID,
			OrderDate:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			Status:        model.POStatusDraft,
			Items:         datatypes.JSONSlice[model.LineItem]{},
			StatusHistory: datatypes.JSONSlice[model.StatusHistoryEntry]{},
		}))
	}

	first, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-0004", first.OrderNumber)

	second, err := f.svc.CreateOrder(ctx, f.twoLineRequest(), actor)
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-0005", second.OrderNumber)
}
