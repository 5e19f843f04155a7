package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newOrder(number string, status model.PurchaseOrderStatus) *model.PurchaseOrder {
	return &model.PurchaseOrder{
		SoftDelete:  model.SoftDelete{Active: true},
		OrderNumber: number,
		SupplierID:  uuid.New(),
		OrderDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:      status,
		TotalAmount: decimal.RequireFromString("30.00"),
		Items: datatypes.JSONSlice[model.LineItem]{
			{ProductID: uuid.New(), Quantity: 3, UnitCost: decimal.NewFromInt(10), Subtotal: decimal.NewFromInt(30)},
		},
		StatusHistory: datatypes.JSONSlice[model.StatusHistoryEntry]{},
	}
}

func TestPurchaseOrderRepo_RoundTripsEmbeddedDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewPurchaseOrderRepo(testutil.NewDB(t))

	order := newOrder("PO-2025-0001", model.POStatusDraft)
	require.NoError(t, repo.Create(ctx, order))

	order.Status = model.POStatusOrdered
	order.StatusHistory = append(order.StatusHistory, model.StatusHistoryEntry{
		From: model.POStatusDraft, To: model.POStatusOrdered, ChangedBy: "u1", ChangedAt: time.Now().UTC(),
	})
	require.NoError(t, repo.Save(ctx, order))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusOrdered, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(30).Equal(got.Items[0].Subtotal))
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, model.POStatusOrdered, got.StatusHistory[0].To)
}

func TestPurchaseOrderRepo_FindByID_NotFound(t *testing.T) {
	repo := NewPurchaseOrderRepo(testutil.NewDB(t))
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPurchaseOrderNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurchaseOrderRepo_MaxSequence(t *testing.T) {
	ctx := context.Background()
	repo := NewPurchaseOrderRepo(testutil.NewDB(t))

	highest, err := repo.MaxSequence(ctx, 2025)
	require.NoError(t, err)
	assert.EqualValues(t, 0, highest)

	for _, n := range []string{"PO-2024-0009", "PO-2025-0001", "PO-2025-0003"} {
		require.NoError(t, repo.Create(ctx, newOrder(n, model.POStatusDraft)))
	}
	deleted := newOrder("PO-2025-0012", model.POStatusCancelled)
	require.NoError(t, repo.Create(ctx, deleted))
	require.NoError(t, repo.SoftDelete(ctx, deleted.ID, "admin", time.Now()))

	highest, err = repo.MaxSequence(ctx, 2025)
	require.NoError(t, err)
	assert.EqualValues(t, 12, highest)

	highest, err = repo.MaxSequence(ctx, 2024)
	require.NoError(t, err)
	assert.EqualValues(t, 9, highest)
}

func TestPurchaseOrderRepo_ListAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewPurchaseOrderRepo(testutil.NewDB(t))
	a := newOrder("PO-2025-0001", model.POStatusDraft)
	b := newOrder("PO-2025-0002", model.POStatusOrdered)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.SoftDelete(ctx, a.ID, "admin", time.Now()))

	active, total, err := repo.List(ctx, PurchaseOrderListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ID, active[0].ID)

	_, total, err = repo.List(ctx, PurchaseOrderListParams{ListParams: model.ListParams{IncludeInactive: true}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	ordered, _, err := repo.List(ctx, PurchaseOrderListParams{Status: model.POStatusOrdered, ListParams: model.ListParams{IncludeInactive: true}})
	require.NoError(t, err)
	require.Len(t, ordered, 1)

	deleted, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, deleted.Active)
	assert.Equal(t, "admin", deleted.DeletedBy)
	assert.Equal(t, model.POStatusDraft, deleted.Status)
}

func TestPurchaseOrderRepo_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewPurchaseOrderRepo(testutil.NewDB(t))
	require.NoError(t, repo.Create(ctx, newOrder("PO-2025-0001", model.POStatusDraft)))

	err := repo.Create(ctx, newOrder("PO-2025-0001", model.POStatusDraft))
	assert.True(t, IsUniqueViolation(err))
}

func TestPurchaseOrderRepo_RecordReceiptIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewPurchaseOrderRepo(testutil.NewDB(t))
	orderID := uuid.New()

	first, err := repo.RecordReceipt(ctx, &model.StockReceipt{OrderID: orderID, LineIndex: 0, ProductID: uuid.New(), Quantity: 3})
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.RecordReceipt(ctx, &model.StockReceipt{OrderID: orderID, LineIndex: 0, ProductID: uuid.New(), Quantity: 3})
	require.NoError(t, err)
	assert.False(t, again)

	other, err := repo.RecordReceipt(ctx, &model.StockReceipt{OrderID: orderID, LineIndex: 1, ProductID: uuid.New(), Quantity: 1})
	require.NoError(t, err)
	assert.True(t, other)
}

func TestCounterRepo_Next(t *testing.T) {
	ctx := context.Background()
	repo := NewCounterRepo(testutil.NewDB(t))

	seeds := 0
	seed := func() (int64, error) { seeds++; return 7, nil }

	n, err := repo.Next(ctx, ScopePurchaseOrder, 2025, seed)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = repo.Next(ctx, ScopePurchaseOrder, 2025, seed)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, 1, seeds)

	n, err = repo.Next(ctx, ScopeInvoice, 2025, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.Next(ctx, ScopePurchaseOrder, 2026, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCounterRepo_SeedError(t *testing.T) {
	repo := NewCounterRepo(testutil.NewDB(t))
	boom := errors.New("boom")
	_, err := repo.Next(context.Background(), ScopePurchaseOrder, 2025, func() (int64, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("other")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

// The postgres dialector surfaces a raw *pgconn.PgError when TranslateError is off.
func TestPurchaseOrderRepo_Save_PostgresUniqueViolation(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE "purchase_orders" SET`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_purchase_orders_order_number"})

	order := newOrder("PO-2025-0001", model.POStatusDraft)
	order.ID = uuid.New()
	err = NewPurchaseOrderRepo(db).Save(context.Background(), order)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.True(t, IsUniqueViolation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
