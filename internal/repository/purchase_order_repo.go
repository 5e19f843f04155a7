package repository

import (
	"context"
	"fmt"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPurchaseOrderNotFound = fmt.Errorf("purchase order %w", ErrNotFound)

type PurchaseOrderListParams struct {
	model.ListParams
	Status     model.PurchaseOrderStatus
	SupplierID *uuid.UUID
}

// PurchaseOrderRepository stores order documents with their items and history embedded.
type PurchaseOrderRepository interface {
	WithTx(tx *gorm.DB) PurchaseOrderRepository

	// FindByID returns the order whether or not it is active; callers decide.
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	// FindByIDForUpdate also takes a row lock on databases that support one.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	Create(ctx context.Context, order *model.PurchaseOrder) error
	Save(ctx context.Context, order *model.PurchaseOrder) error
	MaxSequence(ctx context.Context, year int) (int64, error)
	List(ctx context.Context, params PurchaseOrderListParams) ([]model.PurchaseOrder, int64, error)
	FindAll(ctx context.Context, includeInactive bool) ([]model.PurchaseOrder, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor string, at time.Time) error
	// RecordReceipt marks one line as applied to stock. It returns false when the line was already recorded.
	RecordReceipt(ctx context.Context, receipt *model.StockReceipt) (bool, error)
	CountOpen(ctx context.Context) (int64, error)
}

type purchaseOrderRepo struct {
	db *gorm.DB
}

func NewPurchaseOrderRepo(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db}
}

func (r *purchaseOrderRepo) WithTx(tx *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{tx}
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	return r.find(r.db.WithContext(ctx).Preload("Supplier"), id)
}

func (r *purchaseOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *purchaseOrderRepo) find(db *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := db.First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err, ErrPurchaseOrderNotFound)
	}
	return &order, nil
}

func (r *purchaseOrderRepo) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error, ErrPurchaseOrderNotFound)
}

// Save writes the whole document back, items and history included.
func (r *purchaseOrderRepo) Save(ctx context.Context, order *model.PurchaseOrder) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error, ErrPurchaseOrderNotFound)
}

// MaxSequence returns the highest order sequence used in year, inactive orders included.
func (r *purchaseOrderRepo) MaxSequence(ctx context.Context, year int) (int64, error) {
	return maxSequence(r.db.WithContext(ctx), &model.PurchaseOrder{}, "order_number", fmt.Sprintf("PO-%d-", year))
}

func (r *purchaseOrderRepo) List(ctx context.Context, params PurchaseOrderListParams) ([]model.PurchaseOrder, int64, error) {
	var (
		orders []model.PurchaseOrder
		total  int64
	)

	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Scopes(activeOnly(params.IncludeInactive), searchColumns(params.Search, "order_number", "notes"))
	if params.Status != "" {
		q = q.Where("status = ?", params.Status)
	}
	if params.SupplierID != nil {
		q = q.Where("supplier_id = ?", *params.SupplierID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Scopes(paginate(params.ListParams)).
		Preload("Supplier").
		Order("created_at DESC").Order("order_number DESC").
		Find(&orders).Error
	return orders, total, err
}

func (r *purchaseOrderRepo) FindAll(ctx context.Context, includeInactive bool) ([]model.PurchaseOrder, error) {
	var orders []model.PurchaseOrder
	err := r.db.WithContext(ctx).Scopes(activeOnly(includeInactive)).
		Order("created_at DESC").Order("order_number DESC").
		Find(&orders).Error
	return orders, err
}

func (r *purchaseOrderRepo) SoftDelete(ctx context.Context, id uuid.UUID, actor string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("id = ? AND active = ?", id, true).
		UpdateColumns(map[string]any{"active": false, "deleted_at": at, "deleted_by": actor})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPurchaseOrderNotFound
	}
	return nil
}

func (r *purchaseOrderRepo) RecordReceipt(ctx context.Context, receipt *model.StockReceipt) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "line_index"}},
			DoNothing: true,
		}).
		Create(receipt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *purchaseOrderRepo) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("active = ? AND status IN ?", true, []model.PurchaseOrderStatus{model.POStatusDraft, model.POStatusOrdered}).
		Count(&count).Error
	return count, err
}
