package repository

import (
	"context"
	"errors"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductListParams struct {
	model.ListParams
	BrandID    *uuid.UUID
	CategoryID *uuid.UUID
	LowStock   bool
}

// ProductRepository is the catalog store and the inventory ledger.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository

	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, params ProductListParams) ([]model.Product, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor string, at time.Time) error

	// IncrementStock adds amount to the named variant, or to the product itself when variant is "".
	IncrementStock(ctx context.Context, productID uuid.UUID, variant string, amount int) error
	// DecrementStock subtracts amount, failing with ErrInsufficientStock rather than going negative.
	DecrementStock(ctx context.Context, productID uuid.UUID, variant string, amount int) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error, ErrProductNotFound)
}

// Update saves the product columns and reconciles variants by name. Variant stock is never
// written here; it only moves through the ledger methods.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	db := r.db.WithContext(ctx)

	err := db.Model(&model.Product{}).Where("id = ?", product.ID).Select(
		"sku", "name", "description", "unit", "price", "cost", "min_stock", "brand_id", "category_id", "updated_by", "updated_at",
	).Updates(product).Error
	if err != nil {
		return translate(err, ErrProductNotFound)
	}
	if !product.HasVariants {
		return nil
	}

	keep := make([]string, 0, len(product.Variants))
	for i := range product.Variants {
		v := &product.Variants[i]
		v.ProductID = product.ID
		keep = append(keep, v.Name)

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"sku", "price", "attributes", "updated_by", "updated_at"}),
		}).Omit("stock").Create(v).Error
		if err != nil {
			return translate(err, ErrProductNotFound)
		}
	}

	return db.Where("product_id = ? AND name NOT IN ?", product.ID, keep).Delete(&model.ProductVariant{}).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Brand").Preload("Category").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, ErrProductNotFound)
	}
	return &product, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Preload("Variants").Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Variants").First(&product, "sku = ?", sku).Error; err != nil {
		return nil, translate(err, ErrProductNotFound)
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, params ProductListParams) ([]model.Product, int64, error) {
	var (
		products []model.Product
		total    int64
	)

	q := r.db.WithContext(ctx).Model(&model.Product{}).
		Scopes(activeOnly(params.IncludeInactive), searchColumns(params.Search, "name", "sku"))
	if params.BrandID != nil {
		q = q.Where("brand_id = ?", *params.BrandID)
	}
	if params.CategoryID != nil {
		q = q.Where("category_id = ?", *params.CategoryID)
	}
	if params.LowStock {
		q = q.Where(lowStockCondition, false, true)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Scopes(paginate(params.ListParams)).
		Preload("Variants").Preload("Brand").Preload("Category").
		Order("name ASC").
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID, actor string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{"active": false, "deleted_at": at, "deleted_by": actor})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepo) IncrementStock(ctx context.Context, productID uuid.UUID, variant string, amount int) error {
	return r.applyDelta(ctx, productID, variant, gorm.Expr("stock + ?", amount), nil)
}

func (r *productRepo) DecrementStock(ctx context.Context, productID uuid.UUID, variant string, amount int) error {
	guard := func(db *gorm.DB) *gorm.DB { return db.Where("stock >= ?", amount) }
	return r.applyDelta(ctx, productID, variant, gorm.Expr("stock - ?", amount), guard)
}

// applyDelta runs a single conditional UPDATE so concurrent writers never lose increments.
func (r *productRepo) applyDelta(ctx context.Context, productID uuid.UUID, variant string, expr clause.Expr, guard func(*gorm.DB) *gorm.DB) error {
	db := r.db.WithContext(ctx)

	var q *gorm.DB
	if variant == "" {
		q = db.Model(&model.Product{}).Where("id = ?", productID)
	} else {
		q = db.Model(&model.ProductVariant{}).Where("product_id = ? AND name = ?", productID, variant)
	}
	if guard != nil {
		q = q.Scopes(guard)
	}

	res := q.UpdateColumn("stock", expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.missReason(db, productID, variant, guard != nil)
}

// missReason explains why a stock UPDATE matched no row.
func (r *productRepo) missReason(db *gorm.DB, productID uuid.UUID, variant string, guarded bool) error {
	var count int64
	if err := db.Model(&model.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrProductNotFound
	}
	if variant != "" {
		if err := db.Model(&model.ProductVariant{}).
			Where("product_id = ? AND name = ?", productID, variant).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrVariantNotFound
		}
	}
	if guarded {
		return ErrInsufficientStock
	}
	return errors.New("stock update affected no rows")
}

// A simple product is low when stock <= min_stock; a variant product when any variant is.
const lowStockCondition = `(has_variants = ? AND stock <= min_stock) OR
	(has_variants = ? AND EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = products.id AND pv.stock <= products.min_stock))`
