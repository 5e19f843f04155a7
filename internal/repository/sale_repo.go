package repository

import (
	"context"
	"fmt"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSaleNotFound = fmt.Errorf("sale %w", ErrNotFound)

type SaleListParams struct {
	model.ListParams
	From *time.Time
	To   *time.Time
}

type SaleRepository interface {
	WithTx(tx *gorm.DB) SaleRepository
	Create(ctx context.Context, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, params SaleListParams) ([]model.Sale, int64, error)
	MaxSequence(ctx context.Context, year int) (int64, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) WithTx(tx *gorm.DB) SaleRepository {
	return &saleRepo{tx}
}

func (r *saleRepo) Create(ctx context.Context, sale *model.Sale) error {
	return translate(r.db.WithContext(ctx).Create(sale).Error, ErrSaleNotFound)
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, translate(err, ErrSaleNotFound)
	}
	return &sale, nil
}

func (r *saleRepo) List(ctx context.Context, params SaleListParams) ([]model.Sale, int64, error) {
	var (
		sales []model.Sale
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Sale{}).
		Scopes(activeOnly(params.IncludeInactive), searchColumns(params.Search, "invoice_number", "customer_name"))
	if params.From != nil {
		q = q.Where("sale_date >= ?", *params.From)
	}
	if params.To != nil {
		q = q.Where("sale_date < ?", *params.To)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Scopes(paginate(params.ListParams)).Order("sale_date DESC").Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) MaxSequence(ctx context.Context, year int) (int64, error) {
	return maxSequence(r.db.WithContext(ctx), &model.Sale{}, "invoice_number", fmt.Sprintf("INV-%d-", year))
}
