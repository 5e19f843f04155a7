package repository

import (
	"context"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogEntity is any soft-deletable reference record listed by name.
type CatalogEntity interface {
	model.Brand | model.Category | model.Supplier
}

// CatalogRepository is the shared store behind brands, categories and suppliers.
type CatalogRepository[T CatalogEntity] interface {
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, params model.ListParams) ([]T, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor string, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

type catalogRepo[T CatalogEntity] struct {
	db           *gorm.DB
	searchFields []string
}

func NewBrandRepo(db *gorm.DB) CatalogRepository[model.Brand] {
	return &catalogRepo[model.Brand]{db: db, searchFields: []string{"name"}}
}

func NewCategoryRepo(db *gorm.DB) CatalogRepository[model.Category] {
	return &catalogRepo[model.Category]{db: db, searchFields: []string{"name"}}
}

func NewSupplierRepo(db *gorm.DB) CatalogRepository[model.Supplier] {
	return &catalogRepo[model.Supplier]{db: db, searchFields: []string{"name", "contact_person", "email"}}
}

func (r *catalogRepo[T]) Create(ctx context.Context, entity *T) error {
	return translate(r.db.WithContext(ctx).Create(entity).Error, ErrNotFound)
}

func (r *catalogRepo[T]) Update(ctx context.Context, entity *T) error {
	return translate(r.db.WithContext(ctx).Save(entity).Error, ErrNotFound)
}

func (r *catalogRepo[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return &entity, nil
}

func (r *catalogRepo[T]) List(ctx context.Context, params model.ListParams) ([]T, int64, error) {
	var (
		items []T
		total int64
	)
	q := r.db.WithContext(ctx).Model(new(T)).
		Scopes(activeOnly(params.IncludeInactive), searchColumns(params.Search, r.searchFields...))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Scopes(paginate(params)).Order("name ASC").Find(&items).Error
	return items, total, err
}

func (r *catalogRepo[T]) SoftDelete(ctx context.Context, id uuid.UUID, actor string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(new(T)).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{"active": false, "deleted_at": at, "deleted_by": actor})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *catalogRepo[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("active = ?", true).Count(&count).Error
	return count, err
}
