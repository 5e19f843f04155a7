package service

import (
	"context"
	"fmt"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService manages brands, categories and suppliers.
type CatalogService[T repository.CatalogEntity] interface {
	Create(ctx context.Context, entity *T, actor Actor) (*T, error)
	Update(ctx context.Context, id uuid.UUID, entity *T, actor Actor) (*T, error)
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, params model.ListParams) ([]T, model.Pagination, error)
	Delete(ctx context.Context, id uuid.UUID, actor Actor) error
}

type catalogRecord[T any] interface {
	*T
	Audit() *model.BaseModel
	State() *model.SoftDelete
}

type catalogService[T repository.CatalogEntity, P catalogRecord[T]] struct {
	repo repository.CatalogRepository[T]
	kind string
	log  *zap.Logger
}

func NewBrandService(repo repository.CatalogRepository[model.Brand], log *zap.Logger) CatalogService[model.Brand] {
	return newCatalogService[model.Brand, *model.Brand](repo, "brand", log)
}

func NewCategoryService(repo repository.CatalogRepository[model.Category], log *zap.Logger) CatalogService[model.Category] {
	return newCatalogService[model.Category, *model.Category](repo, "category", log)
}

func NewSupplierService(repo repository.CatalogRepository[model.Supplier], log *zap.Logger) CatalogService[model.Supplier] {
	return newCatalogService[model.Supplier, *model.Supplier](repo, "supplier", log)
}

func newCatalogService[T repository.CatalogEntity, P catalogRecord[T]](repo repository.CatalogRepository[T], kind string, log *zap.Logger) *catalogService[T, P] {
	if log == nil {
		log = zap.NewNop()
	}
	return &catalogService[T, P]{repo: repo, kind: kind, log: log.Named(kind)}
}

func (s *catalogService[T, P]) Create(ctx context.Context, entity *T, actor Actor) (*T, error) {
	if err := validate(entity); err != nil {
		return nil, err
	}
	audit := P(entity).Audit()
	audit.ID = uuid.Nil
	audit.CreatedBy = actor.ID
	audit.UpdatedBy = actor.ID
	*P(entity).State() = model.SoftDelete{Active: true}

	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, fromRepo(err, s.kind)
	}
	s.log.Info(s.kind+" created", zap.String("id", audit.ID.String()), zap.String("actor", actor.ID))
	return entity, nil
}

func (s *catalogService[T, P]) Update(ctx context.Context, id uuid.UUID, entity *T, actor Actor) (*T, error) {
	if err := validate(entity); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := P(current).Audit()
	audit := P(entity).Audit()
	audit.ID = prev.ID
	audit.CreatedAt = prev.CreatedAt
	audit.CreatedBy = prev.CreatedBy
	audit.UpdatedBy = actor.ID
	*P(entity).State() = *P(current).State()

	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, fromRepo(err, s.kind)
	}
	return entity, nil
}

func (s *catalogService[T, P]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	entity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, s.kind+" "+id.String())
	}
	if !P(entity).State().Active {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, s.kind, id)
	}
	return entity, nil
}

func (s *catalogService[T, P]) List(ctx context.Context, params model.ListParams) ([]T, model.Pagination, error) {
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return items, model.NewPagination(params, total), nil
}

func (s *catalogService[T, P]) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	if err := s.repo.SoftDelete(ctx, id, actor.ID, time.Now()); err != nil {
		return fromRepo(err, s.kind+" "+id.String())
	}
	s.log.Info(s.kind+" deactivated", zap.String("id", id.String()), zap.String("actor", actor.ID))
	return nil
}
