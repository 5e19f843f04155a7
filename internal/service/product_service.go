package service

import (
	"context"
	"fmt"
	"time"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AdjustmentReference marks movements entered by hand rather than by a document.
const AdjustmentReference = "ADJUSTMENT"

type VariantInput struct {
	Name       string          `json:"name" validate:"required,max=100"`
	SKU        string          `json:"sku" validate:"max=50"`
	Price      decimal.Decimal `json:"price" validate:"dec_gte0"`
	Stock      int             `json:"stock" validate:"gte=0"`
	Attributes map[string]any  `json:"attributes"`
}

type ProductRequest struct {
	SKU         string          `json:"sku" validate:"required,max=50"`
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Unit        string          `json:"unit" validate:"max=20"`
	Price       decimal.Decimal `json:"price" validate:"dec_gte0"`
	Cost        decimal.Decimal `json:"cost" validate:"dec_gte0"`
	MinStock    int             `json:"min_stock" validate:"gte=0"`
	// Stock is the opening quantity of a simple product; ignored on update.
	Stock       int            `json:"stock" validate:"gte=0"`
	HasVariants bool           `json:"has_variants"`
	BrandID     *uuid.UUID     `json:"brand_id"`
	CategoryID  *uuid.UUID     `json:"category_id"`
	Variants    []VariantInput `json:"variants" validate:"omitempty,dive"`
}

type StockAdjustmentRequest struct {
	ProductID uuid.UUID          `json:"product_id" validate:"uuid_required"`
	Variant   string             `json:"variant"`
	Type      model.MovementType `json:"type" validate:"required,oneof=IN OUT"`
	Quantity  int                `json:"quantity" validate:"gte=1"`
	Note      string             `json:"note"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, params repository.ProductListParams) ([]model.Product, model.Pagination, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error
	AdjustStock(ctx context.Context, req *StockAdjustmentRequest, actor Actor) (*model.StockMovement, error)
	ListMovements(ctx context.Context, params repository.MovementListParams) ([]model.StockMovement, model.Pagination, error)
}

type productService struct {
	db         *gorm.DB
	products   repository.ProductRepository
	movements  repository.StockMovementRepository
	brands     repository.CatalogRepository[model.Brand]
	categories repository.CatalogRepository[model.Category]
	hub        *ws.Hub
	log        *zap.Logger
}

func NewProductService(
	db *gorm.DB,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	brands repository.CatalogRepository[model.Brand],
	categories repository.CatalogRepository[model.Category],
	hub *ws.Hub,
	log *zap.Logger,
) ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &productService{
		db:         db,
		products:   products,
		movements:  movements,
		brands:     brands,
		categories: categories,
		hub:        hub,
		log:        log.Named("product"),
	}
}

func (s *productService) CreateProduct(ctx context.Context, req *ProductRequest, actor Actor) (*model.Product, error) {
	if err := s.check(ctx, req); err != nil {
		return nil, err
	}
	if existing, _ := s.products.FindBySKU(ctx, req.SKU); existing != nil {
		return nil, fmt.Errorf("%w: SKU %s", ErrConflict, req.SKU)
	}

	product := &model.Product{
		SoftDelete:  model.SoftDelete{Active: true},
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		Price:       req.Price,
		Cost:        req.Cost,
		MinStock:    req.MinStock,
		HasVariants: req.HasVariants,
		BrandID:     req.BrandID,
		CategoryID:  req.CategoryID,
		Variants:    buildVariants(req.Variants, actor, true),
	}
	if !req.HasVariants {
		product.Stock = req.Stock
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fromRepo(err, "SKU "+req.SKU)
	}

	s.log.Info("product created", zap.String("sku", product.SKU), zap.String("actor", actor.ID))
	s.hub.Publish(ws.EventStockUpdate, map[string]any{
		"action":  "product_created",
		"product": productPayload(product),
		"user":    actorPayload(actor),
		"message": fmt.Sprintf("%s created product '%s'", actor.Name, product.Name),
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest, actor Actor) (*model.Product, error) {
	if err := s.check(ctx, req); err != nil {
		return nil, err
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	// Switching modes would strand stock on the side that stops being counted.
	if product.HasVariants != req.HasVariants {
		return nil, validationFailed("has_variants cannot change after creation")
	}
	if product.SKU != req.SKU {
		if existing, _ := s.products.FindBySKU(ctx, req.SKU); existing != nil {
			return nil, fmt.Errorf("%w: SKU %s", ErrConflict, req.SKU)
		}
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.Description = req.Description
	product.Unit = req.Unit
	product.Price = req.Price
	product.Cost = req.Cost
	product.MinStock = req.MinStock
	product.BrandID, product.Brand = req.BrandID, nil
	product.CategoryID, product.Category = req.CategoryID, nil
	product.Variants = buildVariants(req.Variants, actor, false)
	product.UpdatedBy = actor.ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.products.WithTx(tx).Update(ctx, product)
	})
	if err != nil {
		return nil, fromRepo(err, "SKU "+req.SKU)
	}

	updated, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(ws.EventStockUpdate, map[string]any{
		"action":  "product_updated",
		"product": productPayload(updated),
		"user":    actorPayload(actor),
		"message": fmt.Sprintf("%s updated product '%s'", actor.Name, updated.Name),
	})
	return updated, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "product "+id.String())
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, params repository.ProductListParams) ([]model.Product, model.Pagination, error) {
	products, total, err := s.products.List(ctx, params)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return products, model.NewPagination(params.ListParams, total), nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uuid.UUID, actor Actor) error {
	if err := s.products.SoftDelete(ctx, id, actor.ID, time.Now()); err != nil {
		return fromRepo(err, "product "+id.String())
	}
	s.log.Info("product deactivated", zap.String("product_id", id.String()), zap.String("actor", actor.ID))
	return nil
}

// AdjustStock applies a manual IN or OUT and logs it. OUT never drives stock negative.
func (s *productService) AdjustStock(ctx context.Context, req *StockAdjustmentRequest, actor Actor) (*model.StockMovement, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkVariant(product, req.Variant); err != nil {
		return nil, err
	}

	movement := &model.StockMovement{
		ProductID: product.ID,
		Variant:   req.Variant,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Reference: AdjustmentReference,
		Note:      req.Note,
	}
	movement.CreatedBy = actor.ID
	movement.UpdatedBy = actor.ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		var err error
		if req.Type == model.MovementIn {
			err = products.IncrementStock(ctx, product.ID, req.Variant, req.Quantity)
		} else {
			err = products.DecrementStock(ctx, product.ID, req.Variant, req.Quantity)
		}
		if err != nil {
			return fromRepo(err, fmt.Sprintf("%s %q", product.SKU, req.Variant))
		}
		return s.movements.WithTx(tx).Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("stock adjusted",
		zap.String("sku", product.SKU),
		zap.String("variant", req.Variant),
		zap.String("type", string(req.Type)),
		zap.Int("quantity", req.Quantity),
		zap.String("actor", actor.ID),
	)
	verb := "added"
	if req.Type == model.MovementOut {
		verb = "removed"
	}
	s.hub.Publish(ws.EventStockUpdate, map[string]any{
		"action":     "stock_adjusted",
		"product_id": product.ID,
		"variant":    req.Variant,
		"type":       req.Type,
		"quantity":   req.Quantity,
		"user":       actorPayload(actor),
		"message":    fmt.Sprintf("%s %s %d units of '%s' (%s)", actor.Name, verb, req.Quantity, product.Name, req.Type),
	})
	return movement, nil
}

func (s *productService) ListMovements(ctx context.Context, params repository.MovementListParams) ([]model.StockMovement, model.Pagination, error) {
	movements, total, err := s.movements.List(ctx, params)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return movements, model.NewPagination(params.ListParams, total), nil
}

// check validates shape, variant rules and references before anything is written.
func (s *productService) check(ctx context.Context, req *ProductRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	if req.HasVariants && len(req.Variants) == 0 {
		return validationFailed("a product with variants needs at least one variant")
	}
	if !req.HasVariants && len(req.Variants) > 0 {
		return validationFailed("variants given for a product without variants")
	}
	seen := make(map[string]bool, len(req.Variants))
	for _, v := range req.Variants {
		if seen[v.Name] {
			return validationFailed(fmt.Sprintf("duplicate variant name %q", v.Name))
		}
		seen[v.Name] = true
	}

	if req.BrandID != nil {
		brand, err := s.brands.FindByID(ctx, *req.BrandID)
		if err != nil || !brand.Active {
			return fmt.Errorf("%w: brand %s", ErrNotFound, req.BrandID)
		}
	}
	if req.CategoryID != nil {
		category, err := s.categories.FindByID(ctx, *req.CategoryID)
		if err != nil || !category.Active {
			return fmt.Errorf("%w: category %s", ErrNotFound, req.CategoryID)
		}
	}
	return nil
}

func buildVariants(inputs []VariantInput, actor Actor, withStock bool) []model.ProductVariant {
	variants := make([]model.ProductVariant, 0, len(inputs))
	for _, in := range inputs {
		v := model.ProductVariant{
			Name:       in.Name,
			SKU:        in.SKU,
			Price:      in.Price,
			Attributes: datatypes.JSONMap(in.Attributes),
		}
		if withStock {
			v.Stock = in.Stock
		}
		v.CreatedBy = actor.ID
		v.UpdatedBy = actor.ID
		variants = append(variants, v)
	}
	return variants
}

func productPayload(p *model.Product) map[string]any {
	return map[string]any{
		"id":    p.ID,
		"sku":   p.SKU,
		"name":  p.Name,
		"stock": p.TotalStock(),
		"price": p.Price,
	}
}
