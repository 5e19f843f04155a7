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

type SaleItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Variant   string    `json:"variant"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
}

type RecordSaleRequest struct {
	Items         []SaleItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=CASH TRANSFER CARD"`
	CustomerName  string          `json:"customer_name" validate:"max=255"`
}

type SaleService interface {
	RecordSale(ctx context.Context, req *RecordSaleRequest, actor Actor) (*model.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ListSales(ctx context.Context, params repository.SaleListParams) ([]model.Sale, model.Pagination, error)
}

type saleService struct {
	db        *gorm.DB
	sales     repository.SaleRepository
	products  repository.ProductRepository
	counters  repository.CounterRepository
	movements repository.StockMovementRepository
	hub       *ws.Hub
	log       *zap.Logger
	now       func() time.Time
}

func NewSaleService(
	db *gorm.DB,
	sales repository.SaleRepository,
	products repository.ProductRepository,
	counters repository.CounterRepository,
	movements repository.StockMovementRepository,
	hub *ws.Hub,
	log *zap.Logger,
) SaleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &saleService{
		db:        db,
		sales:     sales,
		products:  products,
		counters:  counters,
		movements: movements,
		hub:       hub,
		log:       log.Named("sale"),
		now:       time.Now,
	}
}

func FormatInvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq)
}

// RecordSale prices the lines from the catalog, takes them out of stock and stores the invoice
// in one transaction. Any line short on stock aborts the whole sale.
func (s *saleService) RecordSale(ctx context.Context, req *RecordSaleRequest, actor Actor) (*model.Sale, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	items, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	sale := &model.Sale{
		SoftDelete:    model.SoftDelete{Active: true},
		SaleDate:      now,
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
		Status:        model.SaleStatusCompleted,
		TotalAmount:   total,
		Items:         datatypes.JSONSlice[model.SaleItem](items),
	}
	sale.CreatedBy = actor.ID
	sale.UpdatedBy = actor.ID

	movements := make([]*model.StockMovement, 0, len(items))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sales := s.sales.WithTx(tx)
		products := s.products.WithTx(tx)
		year := now.Year()

		seq, err := s.counters.WithTx(tx).Next(ctx, repository.ScopeInvoice, year, func() (int64, error) {
			return sales.MaxSequence(ctx, year)
		})
		if err != nil {
			return fmt.Errorf("next invoice number: %w", err)
		}
		sale.InvoiceNumber = FormatInvoiceNumber(year, seq)

		for i, it := range items {
			if err := products.DecrementStock(ctx, it.ProductID, it.Variant, it.Quantity); err != nil {
				return fromRepo(err, fmt.Sprintf("%s %q (line %d)", it.ProductName, it.Variant, i+1))
			}
			m := &model.StockMovement{
				ProductID: it.ProductID,
				Variant:   it.Variant,
				Type:      model.MovementOut,
				Quantity:  it.Quantity,
				Reference: sale.InvoiceNumber,
				Note:      "sale",
			}
			m.CreatedBy = actor.ID
			m.UpdatedBy = actor.ID
			movements = append(movements, m)
		}
		if err := s.movements.WithTx(tx).Create(ctx, movements...); err != nil {
			return fmt.Errorf("log stock movements: %w", err)
		}

		if err := sales.Create(ctx, sale); err != nil {
			if repository.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, sale.InvoiceNumber)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.log.Warn("record sale failed", zap.String("actor", actor.ID), zap.Error(err))
		return nil, err
	}

	s.log.Info("sale recorded",
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.String("total", sale.TotalAmount.StringFixed(2)),
		zap.String("actor", actor.ID),
	)
	s.hub.Publish(ws.EventSaleRecorded, map[string]any{
		"id":             sale.ID,
		"invoice_number": sale.InvoiceNumber,
		"total_amount":   sale.TotalAmount,
		"user":           actorPayload(actor),
	})
	for _, m := range movements {
		s.hub.Publish(ws.EventStockUpdate, map[string]any{
			"action":     "sale",
			"product_id": m.ProductID,
			"variant":    m.Variant,
			"delta":      -m.Quantity,
			"reference":  m.Reference,
			"user":       actorPayload(actor),
		})
	}
	return sale, nil
}

func (s *saleService) priceItems(ctx context.Context, inputs []SaleItemInput) ([]model.SaleItem, error) {
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

	items := make([]model.SaleItem, 0, len(inputs))
	for _, in := range inputs {
		product, ok := byID[in.ProductID]
		if !ok || !product.Active {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, in.ProductID)
		}
		if err := checkVariant(product, in.Variant); err != nil {
			return nil, err
		}
		price := product.UnitPrice(in.Variant)
		items = append(items, model.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Variant:     in.Variant,
			Quantity:    in.Quantity,
			UnitPrice:   price,
			Subtotal:    price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		})
	}
	return items, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "sale "+id.String())
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, params repository.SaleListParams) ([]model.Sale, model.Pagination, error) {
	sales, total, err := s.sales.List(ctx, params)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return sales, model.NewPagination(params.ListParams, total), nil
}
