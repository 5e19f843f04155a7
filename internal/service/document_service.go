package service

import (
	"context"
	"fmt"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/pdf"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Document is a rendered file ready to send.
type Document struct {
	Filename string
	Data     []byte
}

type DocumentService interface {
	PurchaseOrderPDF(ctx context.Context, orderID uuid.UUID) (*Document, error)
	InvoicePDF(ctx context.Context, saleID uuid.UUID) (*Document, error)
}

type documentService struct {
	orders   PurchaseOrderService
	sales    SaleService
	settings SettingService
	renderer pdf.Renderer
	log      *zap.Logger
}

func NewDocumentService(orders PurchaseOrderService, sales SaleService, settings SettingService, renderer pdf.Renderer, log *zap.Logger) DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &documentService{orders: orders, sales: sales, settings: settings, renderer: renderer, log: log.Named("document")}
}

func (s *documentService) PurchaseOrderPDF(ctx context.Context, orderID uuid.UUID) (*Document, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	header, setting, err := s.header(ctx)
	if err != nil {
		return nil, err
	}

	doc := pdf.PurchaseOrderDocument{Header: header, Order: *order}
	if order.Supplier != nil {
		doc.Supplier = *order.Supplier
	}
	html, err := pdf.PurchaseOrderHTML(doc)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, order.OrderNumber, html, setting)
}

func (s *documentService) InvoicePDF(ctx context.Context, saleID uuid.UUID) (*Document, error) {
	sale, err := s.sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	header, setting, err := s.header(ctx)
	if err != nil {
		return nil, err
	}
	html, err := pdf.InvoiceHTML(pdf.InvoiceDocument{Header: header, Sale: *sale})
	if err != nil {
		return nil, err
	}
	return s.render(ctx, sale.InvoiceNumber, html, setting)
}

func (s *documentService) header(ctx context.Context) (pdf.Header, *model.BusinessSetting, error) {
	setting, err := s.settings.Get(ctx)
	if err != nil {
		return pdf.Header{}, nil, err
	}
	var (
		logo        []byte
		contentType string
	)
	if setting.ShowLogo {
		// A missing logo should not block printing.
		if logo, contentType, err = s.settings.Logo(ctx); err != nil {
			s.log.Warn("logo unavailable", zap.Error(err))
			logo = nil
		}
	}
	return pdf.NewHeader(*setting, logo, contentType), setting, nil
}

func (s *documentService) render(ctx context.Context, number, html string, setting *model.BusinessSetting) (*Document, error) {
	data, err := s.renderer.Render(ctx, html, pdf.PageOptions{
		PaperSize:   setting.PaperSize,
		Orientation: setting.Orientation,
		MarginMM:    setting.MarginMM,
	})
	if err != nil {
		return nil, err
	}
	return &Document{Filename: fmt.Sprintf("%s.pdf", number), Data: data}, nil
}
