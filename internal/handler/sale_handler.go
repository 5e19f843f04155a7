package handler

import (
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	service   service.SaleService
	documents service.DocumentService
}

func NewSaleHandler(s service.SaleService, documents service.DocumentService) *SaleHandler {
	return &SaleHandler{service: s, documents: documents}
}

// RecordSale handles POST /sales
func (h *SaleHandler) RecordSale(c *fiber.Ctx) error {
	var req service.RecordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	sale, err := h.service.RecordSale(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Sale recorded", "data": sale})
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	sale, err := h.service.GetSale(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sale})
}

// ListSales handles GET /sales?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *SaleHandler) ListSales(c *fiber.Ctx) error {
	from, err := queryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return err
	}
	sales, pagination, err := h.service.ListSales(c.UserContext(), repository.SaleListParams{
		ListParams: listParams(c),
		From:       from,
		To:         to,
	})
	if err != nil {
		return err
	}
	return c.JSON(page(sales, pagination))
}

// DownloadInvoice handles GET /sales/:id/invoice
func (h *SaleHandler) DownloadInvoice(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	doc, err := h.documents.InvoicePDF(c.UserContext(), id)
	if err != nil {
		return err
	}
	return sendDocument(c, doc)
}
