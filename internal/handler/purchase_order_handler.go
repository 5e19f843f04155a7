package handler

import (
	"go-inventory-pos/internal/middleware"
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PurchaseOrderHandler struct {
	service   service.PurchaseOrderService
	documents service.DocumentService
}

func NewPurchaseOrderHandler(s service.PurchaseOrderService, documents service.DocumentService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{service: s, documents: documents}
}

type transitionRequest struct {
	Status model.PurchaseOrderStatus `json:"status"`
}

// CreateOrder handles POST /purchase-orders
func (h *PurchaseOrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	order, err := h.service.CreateOrder(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Purchase order created", "data": order})
}

// ListOrders handles GET /purchase-orders?status=&supplier_id=
func (h *PurchaseOrderHandler) ListOrders(c *fiber.Ctx) error {
	supplierID, err := queryUUID(c, "supplier_id")
	if err != nil {
		return err
	}
	status := model.PurchaseOrderStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		return badRequest(c, "Invalid status")
	}

	orders, pagination, err := h.service.List(c.UserContext(), repository.PurchaseOrderListParams{
		ListParams: listParams(c),
		Status:     status,
		SupplierID: supplierID,
	})
	if err != nil {
		return err
	}
	return c.JSON(page(orders, pagination))
}

func (h *PurchaseOrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": order, "allowed_transitions": order.Status.AllowedTransitions()})
}

func (h *PurchaseOrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	order, err := h.service.UpdateOrder(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Purchase order updated", "data": order})
}

// UpdateStatus handles POST /purchase-orders/:id/status. Moving to received
// additionally requires the receive privilege.
func (h *PurchaseOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if !req.Status.IsValid() {
		return badRequest(c, "Invalid status")
	}
	if req.Status == model.POStatusReceived && !middleware.HasPrivilege(c, model.PrivPOReceive) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden: requires '" + model.PrivPOReceive + "' privilege",
		})
	}

	order, err := h.service.RequestTransition(c.UserContext(), id, req.Status, actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Purchase order is now " + string(order.Status), "data": order})
}

func (h *PurchaseOrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.SoftDelete(c.UserContext(), id, actorFrom(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Purchase order deleted"})
}

// DownloadPDF handles GET /purchase-orders/:id/pdf
func (h *PurchaseOrderHandler) DownloadPDF(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	doc, err := h.documents.PurchaseOrderPDF(c.UserContext(), id)
	if err != nil {
		return err
	}
	return sendDocument(c, doc)
}

func sendDocument(c *fiber.Ctx, doc *service.Document) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+doc.Filename+`"`)
	return c.Send(doc.Data)
}
