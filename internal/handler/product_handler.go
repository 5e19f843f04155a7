package handler

import (
	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	product, err := h.service.CreateProduct(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), id, &req, actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": product})
}

// GetProducts handles GET /products?brand_id=&category_id=&low_stock=
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	brandID, err := queryUUID(c, "brand_id")
	if err != nil {
		return err
	}
	categoryID, err := queryUUID(c, "category_id")
	if err != nil {
		return err
	}

	products, pagination, err := h.service.ListProducts(c.UserContext(), repository.ProductListParams{
		ListParams: listParams(c),
		BrandID:    brandID,
		CategoryID: categoryID,
		LowStock:   c.QueryBool("low_stock", false),
	})
	if err != nil {
		return err
	}
	return c.JSON(page(products, pagination))
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProduct(c.UserContext(), id, actorFrom(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// AdjustStock handles POST /stock-movements
func (h *ProductHandler) AdjustStock(c *fiber.Ctx) error {
	var req service.StockAdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	movement, err := h.service.AdjustStock(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Stock adjusted", "data": movement})
}

// GetMovements handles GET /stock-movements?product_id=&type=&reference=
func (h *ProductHandler) GetMovements(c *fiber.Ctx) error {
	productID, err := queryUUID(c, "product_id")
	if err != nil {
		return err
	}
	movementType := model.MovementType(c.Query("type"))
	if movementType != "" && movementType != model.MovementIn && movementType != model.MovementOut {
		return badRequest(c, "Invalid type, use IN or OUT")
	}

	movements, pagination, err := h.service.ListMovements(c.UserContext(), repository.MovementListParams{
		ListParams: listParams(c),
		ProductID:  productID,
		Type:       movementType,
		Reference:  c.Query("reference"),
	})
	if err != nil {
		return err
	}
	return c.JSON(page(movements, pagination))
}
