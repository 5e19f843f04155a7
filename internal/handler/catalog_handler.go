package handler

import (
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the CRUD routes shared by brands, categories and suppliers.
type CatalogHandler[T repository.CatalogEntity] struct {
	service service.CatalogService[T]
	label   string
}

func NewCatalogHandler[T repository.CatalogEntity](s service.CatalogService[T], label string) *CatalogHandler[T] {
	return &CatalogHandler[T]{service: s, label: label}
}

// Mount registers list/get/create/update/delete under router with the given view and manage guards.
func (h *CatalogHandler[T]) Mount(router fiber.Router, view, manage fiber.Handler) {
	router.Get("/", view, h.List)
	router.Get("/:id", view, h.Get)
	router.Post("/", manage, h.Create)
	router.Put("/:id", manage, h.Update)
	router.Delete("/:id", manage, h.Delete)
}

func (h *CatalogHandler[T]) Create(c *fiber.Ctx) error {
	entity := new(T)
	if err := c.BodyParser(entity); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	created, err := h.service.Create(c.UserContext(), entity, actorFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": h.label + " created", "data": created})
}

func (h *CatalogHandler[T]) Update(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	entity := new(T)
	if err := c.BodyParser(entity); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	updated, err := h.service.Update(c.UserContext(), id, entity, actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": h.label + " updated", "data": updated})
}

func (h *CatalogHandler[T]) Get(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	entity, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entity})
}

func (h *CatalogHandler[T]) List(c *fiber.Ctx) error {
	items, pagination, err := h.service.List(c.UserContext(), listParams(c))
	if err != nil {
		return err
	}
	return c.JSON(page(items, pagination))
}

func (h *CatalogHandler[T]) Delete(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id, actorFrom(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": h.label + " deleted"})
}
