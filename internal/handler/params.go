package handler

import (
	"time"

	"go-inventory-pos/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// queryUUID returns nil when the parameter is absent.
func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return &id, nil
}

func queryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name+", use YYYY-MM-DD")
	}
	return &t, nil
}

// listParams reads ?page=&limit=&search=&include_inactive=.
func listParams(c *fiber.Ctx) model.ListParams {
	return model.ListParams{
		Page:            c.QueryInt("page", 1),
		Limit:           c.QueryInt("limit", model.DefaultPageLimit),
		Search:          c.Query("search"),
		IncludeInactive: c.QueryBool("include_inactive", false),
	}.Normalize()
}

func page(data any, p model.Pagination) fiber.Map {
	return fiber.Map{"data": data, "pagination": p}
}
