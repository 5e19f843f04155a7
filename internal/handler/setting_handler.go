package handler

import (
	"io"

	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SettingHandler struct {
	service service.SettingService
}

func NewSettingHandler(s service.SettingService) *SettingHandler {
	return &SettingHandler{service: s}
}

func (h *SettingHandler) GetSettings(c *fiber.Ctx) error {
	setting, err := h.service.Get(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": setting})
}

func (h *SettingHandler) UpdateSettings(c *fiber.Ctx) error {
	var req service.UpdateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	setting, err := h.service.Update(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Settings updated", "data": setting})
}

// UploadLogo handles multipart POST /settings/logo with a "logo" file field.
func (h *SettingHandler) UploadLogo(c *fiber.Ctx) error {
	file, err := c.FormFile("logo")
	if err != nil {
		return badRequest(c, "Field 'logo' is required")
	}
	if file.Size > service.MaxLogoBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "Logo must be 2MB or smaller"})
	}

	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, service.MaxLogoBytes+1))
	if err != nil {
		return err
	}

	setting, err := h.service.UploadLogo(c.UserContext(), data, actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Logo uploaded", "data": setting})
}

func (h *SettingHandler) RemoveLogo(c *fiber.Ctx) error {
	setting, err := h.service.RemoveLogo(c.UserContext(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Logo removed", "data": setting})
}

// GetLogo streams the stored logo.
func (h *SettingHandler) GetLogo(c *fiber.Ctx) error {
	data, contentType, err := h.service.Logo(c.UserContext())
	if err != nil {
		return err
	}
	if data == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No logo uploaded"})
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Send(data)
}
