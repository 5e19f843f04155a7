package handler

import (
	"go-inventory-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	users service.UserService
}

func NewRoleHandler(users service.UserService) *RoleHandler {
	return &RoleHandler{users: users}
}

// GetRoles returns all available roles
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.users.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(roles)
}

// GetPrivileges returns every privilege code
// GET /api/v1/privileges
func (h *RoleHandler) GetPrivileges(c *fiber.Ctx) error {
	privileges, err := h.users.ListPrivileges(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(privileges)
}
