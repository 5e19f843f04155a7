package handler

import (
	"errors"

	"go-inventory-pos/internal/middleware"
	"go-inventory-pos/internal/service"
	"go-inventory-pos/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrImmutableAfterDraft),
		errors.Is(err, service.ErrDuplicateOrderNumber),
		errors.Is(err, service.ErrOrderBusy),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrLastMasterAdmin):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrVariantMismatch),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrSessionTimeout),
		errors.Is(err, service.ErrSessionReplaced),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrMissingToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrWrongPassword):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler is the fiber.Config ErrorHandler. Known errors keep their message;
// anything else is logged and answered with a generic 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			out := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				out[fe.Field()] = fe.Tag()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "errors": out})
		}

		var ve *service.ValidationError
		if errors.As(err, &ve) && len(ve.Fields) > 0 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "errors": ve.Fields})
		}

		status := StatusFor(err)
		if status == fiber.StatusInternalServerError {
			log.Error("internal error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("request_id")),
				zap.Error(err),
			)
			return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
		}

		body := fiber.Map{"error": err.Error()}
		var it *service.InvalidTransitionError
		if errors.As(err, &it) {
			body["from"], body["to"] = it.From, it.To
			body["allowed"] = it.From.AllowedTransitions()
		}
		return c.Status(status).JSON(body)
	}
}

// actorFrom reads the authenticated user placed in Locals by RequireAuth.
func actorFrom(c *fiber.Ctx) service.Actor {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	name, _ := c.Locals(middleware.LocalUserName).(string)
	email, _ := c.Locals(middleware.LocalUserEmail).(string)
	if id == "" {
		id = "system"
	}
	return service.Actor{ID: id, Name: name, Email: email}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
