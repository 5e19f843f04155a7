package service

import (
	"errors"
	"fmt"
	"strings"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/repository"
	"go-inventory-pos/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrVariantMismatch      = errors.New("variant mismatch")
	ErrImmutableAfterDraft  = errors.New("purchase order can only be edited while in draft")
	ErrDuplicateOrderNumber = errors.New("duplicate document number, please retry")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrOrderBusy            = errors.New("purchase order is being changed by another request")
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("already exists")
)

// InvalidTransitionError names the rejected from/to pair.
type InvalidTransitionError struct {
	From model.PurchaseOrderStatus
	To   model.PurchaseOrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// VariantMismatchError names the product whose variant rule a line item broke.
type VariantMismatchError struct {
	ProductID uuid.UUID
	Variant   string
	Reason    string
}

func (e *VariantMismatchError) Error() string {
	return fmt.Sprintf("variant mismatch on product %s: %s", e.ProductID, e.Reason)
}

func (e *VariantMismatchError) Unwrap() error { return ErrVariantMismatch }

// ValidationError carries per-field failures from pkg/validator.
type ValidationError struct {
	Fields []*validator.ErrorResponse
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", f.FailedField, f.Tag))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationFailed(msg string) error {
	return &ValidationError{Msg: msg}
}

func validate(req any) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// checkVariant applies the line-item variant rule against a loaded product.
func checkVariant(p *model.Product, variant string) error {
	if p.CheckVariant(variant) {
		return nil
	}
	reason := "product has no variants"
	switch {
	case p.HasVariants && variant == "":
		reason = "a variant is required"
	case p.HasVariants:
		reason = fmt.Sprintf("unknown variant %q", variant)
	}
	return &VariantMismatchError{ProductID: p.ID, Variant: variant, Reason: reason}
}

// fromRepo translates repository sentinels into service sentinels.
func fromRepo(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repository.ErrVariantNotFound):
		return fmt.Errorf("%w: %s", ErrVariantNotFound, what)
	case errors.Is(err, repository.ErrInsufficientStock):
		return fmt.Errorf("%w: %s", ErrInsufficientStock, what)
	case repository.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	default:
		return err
	}
}
