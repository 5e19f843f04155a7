package model

import "github.com/google/uuid"

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// StockMovement is the append-only log of every stock change.
type StockMovement struct {
	BaseModel
	ProductID uuid.UUID    `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product     `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Variant   string       `gorm:"type:varchar(100)" json:"variant,omitempty"`
	Type      MovementType `gorm:"type:varchar(10);not null" json:"type"`
	Quantity  int          `gorm:"not null" json:"quantity"`
	// Reference is the PO or invoice number that caused the movement.
	Reference string `gorm:"type:varchar(30);index" json:"reference"`
	Note      string `gorm:"type:text" json:"note"`
}
