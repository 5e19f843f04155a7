package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const SaleStatusCompleted = "completed"

const (
	PaymentCash     = "CASH"
	PaymentTransfer = "TRANSFER"
	PaymentCard     = "CARD"
)

type SaleItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Variant     string          `json:"variant,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Sale struct {
	BaseModel
	SoftDelete
	InvoiceNumber string                        `gorm:"type:varchar(20);uniqueIndex;not null" json:"invoice_number"`
	SaleDate      time.Time                     `gorm:"not null;index" json:"sale_date"`
	CustomerName  string                        `gorm:"type:varchar(255)" json:"customer_name"`
	PaymentMethod string                        `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        string                        `gorm:"type:varchar(20);not null" json:"status"`
	TotalAmount   decimal.Decimal               `gorm:"type:decimal(15,2);not null;default:0" json:"total_amount"`
	Items         datatypes.JSONSlice[SaleItem] `json:"items"`
}
