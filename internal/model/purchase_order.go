package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PurchaseOrderStatus string

const (
	POStatusDraft     PurchaseOrderStatus = "draft"
	POStatusOrdered   PurchaseOrderStatus = "ordered"
	POStatusReceived  PurchaseOrderStatus = "received"
	POStatusCancelled PurchaseOrderStatus = "cancelled"
)

// poTransitions is the only place legal status moves are defined.
var poTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	POStatusDraft:     {POStatusOrdered, POStatusCancelled},
	POStatusOrdered:   {POStatusReceived, POStatusCancelled},
	POStatusReceived:  nil,
	POStatusCancelled: nil,
}

func (s PurchaseOrderStatus) IsValid() bool {
	_, ok := poTransitions[s]
	return ok
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	for _, allowed := range poTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PurchaseOrderStatus) IsTerminal() bool {
	return s.IsValid() && len(poTransitions[s]) == 0
}

// AllowedTransitions returns a copy of the outgoing edges of s.
func (s PurchaseOrderStatus) AllowedTransitions() []PurchaseOrderStatus {
	return append([]PurchaseOrderStatus(nil), poTransitions[s]...)
}

// LineItem is embedded in the order document; Variant is the variant name, empty for simple products.
type LineItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Variant     string          `json:"variant,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type StatusHistoryEntry struct {
	From      PurchaseOrderStatus `json:"from"`
	To        PurchaseOrderStatus `json:"to"`
	ChangedBy string              `json:"changed_by"`
	ChangedAt time.Time           `json:"changed_at"`
}

type PurchaseOrder struct {
	BaseModel
	SoftDelete
	OrderNumber  string              `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier     *Supplier           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	OrderDate    time.Time           `gorm:"not null" json:"order_date"`
	ExpectedDate *time.Time          `json:"expected_date,omitempty"`
	ReceivedDate *time.Time          `json:"received_date,omitempty"`
	Status       PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Notes        string              `gorm:"type:text" json:"notes"`
	TotalAmount  decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0" json:"total_amount"`
	ReceivedBy   string              `gorm:"type:varchar(255)" json:"received_by,omitempty"`

	Items         datatypes.JSONSlice[LineItem]           `json:"items"`
	StatusHistory datatypes.JSONSlice[StatusHistoryEntry] `json:"status_history"`
}

// SumItems returns the sum of the line subtotals.
func SumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// DocumentCounter is the per-scope, per-year sequence behind PO and invoice numbers.
type DocumentCounter struct {
	Scope     string    `gorm:"type:varchar(10);primaryKey" json:"scope"`
	Year      int       `gorm:"primaryKey;autoIncrement:false" json:"year"`
	LastSeq   int       `gorm:"not null;default:0" json:"last_seq"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockReceipt records that one line of an order has been applied to stock.
type StockReceipt struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_receipt_order_line" json:"order_id"`
	LineIndex  int       `gorm:"not null;uniqueIndex:idx_receipt_order_line" json:"line_index"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Variant    string    `gorm:"type:varchar(100)" json:"variant,omitempty"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	ReceivedBy string    `gorm:"type:varchar(255)" json:"received_by"`
	CreatedAt  time.Time `json:"created_at"`
}
