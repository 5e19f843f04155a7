package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	BaseModel
	SoftDelete
	SKU         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Description string          `gorm:"type:text" json:"description"`
	Unit        string          `gorm:"type:varchar(20)" json:"unit"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"price"`
	Cost        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"cost"`
	MinStock    int             `gorm:"not null;default:0" json:"min_stock"`
	HasVariants bool            `gorm:"not null;default:false" json:"has_variants"`

	BrandID    *uuid.UUID `gorm:"type:uuid;index" json:"brand_id,omitempty"`
	Brand      *Brand     `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
}

// ProductVariant is a named sub-SKU. Line items reference it by Name.
type ProductVariant struct {
	BaseModel
	ProductID  uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_variant_product_name" json:"product_id"`
	Name       string            `gorm:"type:varchar(100);not null;uniqueIndex:idx_variant_product_name" json:"name" validate:"required"`
	SKU        string            `gorm:"type:varchar(50)" json:"sku"`
	Stock      int               `gorm:"not null;default:0" json:"stock"`
	Price      decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"price"`
	Attributes datatypes.JSONMap `json:"attributes,omitempty"`
}

// Variant finds a variant by exact name.
func (p *Product) Variant(name string) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].Name == name {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// TotalStock is the authoritative on-hand quantity: variant stocks when HasVariants, else Stock.
func (p *Product) TotalStock() int {
	if !p.HasVariants {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// UnitPrice returns the selling price of the product or the named variant.
func (p *Product) UnitPrice(variant string) decimal.Decimal {
	if v, ok := p.Variant(variant); ok && p.HasVariants {
		return v.Price
	}
	return p.Price
}

// CheckVariant enforces the line-item rule: a variant is required iff HasVariants, and it must exist.
func (p *Product) CheckVariant(variant string) bool {
	if !p.HasVariants {
		return variant == ""
	}
	if variant == "" {
		return false
	}
	_, ok := p.Variant(variant)
	return ok
}
