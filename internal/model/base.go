package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and standard audit trails
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CreatedBy string `gorm:"type:varchar(255)" json:"created_by"`
	UpdatedBy string `gorm:"type:varchar(255)" json:"updated_by"`
}

// BeforeCreate assigns a UUID unless the caller already set one.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// Audit exposes the embedded audit fields to generic code.
func (base *BaseModel) Audit() *BaseModel { return base }

// SoftDelete is the explicit active/deleted pair carried by every deactivatable entity.
// Queries filter on it explicitly; nothing intercepts them globally.
type SoftDelete struct {
	Active    bool       `gorm:"not null;default:true;index" json:"active"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy string     `gorm:"type:varchar(255)" json:"deleted_by,omitempty"`
}

// Deactivate flips the entity to inactive.
func (s *SoftDelete) Deactivate(actor string, at time.Time) {
	s.Active = false
	s.DeletedAt = &at
	s.DeletedBy = actor
}

func (s *SoftDelete) State() *SoftDelete { return s }

// ListParams is the simple filtered listing shared by every resource.
type ListParams struct {
	Page            int
	Limit           int
	Search          string
	IncludeInactive bool
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps page and limit into sane bounds.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(p ListParams, total int64) Pagination {
	p = p.Normalize()
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
