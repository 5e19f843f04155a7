package repository

import (
	"strings"

	"go-inventory-pos/internal/model"

	"gorm.io/gorm"
)

// activeOnly filters soft-deleted rows unless includeInactive is set.
func activeOnly(includeInactive bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeInactive {
			return db
		}
		return db.Where("active = ?", true)
	}
}

func paginate(p model.ListParams) func(*gorm.DB) *gorm.DB {
	p = p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// searchColumns matches term case-insensitively against any of the columns.
func searchColumns(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"
		conds := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			conds[i] = "LOWER(" + c + ") LIKE ?"
			args[i] = like
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}
