package repository

import (
	"context"
	"fmt"

	"go-inventory-pos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document number scopes.
const (
	ScopePurchaseOrder = "PO"
	ScopeInvoice       = "INV"
)

// CounterRepository hands out per-year document sequence numbers.
type CounterRepository interface {
	WithTx(tx *gorm.DB) CounterRepository
	// Next increments and returns the counter for (scope, year). When the row does not exist yet
	// it is created from seed(), so numbering continues after documents created before the counter.
	Next(ctx context.Context, scope string, year int, seed func() (int64, error)) (int, error)
}

type counterRepo struct {
	db *gorm.DB
}

func NewCounterRepo(db *gorm.DB) CounterRepository {
	return &counterRepo{db}
}

func (r *counterRepo) WithTx(tx *gorm.DB) CounterRepository {
	return &counterRepo{tx}
}

func (r *counterRepo) Next(ctx context.Context, scope string, year int, seed func() (int64, error)) (int, error) {
	db := r.db.WithContext(ctx)
	where := func(db *gorm.DB) *gorm.DB { return db.Where("scope = ? AND year = ?", scope, year) }

	var exists int64
	if err := db.Model(&model.DocumentCounter{}).Scopes(where).Count(&exists).Error; err != nil {
		return 0, err
	}
	if exists == 0 {
		var start int64
		if seed != nil {
			var err error
			if start, err = seed(); err != nil {
				return 0, err
			}
		}
		// A concurrent creator may have inserted the row first; its seed wins.
		err := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.DocumentCounter{Scope: scope, Year: year, LastSeq: int(start)}).Error
		if err != nil {
			return 0, err
		}
	}

	res := db.Model(&model.DocumentCounter{}).Scopes(where).
		UpdateColumn("last_seq", gorm.Expr("last_seq + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	var counter model.DocumentCounter
	if err := db.Scopes(where).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.LastSeq, nil
}

// maxSequence returns the highest sequence among document numbers of the form "<prefix><seq>".
// Gaps in existing numbering are skipped rather than reused.
func maxSequence(db *gorm.DB, value any, column, prefix string) (int64, error) {
	var highest int64
	err := db.Model(value).
		Select(fmt.Sprintf("COALESCE(MAX(CAST(SUBSTR(%s, %d) AS INTEGER)), 0)", column, len(prefix)+1)).
		Where(column+" LIKE ?", prefix+"%").
		Scan(&highest).Error
	return highest, err
}
