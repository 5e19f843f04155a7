package repository

import (
	"context"
	"time"

	"go-inventory-pos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	WithTx(tx *gorm.DB) StockMovementRepository
	Create(ctx context.Context, movements ...*model.StockMovement) error
	List(ctx context.Context, params MovementListParams) ([]model.StockMovement, int64, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type MovementListParams struct {
	model.ListParams
	ProductID *uuid.UUID
	Type      model.MovementType
	Reference string
}

// StockMovementData is one day of chart data.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
	OpenOrders     int64           `json:"open_purchase_orders"`
	SalesToday     int64           `json:"sales_today"`
	RevenueToday   decimal.Decimal `json:"revenue_today"`
}

type stockMovementRepo struct {
	db *gorm.DB
}

func NewStockMovementRepo(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db}
}

func (r *stockMovementRepo) WithTx(tx *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{tx}
}

func (r *stockMovementRepo) Create(ctx context.Context, movements ...*model.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Product").Create(movements).Error
}

func (r *stockMovementRepo) List(ctx context.Context, params MovementListParams) ([]model.StockMovement, int64, error) {
	var (
		movements []model.StockMovement
		total     int64
	)
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if params.ProductID != nil {
		q = q.Where("product_id = ?", *params.ProductID)
	}
	if params.Type != "" {
		q = q.Where("type = ?", params.Type)
	}
	if params.Reference != "" {
		q = q.Where("reference = ?", params.Reference)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Scopes(paginate(params.ListParams)).Preload("Product").Order("created_at DESC").Find(&movements).Error
	return movements, total, err
}

func (r *stockMovementRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type = 'OUT' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			data StockMovementData
			day  any
		)
		if err := rows.Scan(&day, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		data.Date = formatDay(day)
		results = append(results, data)
	}
	return results, rows.Err()
}

// formatDay normalizes DATE() output, which is a time on PostgreSQL and text on SQLite.
func formatDay(v any) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format("2006-01-02")
	case []byte:
		return string(d)
	case string:
		return d
	default:
		return ""
	}
}

func (r *stockMovementRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Where("active = ?", true).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("active = ?", true).
		Where(lowStockCondition, false, true).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	var simple, variants struct{ Total decimal.Decimal }
	if err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(stock * price), 0) AS total").
		Where("active = ? AND has_variants = ?", true, false).
		Scan(&simple).Error; err != nil {
		return nil, err
	}
	if err := db.Table("product_variants AS pv").
		Select("COALESCE(SUM(pv.stock * pv.price), 0) AS total").
		Joins("JOIN products p ON p.id = pv.product_id").
		Where("p.active = ? AND p.has_variants = ?", true, true).
		Scan(&variants).Error; err != nil {
		return nil, err
	}
	stats.TotalValuation = simple.Total.Add(variants.Total)

	if err := db.Model(&model.PurchaseOrder{}).
		Where("active = ? AND status IN ?", true, []model.PurchaseOrderStatus{model.POStatusDraft, model.POStatusOrdered}).
		Count(&stats.OpenOrders).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var today struct {
		Count int64
		Total decimal.Decimal
	}
	if err := db.Model(&model.Sale{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
		Where("active = ? AND sale_date >= ?", true, start).
		Scan(&today).Error; err != nil {
		return nil, err
	}
	stats.SalesToday = today.Count
	stats.RevenueToday = today.Total

	return &stats, nil
}
