package service

import (
	"context"
	"time"

	"go-inventory-pos/internal/repository"
)

const maxChartDays = 90

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	movements repository.StockMovementRepository
}

func NewDashboardService(movements repository.StockMovementRepository) DashboardService {
	return &dashboardService{movements: movements}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxChartDays {
		days = maxChartDays
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)
	return s.movements.GetStockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.movements.GetDashboardStats(ctx)
}
