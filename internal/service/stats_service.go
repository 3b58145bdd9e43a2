package service

import (
	"context"
	"time"

	"go-barcode-stock/internal/repository"
)

type StatsService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetOverviewStats(ctx context.Context) (*repository.OverviewStats, error)
}

type statsService struct {
	historyRepo repository.HistoryRepository
}

func NewStatsService(hRepo repository.HistoryRepository) StatsService {
	return &statsService{historyRepo: hRepo}
}

func (s *statsService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = 7
	}
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -days)

	data, err := s.historyRepo.GetStockMovement(ctx, startDate, endDate)
	if err != nil {
		return nil, storeErr(err)
	}
	return data, nil
}

func (s *statsService) GetOverviewStats(ctx context.Context) (*repository.OverviewStats, error) {
	stats, err := s.historyRepo.GetOverviewStats(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return stats, nil
}
