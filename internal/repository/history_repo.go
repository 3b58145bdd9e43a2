package repository

import (
	"context"
	"time"

	"go-barcode-stock/internal/model"

	"gorm.io/gorm"
)

type HistoryRepository interface {
	FindRecent(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
	GetOverviewStats(ctx context.Context) (*OverviewStats, error)
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// OverviewStats untuk overview stats
type OverviewStats struct {
	TotalProducts int64 `json:"total_products"`
	LowStockCount int64 `json:"low_stock_count"`
	TotalUnits    int64 `json:"total_units"`
}

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) HistoryRepository {
	return &historyRepo{db}
}

func (r *historyRepo) FindRecent(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	// Join nama product saat read, ORDER BY id DESC = newest first
	// (id monoton, deterministik walau created_at sama persis)
	err := r.db.WithContext(ctx).
		Model(&model.HistoryEntry{}).
		Select("inventory_history.*, products.name AS product_name").
		Joins("JOIN products ON products.id = inventory_history.product_id").
		Order("inventory_history.id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *historyRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Aggregate transaksi per hari
	rows, err := r.db.WithContext(ctx).Model(&model.HistoryEntry{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN transaction_type = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN transaction_type = 'OUT' THEN quantity ELSE 0 END), 0) as outbound
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
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}

func (r *historyRepo) GetOverviewStats(ctx context.Context) (*OverviewStats, error) {
	var stats OverviewStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	// Low stock = stok sudah menyentuh threshold min_stock
	if err := db.Model(&model.Product{}).
		Where("current_stock <= min_stock").
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(current_stock), 0)").
		Scan(&stats.TotalUnits).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
