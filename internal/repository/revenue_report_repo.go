package repository

import (
	"context"
	"time"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"gorm.io/gorm"
)

// CategoryRevenueRow is a per-category rollup of recognized revenue
type CategoryRevenueRow struct {
	Category string  `gorm:"column:category"`
	Amount   float64 `gorm:"column:amount"`
	Count    int64   `gorm:"column:count"`
}

// MonthlyRevenueRow is one month of the revenue trend
type MonthlyRevenueRow struct {
	Year   int     `gorm:"column:year"`
	Month  int     `gorm:"column:month"`
	Amount float64 `gorm:"column:amount"`
}

// RevenueReportRepository serves the taxation dashboard and reports from the
// government-revenue ledger.
type RevenueReportRepository interface {
	SumSince(ctx context.Context, since time.Time) (float64, error)
	SumTotal(ctx context.Context) (float64, error)
	SumByCategory(ctx context.Context) ([]CategoryRevenueRow, error)
	MonthlyTrend(ctx context.Context, since time.Time) ([]MonthlyRevenueRow, error)
	Recent(ctx context.Context, limit int) ([]model.GovernmentRevenue, error)
	ListByRange(ctx context.Context, start, end time.Time, category string) ([]model.GovernmentRevenue, error)
	Categories(ctx context.Context) ([]string, error)
}

type revenueReportRepository struct {
	db *gorm.DB
}

func NewRevenueReportRepository(db *gorm.DB) RevenueReportRepository {
	return &revenueReportRepository{db: db}
}

func (r *revenueReportRepository) SumSince(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := GetDB(ctx, r.db).Model(&model.GovernmentRevenue{}).
		Where("revenue_date >= ?", since).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *revenueReportRepository) SumTotal(ctx context.Context) (float64, error) {
	var total float64
	err := GetDB(ctx, r.db).Model(&model.GovernmentRevenue{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *revenueReportRepository) SumByCategory(ctx context.Context) ([]CategoryRevenueRow, error) {
	var rows []CategoryRevenueRow
	err := GetDB(ctx, r.db).Raw(`
		SELECT category,
		       COALESCE(SUM(amount), 0) AS amount,
		       COUNT(*) AS count
		FROM government_revenues
		GROUP BY category
		ORDER BY amount DESC
	`).Scan(&rows).Error
	return rows, err
}

func (r *revenueReportRepository) MonthlyTrend(ctx context.Context, since time.Time) ([]MonthlyRevenueRow, error) {
	var rows []MonthlyRevenueRow
	err := GetDB(ctx, r.db).Raw(`
		SELECT EXTRACT(YEAR FROM revenue_date)::int AS year,
		       EXTRACT(MONTH FROM revenue_date)::int AS month,
		       COALESCE(SUM(amount), 0) AS amount
		FROM government_revenues
		WHERE revenue_date >= ?
		GROUP BY 1, 2
		ORDER BY 1, 2
	`, since).Scan(&rows).Error
	return rows, err
}

func (r *revenueReportRepository) Recent(ctx context.Context, limit int) ([]model.GovernmentRevenue, error) {
	var revenues []model.GovernmentRevenue
	if err := GetDB(ctx, r.db).
		Preload("Transaction").
		Order("created_at desc").
		Limit(limit).
		Find(&revenues).Error; err != nil {
		return nil, err
	}
	return revenues, nil
}

func (r *revenueReportRepository) ListByRange(ctx context.Context, start, end time.Time, category string) ([]model.GovernmentRevenue, error) {
	query := GetDB(ctx, r.db).
		Preload("Transaction").
		Where("revenue_date >= ? AND revenue_date <= ?", start, end)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var revenues []model.GovernmentRevenue
	if err := query.Order("revenue_date desc").Find(&revenues).Error; err != nil {
		return nil, err
	}
	return revenues, nil
}

func (r *revenueReportRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := GetDB(ctx, r.db).Model(&model.GovernmentRevenue{}).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}
