package service

import (
	"context"
	"fmt"
	"time"

	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type RevenueDashboard struct {
	Today      string                `json:"today"`
	ThisMonth  string                `json:"this_month"`
	ThisYear   string                `json:"this_year"`
	AllTime    string                `json:"all_time"`
	ByCategory []CategoryRevenue     `json:"by_category"`
	Trend      []MonthlyRevenuePoint `json:"trend"`
	Recent     []RevenueEntry        `json:"recent"`
}

type CategoryRevenue struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Count    int64  `json:"count"`
}

type MonthlyRevenuePoint struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

type RevenueEntry struct {
	ID              int64  `json:"id"`
	RevenueDate     string `json:"revenue_date"`
	RevenueType     string `json:"revenue_type"`
	Source          string `json:"source"`
	Amount          string `json:"amount"`
	Category        string `json:"category"`
	Location        string `json:"location"`
	TransactionID   *int64 `json:"transaction_id,omitempty"`
	Description     string `json:"description"`
	ReferenceNumber string `json:"reference_number"`
}

type RevenueReport struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Category  string         `json:"category,omitempty"`
	Total     string         `json:"total"`
	Count     int            `json:"count"`
	Entries   []RevenueEntry `json:"entries"`
}

// --- Interface ---

// RevenueService aggregates the government-revenue ledger for the taxation
// dashboard and exportable reports.
type RevenueService interface {
	Dashboard(ctx context.Context) (RevenueDashboard, error)
	Report(ctx context.Context, start, end, category string) (RevenueReport, error)
	Categories(ctx context.Context) ([]string, error)
}

type revenueService struct {
	reportRepo repository.RevenueReportRepository
	now        func() time.Time
}

func NewRevenueService(reportRepo repository.RevenueReportRepository) RevenueService {
	return &revenueService{
		reportRepo: reportRepo,
		now:        time.Now,
	}
}

func (s *revenueService) Dashboard(ctx context.Context) (RevenueDashboard, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfYear := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	today, err := s.reportRepo.SumSince(ctx, startOfDay)
	if err != nil {
		return RevenueDashboard{}, fmt.Errorf("failed to sum today's revenue: %w", err)
	}
	month, err := s.reportRepo.SumSince(ctx, startOfMonth)
	if err != nil {
		return RevenueDashboard{}, fmt.Errorf("failed to sum this month's revenue: %w", err)
	}
	year, err := s.reportRepo.SumSince(ctx, startOfYear)
	if err != nil {
		return RevenueDashboard{}, fmt.Errorf("failed to sum this year's revenue: %w", err)
	}
	total, err := s.reportRepo.SumTotal(ctx)
	if err != nil {
		return RevenueDashboard{}, fmt.Errorf("failed to sum total revenue: %w", err)
	}

	byCategory, err := s.reportRepo.SumByCategory(ctx)
	if err != nil {
		return RevenueDashboard{}, fmt.Errorf("failed to group revenue by category: %w", err)
	}

	trend, err := s.reportRepo.MonthlyTrend(ctx, startOfYear.AddDate(-1, 0, 0))
	if err != nil {
		return RevenueDashboard{}, fmt.Errorf("failed to load revenue trend: %w", err)
	}

	recent, err := s.reportRepo.Recent(ctx, 10)
	if err != nil {
		return RevenueDashboard{}, fmt.Errorf("failed to load recent revenue: %w", err)
	}

	dashboard := RevenueDashboard{
		Today:      decimal.NewFromFloat(today).StringFixed(2),
		ThisMonth:  decimal.NewFromFloat(month).StringFixed(2),
		ThisYear:   decimal.NewFromFloat(year).StringFixed(2),
		AllTime:    decimal.NewFromFloat(total).StringFixed(2),
		ByCategory: make([]CategoryRevenue, 0, len(byCategory)),
		Trend:      make([]MonthlyRevenuePoint, 0, len(trend)),
		Recent:     toRevenueEntries(recent),
	}

	for _, row := range byCategory {
		dashboard.ByCategory = append(dashboard.ByCategory, CategoryRevenue{
			Category: row.Category,
			Amount:   decimal.NewFromFloat(row.Amount).StringFixed(2),
			Count:    row.Count,
		})
	}
	for _, row := range trend {
		dashboard.Trend = append(dashboard.Trend, MonthlyRevenuePoint{
			Year:   row.Year,
			Month:  row.Month,
			Amount: decimal.NewFromFloat(row.Amount).StringFixed(2),
		})
	}

	return dashboard, nil
}

func (s *revenueService) Report(ctx context.Context, start, end, category string) (RevenueReport, error) {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return RevenueReport{}, fmt.Errorf("invalid start date (expected YYYY-MM-DD): %w", err)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return RevenueReport{}, fmt.Errorf("invalid end date (expected YYYY-MM-DD): %w", err)
	}
	if endDate.Before(startDate) {
		return RevenueReport{}, fmt.Errorf("end date must not be before start date")
	}

	// Include the whole end day.
	entries, err := s.reportRepo.ListByRange(ctx, startDate, endDate.AddDate(0, 0, 1).Add(-time.Nanosecond), category)
	if err != nil {
		return RevenueReport{}, fmt.Errorf("failed to load revenue entries: %w", err)
	}

	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount)
	}

	return RevenueReport{
		StartDate: start,
		EndDate:   end,
		Category:  category,
		Total:     total.StringFixed(2),
		Count:     len(entries),
		Entries:   toRevenueEntries(entries),
	}, nil
}

func (s *revenueService) Categories(ctx context.Context) ([]string, error) {
	return s.reportRepo.Categories(ctx)
}

func toRevenueEntries(revenues []model.GovernmentRevenue) []RevenueEntry {
	entries := make([]RevenueEntry, 0, len(revenues))
	for _, r := range revenues {
		entries = append(entries, RevenueEntry{
			ID:              r.ID,
			RevenueDate:     r.RevenueDate.Format("2006-01-02"),
			RevenueType:     r.RevenueType,
			Source:          r.Source,
			Amount:          r.Amount.StringFixed(2),
			Category:        r.Category,
			Location:        r.Location,
			TransactionID:   r.TransactionID,
			Description:     r.Description,
			ReferenceNumber: r.ReferenceNumber,
		})
	}
	return entries
}
