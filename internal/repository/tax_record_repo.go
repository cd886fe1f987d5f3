package repository

import (
	"context"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"gorm.io/gorm"
)

// TaxRecordRepository persists the artifacts of the tax pipeline: computed tax
// lines, recognized revenue entries and issued receipts.
type TaxRecordRepository interface {
	CreateCalculations(ctx context.Context, calcs []model.TaxCalculation) ([]model.TaxCalculation, error)
	ListCalculationsByTransaction(ctx context.Context, transactionID int64) ([]model.TaxCalculation, error)

	CreateRevenue(ctx context.Context, revenue *model.GovernmentRevenue) error
	ListRevenuesByTransaction(ctx context.Context, transactionID int64) ([]model.GovernmentRevenue, error)

	CreateReceipt(ctx context.Context, receipt *model.TaxReceipt) error
	FindReceiptByTransaction(ctx context.Context, transactionID int64) (*model.TaxReceipt, error)
	UpdateReceiptStatus(ctx context.Context, receiptID int64, status string) error
}

type taxRecordRepository struct {
	db *gorm.DB
}

func NewTaxRecordRepository(db *gorm.DB) TaxRecordRepository {
	return &taxRecordRepository{db: db}
}

func (r *taxRecordRepository) CreateCalculations(ctx context.Context, calcs []model.TaxCalculation) ([]model.TaxCalculation, error) {
	if err := GetDB(ctx, r.db).Create(&calcs).Error; err != nil {
		return nil, err
	}
	return calcs, nil
}

func (r *taxRecordRepository) ListCalculationsByTransaction(ctx context.Context, transactionID int64) ([]model.TaxCalculation, error) {
	var calcs []model.TaxCalculation
	if err := GetDB(ctx, r.db).
		Where("transaction_id = ?", transactionID).
		Order("id").
		Find(&calcs).Error; err != nil {
		return nil, err
	}
	return calcs, nil
}

func (r *taxRecordRepository) CreateRevenue(ctx context.Context, revenue *model.GovernmentRevenue) error {
	return GetDB(ctx, r.db).Create(revenue).Error
}

func (r *taxRecordRepository) ListRevenuesByTransaction(ctx context.Context, transactionID int64) ([]model.GovernmentRevenue, error) {
	var revenues []model.GovernmentRevenue
	if err := GetDB(ctx, r.db).
		Where("transaction_id = ?", transactionID).
		Order("id").
		Find(&revenues).Error; err != nil {
		return nil, err
	}
	return revenues, nil
}

func (r *taxRecordRepository) CreateReceipt(ctx context.Context, receipt *model.TaxReceipt) error {
	return GetDB(ctx, r.db).Create(receipt).Error
}

func (r *taxRecordRepository) FindReceiptByTransaction(ctx context.Context, transactionID int64) (*model.TaxReceipt, error) {
	var receipt model.TaxReceipt
	if err := GetDB(ctx, r.db).
		Preload("Transaction").
		Preload("Payer").
		Where("transaction_id = ?", transactionID).
		Order("id desc").
		First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *taxRecordRepository) UpdateReceiptStatus(ctx context.Context, receiptID int64, status string) error {
	return GetDB(ctx, r.db).Model(&model.TaxReceipt{}).
		Where("id = ?", receiptID).
		UpdateColumn("status", status).Error
}
