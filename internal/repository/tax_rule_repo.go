package repository

import (
	"context"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxRuleRepository defines data access for standing tax rules
type TaxRuleRepository interface {
	Create(ctx context.Context, rule *model.TaxRule) error
	Update(ctx context.Context, rule *model.TaxRule) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error)
	List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error)
	// ListAll returns every rule; rule tables are small and matching is a
	// linear scan over the full set.
	ListAll(ctx context.Context) ([]model.TaxRule, error)
}

type taxRuleRepository struct {
	db *gorm.DB
}

func NewTaxRuleRepository(db *gorm.DB) TaxRuleRepository {
	return &taxRuleRepository{db: db}
}

func (r *taxRuleRepository) Create(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *taxRuleRepository) Update(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *taxRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error) {
	var rule model.TaxRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *taxRuleRepository) List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error) {
	var rules []model.TaxRule
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.TaxRule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

func (r *taxRuleRepository) ListAll(ctx context.Context) ([]model.TaxRule, error) {
	var rules []model.TaxRule
	if err := GetDB(ctx, r.db).Order("created_at").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
