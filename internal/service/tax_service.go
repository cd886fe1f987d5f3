package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrResolution signals that a transaction's product, category or location
// could not be resolved, so tax matching cannot proceed. Nothing is persisted
// when it is returned.
var ErrResolution = errors.New("transaction product, category or location could not be resolved")

// --- DTOs ---

type CreateTaxRuleRequest struct {
	Name               string `json:"name" binding:"required"`
	TaxType            string `json:"tax_type" binding:"required"`
	Rate               string `json:"rate" binding:"required"`           // percentage as decimal string, e.g. "7.5"
	MinAmount          string `json:"min_amount"`                        // defaults to 0
	MaxAmount          string `json:"max_amount"`                        // 0 = no upper bound
	ApplicableCategory string `json:"applicable_category"`               // empty = all categories
	ApplicableLocation string `json:"applicable_location"`               // empty = all locations
	EffectiveDate      string `json:"effective_date" binding:"required"` // YYYY-MM-DD
	ExpiryDate         string `json:"expiry_date"`                       // YYYY-MM-DD, empty = never expires
	Description        string `json:"description"`
}

type UpdateTaxRuleRequest struct {
	Name               string `json:"name" binding:"required"`
	TaxType            string `json:"tax_type" binding:"required"`
	Rate               string `json:"rate" binding:"required"`
	MinAmount          string `json:"min_amount"`
	MaxAmount          string `json:"max_amount"`
	ApplicableCategory string `json:"applicable_category"`
	ApplicableLocation string `json:"applicable_location"`
	IsActive           *bool  `json:"is_active"`
	EffectiveDate      string `json:"effective_date" binding:"required"`
	ExpiryDate         string `json:"expiry_date"`
	Description        string `json:"description"`
}

type TaxRuleResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	TaxType            string  `json:"tax_type"`
	Rate               string  `json:"rate"`
	MinAmount          string  `json:"min_amount"`
	MaxAmount          string  `json:"max_amount"`
	ApplicableCategory string  `json:"applicable_category"`
	ApplicableLocation string  `json:"applicable_location"`
	IsActive           bool    `json:"is_active"`
	EffectiveDate      string  `json:"effective_date"`
	ExpiryDate         *string `json:"expiry_date"`
	Description        string  `json:"description"`
	CreatedAt          string  `json:"created_at"`
}

// TaxBreakdownLine is one entry of a receipt's serialized tax breakdown
type TaxBreakdownLine struct {
	TaxType    string          `json:"taxType"`
	Rate       decimal.Decimal `json:"rate"`
	BaseAmount decimal.Decimal `json:"baseAmount"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
}

// RevenueEvent is broadcast to connected dashboards when revenue is recognized
type RevenueEvent struct {
	Type          string `json:"type"`
	TransactionID int64  `json:"transaction_id"`
	TotalTax      string `json:"total_tax"`
	Lines         int    `json:"lines"`
}

// Notifier pushes serialized events to connected dashboard clients
type Notifier interface {
	Publish(event interface{})
}

// --- Interface ---

// TaxService owns the tax pipeline (rule matching, calculation, revenue
// recognition, receipt issuance) and tax-rule administration.
type TaxService interface {
	GetApplicableRules(ctx context.Context, tx *model.Transaction) ([]model.TaxRule, error)
	CalculateTaxes(ctx context.Context, tx *model.Transaction) ([]model.TaxCalculation, error)
	GenerateTaxReceipt(ctx context.Context, tx *model.Transaction, calcs []model.TaxCalculation) (*model.TaxReceipt, error)
	ProcessTaxesForTransaction(ctx context.Context, tx *model.Transaction) error

	ListTaxRules(ctx context.Context, page, limit int) ([]TaxRuleResponse, int64, error)
	CreateTaxRule(ctx context.Context, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error)
	UpdateTaxRule(ctx context.Context, id string, req UpdateTaxRuleRequest, userID string) (TaxRuleResponse, error)
}

type taxService struct {
	ruleRepo    repository.TaxRuleRepository
	recordRepo  repository.TaxRecordRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	notifier    Notifier
	// jurisdiction is stamped on every recognized revenue entry
	jurisdiction string
	now          func() time.Time
}

func NewTaxService(
	ruleRepo repository.TaxRuleRepository,
	recordRepo repository.TaxRecordRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	notifier Notifier,
	jurisdiction string,
) TaxService {
	return &taxService{
		ruleRepo:     ruleRepo,
		recordRepo:   recordRepo,
		productRepo:  productRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		notifier:     notifier,
		jurisdiction: jurisdiction,
		now:          time.Now,
	}
}

// --- Pipeline ---

// GetApplicableRules resolves the transaction's product (with category and
// location) and returns every rule whose filters admit the transaction. All
// matches apply cumulatively; there is no first-match-wins ordering.
func (s *taxService) GetApplicableRules(ctx context.Context, tx *model.Transaction) ([]model.TaxRule, error) {
	product, err := s.productRepo.FindByIDWithRefs(ctx, tx.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: product %s: %v", ErrResolution, tx.ProductID, err)
	}
	if product.Category == nil {
		return nil, fmt.Errorf("%w: product %s has no category", ErrResolution, product.ID)
	}
	if product.Location == nil {
		return nil, fmt.Errorf("%w: product %s has no location", ErrResolution, product.ID)
	}

	rules, err := s.ruleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax rules: %w", err)
	}

	now := s.now()
	matched := make([]model.TaxRule, 0, len(rules))
	for _, rule := range rules {
		if rule.AppliesTo(tx.TotalAmount, product.Category.Name, product.Location.Name, now) {
			matched = append(matched, rule)
		}
	}

	return matched, nil
}

// CalculateTaxes produces one unpersisted tax line per applicable rule. The
// base amount and rate are snapshotted so later rule edits do not rewrite
// history. Rounding is half away from zero to 2 decimal places.
func (s *taxService) CalculateTaxes(ctx context.Context, tx *model.Transaction) ([]model.TaxCalculation, error) {
	rules, err := s.GetApplicableRules(ctx, tx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	hundred := decimal.NewFromInt(100)

	calcs := make([]model.TaxCalculation, 0, len(rules))
	for _, rule := range rules {
		taxAmount := tx.TotalAmount.Mul(rule.Rate).Div(hundred).Round(2)
		calcs = append(calcs, model.TaxCalculation{
			TransactionID: tx.ID,
			TaxRuleID:     rule.ID,
			BaseAmount:    tx.TotalAmount,
			TaxRate:       rule.Rate,
			TaxAmount:     taxAmount,
			TaxType:       rule.TaxType,
			CalculatedAt:  now,
		})
	}

	return calcs, nil
}

// GenerateTaxReceipt aggregates the given tax lines into one payer-facing
// receipt. The payer's name and email are snapshotted at generation time.
func (s *taxService) GenerateTaxReceipt(ctx context.Context, tx *model.Transaction, calcs []model.TaxCalculation) (*model.TaxReceipt, error) {
	buyer, err := s.userRepo.GetByID(ctx, tx.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payer profile: %w", err)
	}

	totalTax := decimal.Zero
	breakdown := make([]TaxBreakdownLine, 0, len(calcs))
	for _, calc := range calcs {
		totalTax = totalTax.Add(calc.TaxAmount)
		breakdown = append(breakdown, TaxBreakdownLine{
			TaxType:    calc.TaxType,
			Rate:       calc.TaxRate,
			BaseAmount: calc.BaseAmount,
			TaxAmount:  calc.TaxAmount,
		})
	}

	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tax breakdown: %w", err)
	}

	now := s.now()
	return &model.TaxReceipt{
		ReceiptNumber:     fmt.Sprintf("TR-%s-%06d", now.Format("20060102"), tx.ID),
		TransactionID:     tx.ID,
		PayerID:           tx.BuyerID,
		TotalTaxAmount:    totalTax,
		TransactionAmount: tx.TotalAmount,
		PayerName:         buyer.FullName(),
		PayerEmail:        buyer.Email,
		TaxBreakdown:      string(breakdownJSON),
		Status:            model.ReceiptIssued,
		IssuedDate:        now,
	}, nil
}

// ProcessTaxesForTransaction runs the full pipeline for one completed
// transaction: calculate lines, persist them, recognize one revenue entry per
// line, then issue the receipt. Each step commits on its own; the sequence is
// deliberately not wrapped in a single database transaction and carries no
// idempotency guard, so re-invoking it for the same transaction duplicates
// every record.
func (s *taxService) ProcessTaxesForTransaction(ctx context.Context, tx *model.Transaction) error {
	calcs, err := s.CalculateTaxes(ctx, tx)
	if err != nil {
		return err
	}
	if len(calcs) == 0 {
		// Legitimately tax-exempt: no revenue entries, no receipt.
		return nil
	}

	persisted, err := s.recordRepo.CreateCalculations(ctx, calcs)
	if err != nil {
		return fmt.Errorf("failed to persist tax calculations: %w", err)
	}

	now := s.now()
	for i := range persisted {
		calc := &persisted[i]
		revenue := &model.GovernmentRevenue{
			RevenueDate:      now,
			RevenueType:      model.RevenueTypeTax,
			Source:           model.RevenueSourceSale,
			Amount:           calc.TaxAmount,
			Category:         calc.TaxType,
			Location:         s.jurisdiction,
			TransactionID:    &tx.ID,
			TaxCalculationID: &calc.ID,
			Description:      fmt.Sprintf("%s tax from transaction %d", calc.TaxType, tx.ID),
			ReferenceNumber:  fmt.Sprintf("REV-%s-%06d", now.Format("20060102"), calc.ID),
		}
		if err := s.recordRepo.CreateRevenue(ctx, revenue); err != nil {
			return fmt.Errorf("failed to persist revenue entry for calculation %d: %w", calc.ID, err)
		}
	}

	receipt, err := s.GenerateTaxReceipt(ctx, tx, persisted)
	if err != nil {
		return err
	}
	if err := s.recordRepo.CreateReceipt(ctx, receipt); err != nil {
		return fmt.Errorf("failed to persist tax receipt: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Publish(RevenueEvent{
			Type:          "revenue.recognized",
			TransactionID: tx.ID,
			TotalTax:      receipt.TotalTaxAmount.StringFixed(2),
			Lines:         len(persisted),
		})
	}

	return nil
}

// --- Rule administration ---

func (s *taxService) ListTaxRules(ctx context.Context, page, limit int) ([]TaxRuleResponse, int64, error) {
	rules, total, err := s.ruleRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tax rules: %w", err)
	}

	res := make([]TaxRuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toTaxRuleResponse(r))
	}

	return res, total, nil
}

func (s *taxService) CreateTaxRule(ctx context.Context, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	rate, minAmount, maxAmount, err := parseTaxRuleAmounts(req.Rate, req.MinAmount, req.MaxAmount)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	effectiveDate, expiryDate, err := parseTaxRuleDates(req.EffectiveDate, req.ExpiryDate)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	rule := model.TaxRule{
		Name:               req.Name,
		TaxType:            req.TaxType,
		Rate:               rate,
		MinAmount:          minAmount,
		MaxAmount:          maxAmount,
		ApplicableCategory: req.ApplicableCategory,
		ApplicableLocation: req.ApplicableLocation,
		IsActive:           true,
		EffectiveDate:      effectiveDate,
		ExpiryDate:         expiryDate,
		Description:        req.Description,
	}

	if err := s.ruleRepo.Create(ctx, &rule); err != nil {
		return TaxRuleResponse{}, fmt.Errorf("failed to create tax rule: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionCreateTaxRule, rule.ID.String(), rule.Name, req)

	return toTaxRuleResponse(rule), nil
}

func (s *taxService) UpdateTaxRule(ctx context.Context, id string, req UpdateTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return TaxRuleResponse{}, fmt.Errorf("invalid tax rule id: %w", err)
	}

	rule, err := s.ruleRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaxRuleResponse{}, fmt.Errorf("tax rule not found")
		}
		return TaxRuleResponse{}, fmt.Errorf("failed to fetch tax rule: %w", err)
	}

	rate, minAmount, maxAmount, err := parseTaxRuleAmounts(req.Rate, req.MinAmount, req.MaxAmount)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	effectiveDate, expiryDate, err := parseTaxRuleDates(req.EffectiveDate, req.ExpiryDate)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	rule.Name = req.Name
	rule.TaxType = req.TaxType
	rule.Rate = rate
	rule.MinAmount = minAmount
	rule.MaxAmount = maxAmount
	rule.ApplicableCategory = req.ApplicableCategory
	rule.ApplicableLocation = req.ApplicableLocation
	rule.EffectiveDate = effectiveDate
	rule.ExpiryDate = expiryDate
	rule.Description = req.Description

	action := model.ActionUpdateTaxRule
	if req.IsActive != nil {
		if rule.IsActive && !*req.IsActive {
			action = model.ActionDeactivateTaxRule
		}
		rule.IsActive = *req.IsActive
	}

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return TaxRuleResponse{}, fmt.Errorf("failed to update tax rule: %w", err)
	}

	s.writeAuditLog(ctx, userID, action, rule.ID.String(), rule.Name, req)

	return toTaxRuleResponse(*rule), nil
}

// --- Helpers ---

func parseTaxRuleAmounts(rateStr, minStr, maxStr string) (rate, minAmount, maxAmount decimal.Decimal, err error) {
	rate, err = decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("invalid rate value: %w", err)
	}

	minAmount = decimal.Zero
	if minStr != "" {
		minAmount, err = decimal.NewFromString(minStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("invalid min_amount value: %w", err)
		}
	}

	maxAmount = decimal.Zero
	if maxStr != "" {
		maxAmount, err = decimal.NewFromString(maxStr)
		if err != nil {
			return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("invalid max_amount value: %w", err)
		}
	}

	return rate, minAmount, maxAmount, nil
}

func parseTaxRuleDates(effectiveStr, expiryStr string) (time.Time, *time.Time, error) {
	effectiveDate, err := time.Parse("2006-01-02", effectiveStr)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("invalid effective_date format (expected YYYY-MM-DD): %w", err)
	}

	var expiryDate *time.Time
	if expiryStr != "" {
		t, err := time.Parse("2006-01-02", expiryStr)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("invalid expiry_date format (expected YYYY-MM-DD): %w", err)
		}
		expiryDate = &t
	}

	return effectiveDate, expiryDate, nil
}

func toTaxRuleResponse(r model.TaxRule) TaxRuleResponse {
	resp := TaxRuleResponse{
		ID:                 r.ID.String(),
		Name:               r.Name,
		TaxType:            r.TaxType,
		Rate:               r.Rate.StringFixed(4),
		MinAmount:          r.MinAmount.StringFixed(2),
		MaxAmount:          r.MaxAmount.StringFixed(2),
		ApplicableCategory: r.ApplicableCategory,
		ApplicableLocation: r.ApplicableLocation,
		IsActive:           r.IsActive,
		EffectiveDate:      r.EffectiveDate.Format("2006-01-02"),
		Description:        r.Description,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
	if r.ExpiryDate != nil {
		s := r.ExpiryDate.Format("2006-01-02")
		resp.ExpiryDate = &s
	}
	return resp
}

func (s *taxService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}

	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			entry.UserID = &parsed
		}
	}

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}
