package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- In-memory fakes ---

type fakeRuleRepo struct {
	rules []model.TaxRule
}

func (f *fakeRuleRepo) Create(_ context.Context, rule *model.TaxRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeRuleRepo) Update(_ context.Context, rule *model.TaxRule) error {
	for i := range f.rules {
		if f.rules[i].ID == rule.ID {
			f.rules[i] = *rule
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRuleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TaxRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			rule := f.rules[i]
			return &rule, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRuleRepo) List(_ context.Context, page, limit int) ([]model.TaxRule, int64, error) {
	return f.rules, int64(len(f.rules)), nil
}

func (f *fakeRuleRepo) ListAll(_ context.Context) ([]model.TaxRule, error) {
	return f.rules, nil
}

type fakeRecordRepo struct {
	calcs    []model.TaxCalculation
	revenues []model.GovernmentRevenue
	receipts []model.TaxReceipt
	nextCalc int64
}

func (f *fakeRecordRepo) CreateCalculations(_ context.Context, calcs []model.TaxCalculation) ([]model.TaxCalculation, error) {
	for i := range calcs {
		f.nextCalc++
		calcs[i].ID = f.nextCalc
	}
	f.calcs = append(f.calcs, calcs...)
	return calcs, nil
}

func (f *fakeRecordRepo) ListCalculationsByTransaction(_ context.Context, transactionID int64) ([]model.TaxCalculation, error) {
	var out []model.TaxCalculation
	for _, c := range f.calcs {
		if c.TransactionID == transactionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) CreateRevenue(_ context.Context, revenue *model.GovernmentRevenue) error {
	revenue.ID = int64(len(f.revenues) + 1)
	f.revenues = append(f.revenues, *revenue)
	return nil
}

func (f *fakeRecordRepo) ListRevenuesByTransaction(_ context.Context, transactionID int64) ([]model.GovernmentRevenue, error) {
	var out []model.GovernmentRevenue
	for _, r := range f.revenues {
		if r.TransactionID != nil && *r.TransactionID == transactionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) CreateReceipt(_ context.Context, receipt *model.TaxReceipt) error {
	receipt.ID = int64(len(f.receipts) + 1)
	f.receipts = append(f.receipts, *receipt)
	return nil
}

func (f *fakeRecordRepo) FindReceiptByTransaction(_ context.Context, transactionID int64) (*model.TaxReceipt, error) {
	for i := len(f.receipts) - 1; i >= 0; i-- {
		if f.receipts[i].TransactionID == transactionID {
			receipt := f.receipts[i]
			return &receipt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRecordRepo) UpdateReceiptStatus(_ context.Context, receiptID int64, status string) error {
	for i := range f.receipts {
		if f.receipts[i].ID == receiptID {
			f.receipts[i].Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func (f *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) FindByIDWithRefs(_ context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) List(_ context.Context, _ repository.ProductFilter, _, _ int) ([]model.Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	if p, ok := f.products[id]; ok && p.Quantity >= quantity {
		p.Quantity -= quantity
	}
	return nil
}

func (f *fakeProductRepo) ListCategories(_ context.Context) ([]model.ProductCategory, error) {
	return nil, nil
}

func (f *fakeProductRepo) ListLocations(_ context.Context) ([]model.Location, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.UserProfile
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.UserProfile) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.UserProfile, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.UserProfile, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(_ context.Context, _, _ int) ([]model.UserProfile, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.UserProfile) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, _ *model.RefreshToken) error { return nil }
func (f *fakeUserRepo) GetRefreshToken(_ context.Context, _ string) (*model.RefreshToken, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) DeleteRefreshToken(_ context.Context, _ string) error { return nil }
func (f *fakeUserRepo) DeleteExpiredRefreshTokens(_ context.Context) error { return nil }

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

type fakeNotifier struct {
	events []interface{}
}

func (f *fakeNotifier) Publish(event interface{}) {
	f.events = append(f.events, event)
}

// --- Fixture ---

type taxFixture struct {
	svc      *taxService
	rules    *fakeRuleRepo
	records  *fakeRecordRepo
	products *fakeProductRepo
	users    *fakeUserRepo
	audit    *fakeAuditRepo
	notifier *fakeNotifier
	buyer    *model.UserProfile
	product  *model.Product
}

var fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func newTaxFixture(t *testing.T) *taxFixture {
	t.Helper()

	f := &taxFixture{
		rules:    &fakeRuleRepo{},
		records:  &fakeRecordRepo{},
		products: &fakeProductRepo{products: map[uuid.UUID]*model.Product{}},
		users:    &fakeUserRepo{users: map[uuid.UUID]*model.UserProfile{}},
		audit:    &fakeAuditRepo{},
		notifier: &fakeNotifier{},
	}

	f.buyer = &model.UserProfile{
		ID:        uuid.New(),
		FirstName: "Amina",
		LastName:  "Bello",
		Email:     "amina@example.com",
		Role:      model.RoleBuyer,
	}
	f.users.users[f.buyer.ID] = f.buyer

	f.product = &model.Product{
		ID:       uuid.New(),
		Name:     "Cashew Nuts",
		Price:    decimal.NewFromInt(500),
		Quantity: 100,
		Category: &model.ProductCategory{Name: "Agriculture"},
		Location: &model.Location{Name: "Lokoja"},
	}
	f.products.products[f.product.ID] = f.product

	svc := NewTaxService(f.rules, f.records, f.products, f.users, f.audit, f.notifier, "Kogi State")
	f.svc = svc.(*taxService)
	f.svc.now = func() time.Time { return fixedNow }

	return f
}

func (f *taxFixture) addRule(rule model.TaxRule) model.TaxRule {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	f.rules.rules = append(f.rules.rules, rule)
	return rule
}

func (f *taxFixture) transaction(total int64) *model.Transaction {
	return &model.Transaction{
		ID:          42,
		ProductID:   f.product.ID,
		BuyerID:     f.buyer.ID,
		Quantity:    2,
		TotalAmount: decimal.NewFromInt(total),
		Status:      model.TransactionCompleted,
	}
}

func vatRule() model.TaxRule {
	return model.TaxRule{
		Name:          "Standard VAT",
		TaxType:       "VAT",
		Rate:          decimal.NewFromFloat(7.5),
		IsActive:      true,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestGetApplicableRulesFiltersByProduct(t *testing.T) {
	f := newTaxFixture(t)
	matching := f.addRule(vatRule())
	f.addRule(model.TaxRule{
		Name:               "Mining Levy",
		TaxType:            "Export",
		Rate:               decimal.NewFromInt(2),
		IsActive:           true,
		EffectiveDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ApplicableCategory: "Solid Minerals",
	})

	rules, err := f.svc.GetApplicableRules(context.Background(), f.transaction(1000))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, matching.ID, rules[0].ID)
}

func TestGetApplicableRulesFailsWhenCategoryUnresolved(t *testing.T) {
	f := newTaxFixture(t)
	f.addRule(vatRule())
	f.product.Category = nil

	_, err := f.svc.GetApplicableRules(context.Background(), f.transaction(1000))
	require.ErrorIs(t, err, ErrResolution)

	err = f.svc.ProcessTaxesForTransaction(context.Background(), f.transaction(1000))
	require.ErrorIs(t, err, ErrResolution)
	assert.Empty(t, f.records.calcs, "nothing may be persisted when resolution fails")
	assert.Empty(t, f.records.revenues)
	assert.Empty(t, f.records.receipts)
}

func TestCalculateTaxesRoundsHalfAwayFromZero(t *testing.T) {
	f := newTaxFixture(t)
	f.addRule(vatRule())

	tx := f.transaction(0)
	tx.TotalAmount = decimal.RequireFromString("100.10") // 7.5% = 7.5075 -> 7.51

	calcs, err := f.svc.CalculateTaxes(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, calcs, 1)
	assert.Equal(t, "7.51", calcs[0].TaxAmount.StringFixed(2))
	assert.Equal(t, "100.10", calcs[0].BaseAmount.StringFixed(2))
	assert.Equal(t, "7.5", calcs[0].TaxRate.String())
	assert.True(t, calcs[0].CalculatedAt.Equal(fixedNow))
}

func TestCalculateTaxesAppliesAllMatchingRulesIndependently(t *testing.T) {
	f := newTaxFixture(t)
	f.addRule(vatRule())
	export := vatRule()
	export.Name = "Export Levy"
	export.TaxType = "Export"
	export.Rate = decimal.NewFromInt(2)
	f.addRule(export)

	calcs, err := f.svc.CalculateTaxes(context.Background(), f.transaction(1000))
	require.NoError(t, err)
	require.Len(t, calcs, 2)

	// Each line taxes the full transaction amount; taxes never compound.
	assert.Equal(t, "75.00", calcs[0].TaxAmount.StringFixed(2))
	assert.Equal(t, "1000.00", calcs[0].BaseAmount.StringFixed(2))
	assert.Equal(t, "20.00", calcs[1].TaxAmount.StringFixed(2))
	assert.Equal(t, "1000.00", calcs[1].BaseAmount.StringFixed(2))
}

func TestProcessTaxesForTransactionPersistsFullPipeline(t *testing.T) {
	f := newTaxFixture(t)
	f.addRule(vatRule())
	export := vatRule()
	export.TaxType = "Export"
	export.Rate = decimal.NewFromInt(2)
	f.addRule(export)

	tx := f.transaction(1000)
	require.NoError(t, f.svc.ProcessTaxesForTransaction(context.Background(), tx))

	// Two calculations, one revenue entry per calculation.
	require.Len(t, f.records.calcs, 2)
	require.Len(t, f.records.revenues, 2)

	first := f.records.revenues[0]
	assert.Equal(t, model.RevenueTypeTax, first.RevenueType)
	assert.Equal(t, model.RevenueSourceSale, first.Source)
	assert.Equal(t, "VAT", first.Category)
	assert.Equal(t, "Kogi State", first.Location)
	assert.Equal(t, "75.00", first.Amount.StringFixed(2))
	require.NotNil(t, first.TransactionID)
	assert.Equal(t, int64(42), *first.TransactionID)
	require.NotNil(t, first.TaxCalculationID)
	assert.Equal(t, fmt.Sprintf("REV-20250615-%06d", *first.TaxCalculationID), first.ReferenceNumber)
	assert.Equal(t, "VAT tax from transaction 42", first.Description)

	// One receipt aggregating both lines.
	require.Len(t, f.records.receipts, 1)
	receipt := f.records.receipts[0]
	assert.Equal(t, "TR-20250615-000042", receipt.ReceiptNumber)
	assert.Equal(t, "95.00", receipt.TotalTaxAmount.StringFixed(2))
	assert.Equal(t, "1000.00", receipt.TransactionAmount.StringFixed(2))
	assert.Equal(t, "Amina Bello", receipt.PayerName)
	assert.Equal(t, "amina@example.com", receipt.PayerEmail)
	assert.Equal(t, model.ReceiptIssued, receipt.Status)

	// Breakdown is an ordered JSON array, one entry per calculation.
	assert.JSONEq(t,
		`[{"taxType":"VAT","rate":"7.5","baseAmount":"1000","taxAmount":"75"},
		  {"taxType":"Export","rate":"2","baseAmount":"1000","taxAmount":"20"}]`,
		receipt.TaxBreakdown)

	// A revenue event reaches the dashboard feed.
	require.Len(t, f.notifier.events, 1)
	event, ok := f.notifier.events[0].(RevenueEvent)
	require.True(t, ok)
	assert.Equal(t, "revenue.recognized", event.Type)
	assert.Equal(t, int64(42), event.TransactionID)
	assert.Equal(t, "95.00", event.TotalTax)
	assert.Equal(t, 2, event.Lines)
}

func TestProcessTaxesForTransactionExemptIsNoop(t *testing.T) {
	f := newTaxFixture(t)
	// Only rule is scoped to a different category.
	rule := vatRule()
	rule.ApplicableCategory = "Solid Minerals"
	f.addRule(rule)

	require.NoError(t, f.svc.ProcessTaxesForTransaction(context.Background(), f.transaction(1000)))

	assert.Empty(t, f.records.calcs)
	assert.Empty(t, f.records.revenues)
	assert.Empty(t, f.records.receipts)
	assert.Empty(t, f.notifier.events)
}

func TestProcessTaxesForTransactionIsNotIdempotent(t *testing.T) {
	f := newTaxFixture(t)
	f.addRule(vatRule())

	tx := f.transaction(1000)
	require.NoError(t, f.svc.ProcessTaxesForTransaction(context.Background(), tx))
	require.NoError(t, f.svc.ProcessTaxesForTransaction(context.Background(), tx))

	// Re-running the pipeline duplicates every artifact.
	assert.Len(t, f.records.calcs, 2)
	assert.Len(t, f.records.revenues, 2)
	assert.Len(t, f.records.receipts, 2)
	assert.Equal(t, f.records.receipts[0].ReceiptNumber, f.records.receipts[1].ReceiptNumber)
}

func TestCreateTaxRuleParsesAndAudits(t *testing.T) {
	f := newTaxFixture(t)
	adminID := uuid.New().String()

	rule, err := f.svc.CreateTaxRule(context.Background(), CreateTaxRuleRequest{
		Name:          "Luxury Levy",
		TaxType:       "Luxury",
		Rate:          "12.5",
		MinAmount:     "100000",
		EffectiveDate: "2025-07-01",
		ExpiryDate:    "2026-06-30",
	}, adminID)
	require.NoError(t, err)

	assert.Equal(t, "12.5000", rule.Rate)
	assert.Equal(t, "100000.00", rule.MinAmount)
	assert.Equal(t, "0.00", rule.MaxAmount)
	assert.True(t, rule.IsActive)
	assert.Equal(t, "2025-07-01", rule.EffectiveDate)
	require.NotNil(t, rule.ExpiryDate)
	assert.Equal(t, "2026-06-30", *rule.ExpiryDate)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.ActionCreateTaxRule, f.audit.entries[0].Action)
	require.NotNil(t, f.audit.entries[0].UserID)
	assert.Equal(t, adminID, f.audit.entries[0].UserID.String())
}

func TestCreateTaxRuleRejectsBadInput(t *testing.T) {
	f := newTaxFixture(t)

	_, err := f.svc.CreateTaxRule(context.Background(), CreateTaxRuleRequest{
		Name: "Broken", TaxType: "VAT", Rate: "abc", EffectiveDate: "2025-01-01",
	}, "")
	assert.Error(t, err)

	_, err = f.svc.CreateTaxRule(context.Background(), CreateTaxRuleRequest{
		Name: "Broken", TaxType: "VAT", Rate: "5", EffectiveDate: "01/01/2025",
	}, "")
	assert.Error(t, err)

	assert.Empty(t, f.rules.rules)
}

func TestUpdateTaxRuleDeactivationIsAudited(t *testing.T) {
	f := newTaxFixture(t)
	rule := f.addRule(vatRule())

	inactive := false
	_, err := f.svc.UpdateTaxRule(context.Background(), rule.ID.String(), UpdateTaxRuleRequest{
		Name:          rule.Name,
		TaxType:       rule.TaxType,
		Rate:          "7.5",
		EffectiveDate: "2025-01-01",
		IsActive:      &inactive,
	}, uuid.New().String())
	require.NoError(t, err)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.ActionDeactivateTaxRule, f.audit.entries[0].Action)
	assert.False(t, f.rules.rules[0].IsActive)
}

func TestUpdatedRuleDoesNotRewriteHistory(t *testing.T) {
	f := newTaxFixture(t)
	rule := f.addRule(vatRule())

	tx := f.transaction(1000)
	require.NoError(t, f.svc.ProcessTaxesForTransaction(context.Background(), tx))

	// Double the rate, then re-check the persisted calculation.
	_, err := f.svc.UpdateTaxRule(context.Background(), rule.ID.String(), UpdateTaxRuleRequest{
		Name:          rule.Name,
		TaxType:       rule.TaxType,
		Rate:          "15",
		EffectiveDate: "2025-01-01",
	}, "")
	require.NoError(t, err)

	require.Len(t, f.records.calcs, 1)
	assert.Equal(t, "7.5", f.records.calcs[0].TaxRate.String())
	assert.Equal(t, "75.00", f.records.calcs[0].TaxAmount.StringFixed(2))
}
