package service

import (
	"context"
	"testing"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Additional fakes for the checkout flow ---

type fakeTransactionRepo struct {
	transactions []model.Transaction
}

func (f *fakeTransactionRepo) Create(_ context.Context, tx *model.Transaction) error {
	tx.ID = int64(len(f.transactions) + 1)
	f.transactions = append(f.transactions, *tx)
	return nil
}

func (f *fakeTransactionRepo) Update(_ context.Context, tx *model.Transaction) error {
	for i := range f.transactions {
		if f.transactions[i].ID == tx.ID {
			f.transactions[i] = *tx
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeTransactionRepo) FindByID(_ context.Context, id int64) (*model.Transaction, error) {
	for i := range f.transactions {
		if f.transactions[i].ID == id {
			tx := f.transactions[i]
			return &tx, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTransactionRepo) FindByReference(_ context.Context, reference string) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, tx := range f.transactions {
		if tx.TransactionReference == reference {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTransactionRepo) ListByBuyer(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Transaction, int64, error) {
	return f.transactions, int64(len(f.transactions)), nil
}

func (f *fakeTransactionRepo) ListBySeller(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Transaction, int64, error) {
	return f.transactions, int64(len(f.transactions)), nil
}

type fakePaymentService struct {
	initRequests []InitializePaymentRequest
	txRef        string
	verification PaymentVerification
}

func (f *fakePaymentService) InitializePayment(_ context.Context, req InitializePaymentRequest) (*PaymentInitResult, error) {
	f.initRequests = append(f.initRequests, req)
	return &PaymentInitResult{PaymentLink: "https://checkout.example/pay", TxRef: f.txRef}, nil
}

func (f *fakePaymentService) VerifyPayment(_ context.Context, _ string) (*PaymentVerification, error) {
	v := f.verification
	return &v, nil
}

func (f *fakePaymentService) InitiateTransfer(_ context.Context, _ TransferRequest) (*TransferResult, error) {
	return &TransferResult{TransferID: "987", Reference: "DISB-ref", Status: "NEW"}, nil
}

func (f *fakePaymentService) VerifyTransfer(_ context.Context, _ string) (*TransferResult, error) {
	return &TransferResult{TransferID: "987", Reference: "DISB-ref", Status: "SUCCESSFUL"}, nil
}

func (f *fakePaymentService) ListBanks(_ context.Context) ([]Bank, error) { return nil, nil }

func (f *fakePaymentService) ValidateAccount(_ context.Context, accountNumber, _ string) (*AccountValidation, error) {
	return &AccountValidation{AccountNumber: accountNumber, AccountName: "LOKOJA ROADS LTD"}, nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- Fixture ---

type marketFixture struct {
	*taxFixture
	svc      MarketplaceService
	txRepo   *fakeTransactionRepo
	payments *fakePaymentService
}

func newMarketFixture(t *testing.T) *marketFixture {
	t.Helper()

	base := newTaxFixture(t)
	txRepo := &fakeTransactionRepo{}
	payments := &fakePaymentService{txRef: "ref-123"}

	svc := NewMarketplaceService(base.products, txRepo, base.users, payments, base.svc, fakeTxManager{})

	return &marketFixture{
		taxFixture: base,
		svc:        svc,
		txRepo:     txRepo,
		payments:   payments,
	}
}

// --- Tests ---

func TestCheckoutCreatesPendingTransactions(t *testing.T) {
	f := newMarketFixture(t)

	second := &model.Product{
		ID:       uuid.New(),
		Name:     "Sesame Seeds",
		Price:    decimal.NewFromInt(200),
		Quantity: 10,
		Category: &model.ProductCategory{Name: "Agriculture"},
		Location: &model.Location{Name: "Lokoja"},
	}
	f.products.products[second.ID] = second

	result, err := f.svc.Checkout(context.Background(), f.buyer.ID.String(), CheckoutRequest{
		Items: []CheckoutItem{
			{ProductID: f.product.ID.String(), Quantity: 2},
			{ProductID: second.ID.String(), Quantity: 5},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.example/pay", result.PaymentLink)
	assert.Equal(t, "ref-123", result.TxRef)
	assert.Equal(t, "2000.00", result.Total) // 2*500 + 5*200
	require.Len(t, result.TransactionIDs, 2)

	// One gateway initialization for the whole cart.
	require.Len(t, f.payments.initRequests, 1)
	assert.Equal(t, "2000", f.payments.initRequests[0].Amount.String())
	assert.Equal(t, f.buyer.Email, f.payments.initRequests[0].CustomerEmail)

	// One pending transaction per line, all sharing the gateway reference.
	require.Len(t, f.txRepo.transactions, 2)
	for _, tx := range f.txRepo.transactions {
		assert.Equal(t, model.TransactionPending, tx.Status)
		assert.Equal(t, "ref-123", tx.TransactionReference)
		assert.Equal(t, f.buyer.ID, tx.BuyerID)
	}
	assert.Equal(t, "1000.00", f.txRepo.transactions[0].TotalAmount.StringFixed(2))
	assert.Equal(t, "1000.00", f.txRepo.transactions[1].TotalAmount.StringFixed(2))
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	f := newMarketFixture(t)
	f.product.Quantity = 1

	_, err := f.svc.Checkout(context.Background(), f.buyer.ID.String(), CheckoutRequest{
		Items: []CheckoutItem{{ProductID: f.product.ID.String(), Quantity: 2}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient stock")
	assert.Empty(t, f.txRepo.transactions)
	assert.Empty(t, f.payments.initRequests)
}

func TestCompleteCheckoutRunsTaxPipeline(t *testing.T) {
	f := newMarketFixture(t)
	f.addRule(vatRule())

	_, err := f.svc.Checkout(context.Background(), f.buyer.ID.String(), CheckoutRequest{
		Items: []CheckoutItem{{ProductID: f.product.ID.String(), Quantity: 2}},
	})
	require.NoError(t, err)

	completed, err := f.svc.CompleteCheckout(context.Background(), "ref-123")
	require.NoError(t, err)
	require.Len(t, completed, 1)

	// The sale is completed and stock reduced.
	tx := f.txRepo.transactions[0]
	assert.Equal(t, model.TransactionCompleted, tx.Status)
	assert.Equal(t, 98, f.product.Quantity)

	// Tax artifacts exist for the completed transaction.
	require.Len(t, f.records.calcs, 1)
	assert.Equal(t, tx.ID, f.records.calcs[0].TransactionID)
	require.Len(t, f.records.revenues, 1)
	require.Len(t, f.records.receipts, 1)
	assert.Equal(t, "75.00", f.records.receipts[0].TotalTaxAmount.StringFixed(2)) // 7.5% of 1000
}

func TestCompleteCheckoutSkipsAlreadyCompleted(t *testing.T) {
	f := newMarketFixture(t)
	f.addRule(vatRule())

	_, err := f.svc.Checkout(context.Background(), f.buyer.ID.String(), CheckoutRequest{
		Items: []CheckoutItem{{ProductID: f.product.ID.String(), Quantity: 2}},
	})
	require.NoError(t, err)

	first, err := f.svc.CompleteCheckout(context.Background(), "ref-123")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.svc.CompleteCheckout(context.Background(), "ref-123")
	require.NoError(t, err)
	assert.Empty(t, second)

	// Completing twice does not double stock decrements or tax records.
	assert.Equal(t, 98, f.product.Quantity)
	assert.Len(t, f.records.calcs, 1)
}

func TestCompleteCheckoutUnknownReference(t *testing.T) {
	f := newMarketFixture(t)

	_, err := f.svc.CompleteCheckout(context.Background(), "missing-ref")
	assert.Error(t, err)
}
