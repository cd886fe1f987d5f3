package service

import (
	"testing"
	"time"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTaxReceipt(t *testing.T) {
	svc := NewReceiptService()

	receipt := &model.TaxReceipt{
		ReceiptNumber:     "TR-20250615-000042",
		TotalTaxAmount:    decimal.RequireFromString("95.00"),
		TransactionAmount: decimal.NewFromInt(1000),
		PayerName:         "Amina Bello",
		PayerEmail:        "amina@example.com",
		TaxBreakdown:      `[{"taxType":"VAT","rate":"7.5","baseAmount":"1000","taxAmount":"75"}]`,
		Status:            model.ReceiptIssued,
		IssuedDate:        time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
	}

	html, err := svc.RenderTaxReceipt(receipt)
	require.NoError(t, err)

	assert.Contains(t, html, "Kogi State Government")
	assert.Contains(t, html, "TR-20250615-000042")
	assert.Contains(t, html, "Amina Bello")
	assert.Contains(t, html, "&#8358;95.00")
	assert.Contains(t, html, "&#8358;1000.00")
	assert.Contains(t, html, "2025-06-15 10:30")
	assert.Contains(t, html, model.ReceiptIssued)
}

func TestRenderTaxReceiptEscapesPayerInput(t *testing.T) {
	svc := NewReceiptService()

	receipt := &model.TaxReceipt{
		ReceiptNumber: "TR-20250615-000001",
		PayerName:     `<script>alert("x")</script>`,
		IssuedDate:    time.Now(),
	}

	html, err := svc.RenderTaxReceipt(receipt)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
}

func TestRenderPaymentReceipt(t *testing.T) {
	svc := NewReceiptService()

	tx := &model.Transaction{
		ID:                   42,
		Quantity:             3,
		TotalAmount:          decimal.NewFromInt(1500),
		Status:               model.TransactionCompleted,
		PaymentMethod:        "Flutterwave",
		TransactionReference: "a1b2c3",
		CreatedAt:            time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC),
		Product:              &model.Product{Name: "Cashew Nuts"},
		Buyer: &model.UserProfile{
			FirstName: "Amina",
			LastName:  "Bello",
			Email:     "amina@example.com",
		},
	}

	html, err := svc.RenderPaymentReceipt(tx)
	require.NoError(t, err)

	assert.Contains(t, html, "KogiExportHub")
	assert.Contains(t, html, "Cashew Nuts")
	assert.Contains(t, html, "Amina Bello")
	// Unit price derives from the total divided by quantity.
	assert.Contains(t, html, "&#8358;500.00")
	assert.Contains(t, html, "&#8358;1500.00")
	assert.Contains(t, html, "Flutterwave")
}

func TestRenderPaymentReceiptRequiresLoadedRefs(t *testing.T) {
	svc := NewReceiptService()

	_, err := svc.RenderPaymentReceipt(&model.Transaction{ID: 1})
	assert.Error(t, err)
}
