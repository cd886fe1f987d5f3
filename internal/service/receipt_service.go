package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/shopspring/decimal"
)

// --- Interface ---

// ReceiptService renders persisted receipts and transactions into printable
// HTML documents. Pure formatting, no business logic.
type ReceiptService interface {
	RenderTaxReceipt(receipt *model.TaxReceipt) (string, error)
	RenderPaymentReceipt(tx *model.Transaction) (string, error)
}

type receiptService struct {
	taxTmpl     *template.Template
	paymentTmpl *template.Template
}

func NewReceiptService() ReceiptService {
	return &receiptService{
		taxTmpl:     template.Must(template.New("tax_receipt").Parse(taxReceiptTemplate)),
		paymentTmpl: template.Must(template.New("payment_receipt").Parse(paymentReceiptTemplate)),
	}
}

type taxReceiptView struct {
	ReceiptNumber     string
	IssuedDate        string
	PayerName         string
	PayerEmail        string
	TransactionAmount string
	TotalTaxAmount    string
	TaxBreakdown      string
	Status            string
}

func (s *receiptService) RenderTaxReceipt(receipt *model.TaxReceipt) (string, error) {
	view := taxReceiptView{
		ReceiptNumber:     receipt.ReceiptNumber,
		IssuedDate:        receipt.IssuedDate.Format("2006-01-02 15:04"),
		PayerName:         receipt.PayerName,
		PayerEmail:        receipt.PayerEmail,
		TransactionAmount: receipt.TransactionAmount.StringFixed(2),
		TotalTaxAmount:    receipt.TotalTaxAmount.StringFixed(2),
		TaxBreakdown:      receipt.TaxBreakdown,
		Status:            receipt.Status,
	}

	var buf bytes.Buffer
	if err := s.taxTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render tax receipt: %w", err)
	}
	return buf.String(), nil
}

type paymentReceiptView struct {
	TransactionID        int64
	TransactionReference string
	Date                 string
	CustomerName         string
	CustomerEmail        string
	ProductName          string
	Quantity             int
	UnitPrice            string
	TotalAmount          string
	PaymentMethod        string
	Status               string
}

func (s *receiptService) RenderPaymentReceipt(tx *model.Transaction) (string, error) {
	if tx.Product == nil || tx.Buyer == nil {
		return "", fmt.Errorf("transaction %d is missing product or buyer details", tx.ID)
	}

	unitPrice := decimal.Zero
	if tx.Quantity > 0 {
		unitPrice = tx.TotalAmount.Div(decimal.NewFromInt(int64(tx.Quantity))).Round(2)
	}

	view := paymentReceiptView{
		TransactionID:        tx.ID,
		TransactionReference: tx.TransactionReference,
		Date:                 tx.CreatedAt.Format("January 02, 2006 at 03:04 PM"),
		CustomerName:         tx.Buyer.FullName(),
		CustomerEmail:        tx.Buyer.Email,
		ProductName:          tx.Product.Name,
		Quantity:             tx.Quantity,
		UnitPrice:            unitPrice.StringFixed(2),
		TotalAmount:          tx.TotalAmount.StringFixed(2),
		PaymentMethod:        tx.PaymentMethod,
		Status:               tx.Status,
	}

	var buf bytes.Buffer
	if err := s.paymentTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render payment receipt: %w", err)
	}
	return buf.String(), nil
}

const taxReceiptTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>Tax Receipt - {{.ReceiptNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { text-align: center; margin-bottom: 30px; }
        .receipt-info { margin-bottom: 20px; }
        .tax-details { margin-top: 20px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Kogi State Government</h1>
        <h2>Tax Receipt</h2>
        <p>Receipt Number: {{.ReceiptNumber}}</p>
    </div>

    <div class="receipt-info">
        <p><strong>Issued Date:</strong> {{.IssuedDate}}</p>
        <p><strong>Payer:</strong> {{.PayerName}}</p>
        <p><strong>Email:</strong> {{.PayerEmail}}</p>
        <p><strong>Transaction Amount:</strong> &#8358;{{.TransactionAmount}}</p>
        <p><strong>Total Tax Amount:</strong> &#8358;{{.TotalTaxAmount}}</p>
        <p><strong>Status:</strong> {{.Status}}</p>
    </div>

    <div class="tax-details">
        <h3>Tax Breakdown</h3>
        <p>{{.TaxBreakdown}}</p>
    </div>

    <div style="margin-top: 40px; text-align: center;">
        <p><em>This is an automatically generated tax receipt.</em></p>
    </div>
</body>
</html>`

const paymentReceiptTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>Payment Receipt</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { text-align: center; margin-bottom: 30px; }
        .receipt-details { margin-bottom: 20px; }
        .receipt-table { width: 100%; border-collapse: collapse; }
        .receipt-table th, .receipt-table td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        .receipt-table th { background-color: #f2f2f2; }
        .total { font-weight: bold; font-size: 18px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>KogiExportHub</h1>
        <h2>Payment Receipt</h2>
    </div>

    <div class="receipt-details">
        <p><strong>Receipt #:</strong> {{.TransactionID}}</p>
        <p><strong>Transaction Reference:</strong> {{.TransactionReference}}</p>
        <p><strong>Date:</strong> {{.Date}}</p>
        <p><strong>Customer:</strong> {{.CustomerName}}</p>
        <p><strong>Email:</strong> {{.CustomerEmail}}</p>
    </div>

    <table class="receipt-table">
        <thead>
            <tr>
                <th>Product</th>
                <th>Quantity</th>
                <th>Unit Price</th>
                <th>Total</th>
            </tr>
        </thead>
        <tbody>
            <tr>
                <td>{{.ProductName}}</td>
                <td>{{.Quantity}}</td>
                <td>&#8358;{{.UnitPrice}}</td>
                <td>&#8358;{{.TotalAmount}}</td>
            </tr>
        </tbody>
    </table>

    <div style="margin-top: 20px; text-align: right;">
        <p class="total">Total Amount: &#8358;{{.TotalAmount}}</p>
        <p><strong>Payment Method:</strong> {{.PaymentMethod}}</p>
        <p><strong>Status:</strong> {{.Status}}</p>
    </div>

    <div style="margin-top: 30px; text-align: center; font-size: 12px; color: #666;">
        <p>Thank you for your business!</p>
        <p>For any inquiries, please contact us at support@kogiexporthub.com</p>
    </div>
</body>
</html>`
