package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptStatus enum constants
const (
	ReceiptIssued    = "Issued"
	ReceiptCancelled = "Cancelled"
	ReceiptAmended   = "Amended"
)

// RevenueType / Source constants used when recognizing tax revenue
const (
	RevenueTypeTax    = "Tax"
	RevenueSourceSale = "Transaction"
)

// TaxRule is a standing policy describing when and how much tax applies to a
// transaction. Rules are deactivated or superseded by date range, never deleted.
type TaxRule struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name               string          `gorm:"type:varchar(100);not null" json:"name"`
	TaxType            string          `gorm:"type:varchar(50);not null;index" json:"tax_type"` // VAT, Export, Income, ...
	Rate               decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"`         // percentage, e.g. 7.5
	MinAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"min_amount"`
	MaxAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"max_amount"` // 0 = no upper bound
	ApplicableCategory string          `gorm:"type:varchar(100)" json:"applicable_category"`            // empty = all categories
	ApplicableLocation string          `gorm:"type:varchar(100)" json:"applicable_location"`            // empty = all locations
	IsActive           bool            `gorm:"not null;default:true;index" json:"is_active"`
	EffectiveDate      time.Time       `gorm:"not null;index" json:"effective_date"`
	ExpiryDate         *time.Time      `gorm:"index" json:"expiry_date"` // nil = never expires
	Description        string          `gorm:"type:varchar(500)" json:"description"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// AppliesTo reports whether the rule taxes a transaction with the given total,
// product category and product location at the given instant. All seven
// conditions must hold: active, inside the effective window, category and
// location filters admit the product, and the total sits inside the amount
// bounds (MaxAmount of zero means unbounded).
func (r TaxRule) AppliesTo(total decimal.Decimal, category, location string, now time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.EffectiveDate.After(now) {
		return false
	}
	if r.ExpiryDate != nil && r.ExpiryDate.Before(now) {
		return false
	}
	if r.ApplicableCategory != "" && r.ApplicableCategory != category {
		return false
	}
	if r.ApplicableLocation != "" && r.ApplicableLocation != location {
		return false
	}
	if total.LessThan(r.MinAmount) {
		return false
	}
	if !r.MaxAmount.IsZero() && total.GreaterThan(r.MaxAmount) {
		return false
	}
	return true
}

// TaxCalculation is one computed tax line for one rule against one transaction.
// Base amount and rate are snapshotted at computation time so later rule edits
// never change history. Never mutated after creation.
type TaxCalculation struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID int64           `gorm:"not null;index" json:"transaction_id"`
	Transaction   *Transaction    `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	TaxRuleID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"tax_rule_id"`
	TaxRule       *TaxRule        `gorm:"foreignKey:TaxRuleID" json:"tax_rule,omitempty"`
	BaseAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"base_amount"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"tax_rate"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	TaxType       string          `gorm:"type:varchar(50);not null" json:"tax_type"`
	CalculatedAt  time.Time       `gorm:"not null" json:"calculated_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// GovernmentRevenue is a ledger entry recording recognized public revenue,
// derived 1:1 from a tax calculation.
type GovernmentRevenue struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	RevenueDate      time.Time       `gorm:"not null;index" json:"revenue_date"`
	RevenueType      string          `gorm:"type:varchar(50);not null" json:"revenue_type"` // Tax, License, Fee
	Source           string          `gorm:"type:varchar(100);not null" json:"source"`      // Transaction, Mining License
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Category         string          `gorm:"type:varchar(100);index" json:"category"` // VAT, Export Tax, ...
	Location         string          `gorm:"type:varchar(100)" json:"location"`
	TransactionID    *int64          `gorm:"index" json:"transaction_id"`
	Transaction      *Transaction    `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	TaxCalculationID *int64          `gorm:"index" json:"tax_calculation_id"`
	TaxCalculation   *TaxCalculation `gorm:"foreignKey:TaxCalculationID" json:"tax_calculation,omitempty"`
	Description      string          `gorm:"type:varchar(200)" json:"description"`
	ReferenceNumber  string          `gorm:"type:varchar(100);index" json:"reference_number"` // REV-YYYYMMDD-NNNNNN
	CreatedAt        time.Time       `json:"created_at"`
}

// TaxReceipt is the payer-facing aggregate summarizing all tax lines for one
// transaction. Only Status changes after issuance.
type TaxReceipt struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ReceiptNumber     string          `gorm:"type:varchar(50);index;not null" json:"receipt_number"` // TR-YYYYMMDD-NNNNNN
	TransactionID     int64           `gorm:"not null;index" json:"transaction_id"`
	Transaction       *Transaction    `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	PayerID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"payer_id"`
	Payer             *UserProfile    `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
	TotalTaxAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_tax_amount"`
	TransactionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"transaction_amount"`
	PayerName         string          `gorm:"type:varchar(200)" json:"payer_name"`
	PayerEmail        string          `gorm:"type:varchar(200)" json:"payer_email"`
	TaxBreakdown      string          `gorm:"type:text" json:"tax_breakdown"` // JSON array of tax lines
	Status            string          `gorm:"type:varchar(50);not null;default:'Issued'" json:"status"`
	IssuedDate        time.Time       `gorm:"not null" json:"issued_date"`
	CreatedAt         time.Time       `json:"created_at"`
}
