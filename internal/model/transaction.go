package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus enum constants
const (
	TransactionPending   = "Pending"
	TransactionCompleted = "Completed"
	TransactionCancelled = "Cancelled"
)

// Transaction is an immutable-after-completion record of a marketplace sale.
// The numeric primary key feeds the TR-YYYYMMDD-NNNNNN receipt number, so it
// stays an auto-increment integer rather than a UUID.
type Transaction struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product              *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	BuyerID              uuid.UUID       `gorm:"type:uuid;not null;index" json:"buyer_id"`
	Buyer                *UserProfile    `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Quantity             int             `gorm:"type:int;not null" json:"quantity"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	Status               string          `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"` // Pending, Completed, Cancelled
	PaymentMethod        string          `gorm:"type:varchar(50)" json:"payment_method"`
	TransactionReference string          `gorm:"type:varchar(100);index" json:"transaction_reference"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
