package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProposalStatus enum constants
const (
	ProposalPending  = "Pending"
	ProposalApproved = "Approved"
	ProposalRejected = "Rejected"
	ProposalFunded   = "Funded"
)

// ContributionStatus enum constants
const (
	ContributionPending   = "Pending"
	ContributionCompleted = "Completed"
	ContributionRefunded  = "Refunded"
)

// DisbursementStatus enum constants
const (
	DisbursementPending   = "Pending"
	DisbursementCompleted = "Completed"
	DisbursementFailed    = "Failed"
)

// InfrastructureProposal is a civic project seeking public funding
type InfrastructureProposal struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	EstimatedCost decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"estimated_cost"`
	LocationID    *uuid.UUID      `gorm:"type:uuid;index" json:"location_id"`
	Location      *Location       `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	ProposerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"proposer_id"`
	Proposer      *UserProfile    `gorm:"foreignKey:ProposerID" json:"proposer,omitempty"`
	Status        string          `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	AdminComments string          `gorm:"type:text" json:"admin_comments"`
	ApprovalDate  *time.Time      `json:"approval_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// FundingRequest asks for a concrete amount against an approved proposal
type FundingRequest struct {
	ID              uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProposalID      uuid.UUID               `gorm:"type:uuid;not null;index" json:"proposal_id"`
	Proposal        *InfrastructureProposal `gorm:"foreignKey:ProposalID" json:"proposal,omitempty"`
	RequesterID     uuid.UUID               `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester       *UserProfile            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	AmountRequested decimal.Decimal         `gorm:"type:decimal(18,2);not null" json:"amount_requested"`
	AmountApproved  *decimal.Decimal        `gorm:"type:decimal(18,2)" json:"amount_approved"`
	FundingType     string                  `gorm:"type:varchar(50);not null" json:"funding_type"` // Grant, Loan, Investment
	Status          string                  `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	RejectionReason string                  `gorm:"type:text" json:"rejection_reason"`
	AdminComments   string                  `gorm:"type:text" json:"admin_comments"`
	ApprovalDate    *time.Time              `json:"approval_date"`

	// Disbursement bookkeeping, filled once the transfer is initiated
	RecipientAccountNumber string     `gorm:"type:varchar(20)" json:"recipient_account_number"`
	RecipientBankCode      string     `gorm:"type:varchar(10)" json:"recipient_bank_code"`
	RecipientAccountName   string     `gorm:"type:varchar(200)" json:"recipient_account_name"`
	DisbursementTransferID string     `gorm:"type:varchar(100)" json:"disbursement_transfer_id"`
	DisbursementReference  string     `gorm:"type:varchar(100)" json:"disbursement_reference"`
	DisbursementStatus     string     `gorm:"type:varchar(20)" json:"disbursement_status"`
	DisbursementDate       *time.Time `json:"disbursement_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FundingContribution is one contributor's payment toward a funding request
type FundingContribution struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FundingRequestID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"funding_request_id"`
	FundingRequest       *FundingRequest `gorm:"foreignKey:FundingRequestID" json:"funding_request,omitempty"`
	ContributorID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"contributor_id"`
	Contributor          *UserProfile    `gorm:"foreignKey:ContributorID" json:"contributor,omitempty"`
	Amount               decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	TransactionReference string          `gorm:"type:varchar(100);index" json:"transaction_reference"`
	Status               string          `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
