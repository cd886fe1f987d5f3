package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateTaxRule     = "CREATE_TAX_RULE"
	ActionUpdateTaxRule     = "UPDATE_TAX_RULE"
	ActionDeactivateTaxRule = "DEACTIVATE_TAX_RULE"

	ActionApproveProposal = "APPROVE_PROPOSAL"
	ActionRejectProposal  = "REJECT_PROPOSAL"
	ActionDisburseFunding = "DISBURSE_FUNDING"

	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID   `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *UserProfile `gorm:"foreignKey:UserID" json:"user"`
	Action     string       `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string       `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string       `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string       `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
}
