package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleAdmin    = "admin"
	RoleSeller   = "seller"
	RoleBuyer    = "buyer"
	RoleInvestor = "investor"
)

// UserProfile represents a registered user of the hub (buyer, seller, investor or admin)
type UserProfile struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName    string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role         string         `gorm:"type:varchar(50);not null" json:"role"`
	LocationID   *uuid.UUID     `gorm:"type:uuid;index" json:"location_id"`
	Location     *Location      `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	BusinessName string         `gorm:"type:varchar(255)" json:"business_name,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// FullName joins first and last name the way receipts print the payer
func (u UserProfile) FullName() string {
	return u.FirstName + " " + u.LastName
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User      UserProfile `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time   `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
}
