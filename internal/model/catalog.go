package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductCategory groups products for listing and tax-rule applicability
type ProductCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	DefaultUnit string    `gorm:"type:varchar(50)" json:"default_unit"`
}

// Location is a named place products and users are registered against
type Location struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name    string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	City    string    `gorm:"type:varchar(100)" json:"city"`
	State   string    `gorm:"type:varchar(100)" json:"state"`
	Country string    `gorm:"type:varchar(100)" json:"country"`
}

// Product represents a marketplace listing owned by a seller
type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Price       decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"price"`
	Quantity    int              `gorm:"type:int;default:0;not null" json:"quantity"`
	Unit        string           `gorm:"type:varchar(50)" json:"unit"`
	ImageURL    string           `gorm:"type:varchar(500)" json:"image_url"`
	SellerID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"seller_id"`
	Seller      *UserProfile     `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	CategoryID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *ProductCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	LocationID  *uuid.UUID       `gorm:"type:uuid;index" json:"location_id"`
	Location    *Location        `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}
