package database

import (
	"log"
	"time"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.UserProfile{},
		&model.RefreshToken{},
		&model.ProductCategory{},
		&model.Location{},
		&model.Product{},
		&model.Transaction{},
		&model.TaxRule{},
		&model.TaxCalculation{},
		&model.GovernmentRevenue{},
		&model.TaxReceipt{},
		&model.InfrastructureProposal{},
		&model.FundingRequest{},
		&model.FundingContribution{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Seed inserts reference data (categories, locations, a default VAT rule) on an
// empty database. Safe to call on every boot.
func Seed(db *gorm.DB) error {
	var count int64

	if err := db.Model(&model.ProductCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		categories := []model.ProductCategory{
			{Name: "Agricultural Products", Description: "Farm produce and agricultural goods", DefaultUnit: "kg"},
			{Name: "Minerals", Description: "Mined resources and minerals", DefaultUnit: "ton"},
			{Name: "Crafts", Description: "Handmade crafts and artisanal products", DefaultUnit: "piece"},
			{Name: "Services", Description: "Professional services offered", DefaultUnit: "hour"},
		}
		if err := db.Create(&categories).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.Location{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		names := []string{
			"Adavi", "Ajaokuta", "Ankpa", "Bassa", "Dekina", "Ibaji", "Idah",
			"Igalamela-Odolu", "Ijumu", "Kabba/Bunu", "Kogi", "Lokoja",
			"Mopa-Muro", "Ofu", "Ogori/Magongo", "Okehi", "Okene", "Olamaboro",
			"Omala", "Yagba East", "Yagba West",
		}
		locations := make([]model.Location, 0, len(names))
		for _, name := range names {
			locations = append(locations, model.Location{
				Name: name, City: name, State: "Kogi", Country: "Nigeria",
			})
		}
		if err := db.Create(&locations).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&model.TaxRule{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		vat := model.TaxRule{
			Name:          "Standard VAT",
			TaxType:       "VAT",
			Rate:          decimal.NewFromFloat(7.5),
			MinAmount:     decimal.Zero,
			MaxAmount:     decimal.Zero,
			IsActive:      true,
			EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Description:   "Value added tax on all marketplace sales",
		}
		if err := db.Create(&vat).Error; err != nil {
			return err
		}
	}

	return nil
}
