package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func baseRule() TaxRule {
	return TaxRule{
		Name:          "Standard VAT",
		TaxType:       "VAT",
		Rate:          decimal.NewFromFloat(7.5),
		MinAmount:     decimal.Zero,
		MaxAmount:     decimal.Zero,
		IsActive:      true,
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTaxRuleAppliesTo(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	total := decimal.NewFromInt(1000)

	tests := []struct {
		name     string
		mutate   func(*TaxRule)
		total    decimal.Decimal
		category string
		location string
		want     bool
	}{
		{
			name: "open rule matches everything",
			want: true,
		},
		{
			name:   "inactive rule never matches",
			mutate: func(r *TaxRule) { r.IsActive = false },
			want:   false,
		},
		{
			name:   "not yet effective",
			mutate: func(r *TaxRule) { r.EffectiveDate = future },
			want:   false,
		},
		{
			name:   "effective today matches",
			mutate: func(r *TaxRule) { r.EffectiveDate = now },
			want:   true,
		},
		{
			name:   "expired rule",
			mutate: func(r *TaxRule) { r.ExpiryDate = &past },
			want:   false,
		},
		{
			name:   "expiring today still matches",
			mutate: func(r *TaxRule) { r.ExpiryDate = &now },
			want:   true,
		},
		{
			name:     "category filter matches",
			mutate:   func(r *TaxRule) { r.ApplicableCategory = "Agriculture" },
			category: "Agriculture",
			want:     true,
		},
		{
			name:     "category filter rejects others",
			mutate:   func(r *TaxRule) { r.ApplicableCategory = "Agriculture" },
			category: "Solid Minerals",
			want:     false,
		},
		{
			name:     "empty category filter admits all",
			category: "Solid Minerals",
			want:     true,
		},
		{
			name:     "location filter matches",
			mutate:   func(r *TaxRule) { r.ApplicableLocation = "Lokoja" },
			location: "Lokoja",
			want:     true,
		},
		{
			name:     "location filter rejects others",
			mutate:   func(r *TaxRule) { r.ApplicableLocation = "Lokoja" },
			location: "Okene",
			want:     false,
		},
		{
			name:   "below minimum amount",
			mutate: func(r *TaxRule) { r.MinAmount = decimal.NewFromInt(5000) },
			want:   false,
		},
		{
			name:   "exactly at minimum matches",
			mutate: func(r *TaxRule) { r.MinAmount = decimal.NewFromInt(1000) },
			want:   true,
		},
		{
			name:   "above maximum amount",
			mutate: func(r *TaxRule) { r.MaxAmount = decimal.NewFromInt(500) },
			want:   false,
		},
		{
			name:   "exactly at maximum matches",
			mutate: func(r *TaxRule) { r.MaxAmount = decimal.NewFromInt(1000) },
			want:   true,
		},
		{
			name: "zero maximum means unbounded",
			mutate: func(r *TaxRule) {
				r.MinAmount = decimal.NewFromInt(100)
				r.MaxAmount = decimal.Zero
			},
			total: decimal.NewFromInt(10_000_000),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := baseRule()
			if tt.mutate != nil {
				tt.mutate(&rule)
			}
			amount := total
			if !tt.total.IsZero() {
				amount = tt.total
			}
			assert.Equal(t, tt.want, rule.AppliesTo(amount, tt.category, tt.location, now))
		})
	}
}
