package category

import (
	"math"

	"github.com/billwise/billwise/internal/model"
)

// RateTable is the immutable reward configuration injected into the
// settlement engine: a per-category point rate, a flat cashback rate that
// ignores category, and a global multiplier applied to the point base
// before rounding.
type RateTable struct {
	Rates           map[model.BillCategory]float64
	DefaultRate     float64
	CashbackRate    float64
	PointMultiplier float64
}

// DefaultRateTable returns the standard reward configuration.
func DefaultRateTable() RateTable {
	return RateTable{
		Rates: map[model.BillCategory]float64{
			model.CategoryHousing:       0.05,
			model.CategoryUtilities:     0.02,
			model.CategorySubscriptions: 0.03,
			model.CategoryInsurance:     0.02,
			model.CategoryLoans:         0.01,
			model.CategoryEducation:     0.02,
			model.CategoryShopping:      0.01,
			model.CategoryHealth:        0.03,
		},
		DefaultRate:     0.01,
		CashbackRate:    0.01,
		PointMultiplier: 2.0,
	}
}

// RateFor returns the point rate for a category, falling back to the
// default rate for unknown categories (including Other).
func (t RateTable) RateFor(cat model.BillCategory) float64 {
	if rate, ok := t.Rates[cat]; ok {
		return rate
	}
	return t.DefaultRate
}

// Points computes the point reward for a signed payment amount. Reward
// math always works on the absolute value since bill amounts are
// negative-signed.
func (t RateTable) Points(amount float64, cat model.BillCategory) int {
	base := math.Abs(amount) * t.RateFor(cat)
	return int(math.Round(base * t.PointMultiplier))
}

// Cashback computes the flat-rate cashback for a signed payment amount,
// rounded to cents.
func (t RateTable) Cashback(amount float64) float64 {
	return math.Round(math.Abs(amount)*t.CashbackRate*100) / 100
}
