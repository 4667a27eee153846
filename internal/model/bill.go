package model

import "time"

// Frequency is the inferred payment cadence of a bill series.
type Frequency string

// Frequency constants.
const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyIrregular Frequency = "irregular"
)

// Valid reports whether f is one of the known cadence labels.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyWeekly, FrequencyBiweekly, FrequencyIrregular:
		return true
	}
	return false
}

// Regular reports whether f is a cadence that counts toward the
// recurring-bill threshold.
func (f Frequency) Regular() bool {
	return f == FrequencyMonthly || f == FrequencyWeekly || f == FrequencyBiweekly
}

// Bill represents a detected outgoing payment series for one user, grouped
// by merchant and description.
type Bill struct {
	CreatedAt        time.Time
	ID               string
	UserID           string
	Merchant         string
	Description      string
	BillType         BillCategory
	Frequency        Frequency
	AvgAmount        float64
	TotalOccurrences int
	Recurring        bool
	Verified         bool
}
