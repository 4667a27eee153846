// Package frequency infers a payment cadence from observed payment dates.
package frequency

import (
	"math"
	"sort"
	"time"

	"github.com/billwise/billwise/internal/model"
)

// Cadence thresholds over the mean gap in days between consecutive
// payments. Boundaries are strict: a mean of exactly 25 or 35 days stays
// irregular, which keeps the recurring decision downstream conservative.
const (
	monthlyLow   = 25.0
	monthlyHigh  = 35.0
	weeklyLow    = 4.0
	weeklyHigh   = 9.0
	biweeklyHigh = 16.0
)

// Classify estimates the cadence of a payment series from its dates. The
// input may be unsorted and may contain duplicates; dates are sorted
// ascending before gaps are computed so the result does not depend on
// input order. Fewer than two dates is insufficient signal.
func Classify(dates []time.Time) model.Frequency {
	if len(dates) < 2 {
		return model.FrequencyIrregular
	}

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var total float64
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Sub(sorted[i-1]).Hours() / 24
		total += math.Abs(gap)
	}
	mean := total / float64(len(sorted)-1)

	switch {
	case mean > monthlyLow && mean < monthlyHigh:
		return model.FrequencyMonthly
	case mean > weeklyLow && mean <= weeklyHigh:
		return model.FrequencyWeekly
	case mean > weeklyHigh && mean < biweeklyHigh:
		return model.FrequencyBiweekly
	default:
		return model.FrequencyIrregular
	}
}
