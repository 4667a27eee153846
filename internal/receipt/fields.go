package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Receipt text field patterns. Transaction ids follow the aggregator's
// txn_ token convention; dates are the first ISO occurrence; amounts
// tolerate comma-separated thousands.
var (
	transactionIDPattern = regexp.MustCompile(`Transaction ID[:\s]*\s*(txn_[A-Za-z0-9_]+)`)
	datePattern          = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	amountPattern        = regexp.MustCompile(`Amount:\s*\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
)

// fields holds the structured values parsed out of receipt text.
type fields struct {
	Date          time.Time
	TransactionID string
	Amount        float64
	HasDate       bool
	HasAmount     bool
}

// parseFields extracts the transaction id, date, and amount from receipt
// text. Missing fields are reported through the Has flags rather than
// errors so the caller can reject each absence with its own reason.
func parseFields(text string) fields {
	var f fields

	if m := transactionIDPattern.FindStringSubmatch(text); m != nil {
		f.TransactionID = m[1]
	}

	if m := datePattern.FindString(text); m != "" {
		if date, err := time.Parse("2006-01-02", m); err == nil {
			f.Date = date
			f.HasDate = true
		}
	}

	if m := amountPattern.FindStringSubmatch(text); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			f.Amount = amount
			f.HasAmount = true
		}
	}

	return f
}

// parseAmount parses a user-asserted amount string, tolerating a leading
// dollar sign and comma separators.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return strconv.ParseFloat(cleaned, 64)
}

// sameCents compares two amounts at cent precision; a single cent of
// difference is a mismatch.
func sameCents(a, b float64) bool {
	return toCents(a) == toCents(b)
}

func toCents(v float64) int64 {
	if v < 0 {
		v = -v
	}
	return int64(v*100 + 0.5)
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
