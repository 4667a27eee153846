// Package detect classifies a user's outgoing transaction stream into
// recurring (and one-off) bill series.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/billwise/billwise/internal/category"
	"github.com/billwise/billwise/internal/frequency"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/service"
)

// A bill series needs at least this many observed payments before its
// cadence can mark it recurring.
const minOccurrences = 2

// Detector groups outgoing transactions into bill series and replaces the
// user's bill set with the result.
type Detector struct {
	storage service.Storage
	logger  *slog.Logger
}

// New creates a detector backed by the given storage.
func New(storage service.Storage) *Detector {
	return &Detector{
		storage: storage,
		logger:  slog.Default().With("component", "detect"),
	}
}

// groupKey is the exact identity of a bill series.
type groupKey struct {
	merchant    string
	description string
}

// group accumulates per-series stats during detection.
type group struct {
	dates []time.Time
	total float64
	count int
}

// Run detects bills from the user's outgoing transactions and replaces
// the stored bill set wholesale. The replace is transactional: a failure
// leaves the previous set intact.
func (d *Detector) Run(ctx context.Context, userID string) ([]model.Bill, error) {
	transactions, err := d.storage.GetOutgoingTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	d.logger.Info("Detecting bills",
		"user", userID,
		"outgoing_transactions", len(transactions))

	groups := make(map[groupKey]*group)
	for _, txn := range transactions {
		key := groupKey{merchant: txn.Merchant, description: txn.Description}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.count++
		g.total += txn.Amount
		g.dates = append(g.dates, txn.Date)
	}

	// Deterministic output order regardless of map iteration.
	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].merchant != keys[j].merchant {
			return keys[i].merchant < keys[j].merchant
		}
		return keys[i].description < keys[j].description
	})

	bills := make([]model.Bill, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		bills = append(bills, d.buildBill(userID, key, g))
	}

	inserted, err := d.storage.ReplaceBills(ctx, userID, bills)
	if err != nil {
		return nil, fmt.Errorf("failed to replace bills: %w", err)
	}

	d.logger.Info("Bill detection complete",
		"user", userID,
		"bills", len(inserted))

	return inserted, nil
}

func (d *Detector) buildBill(userID string, key groupKey, g *group) model.Bill {
	freq := frequency.Classify(g.dates)
	recurring := g.count >= minOccurrences && freq.Regular()

	merchant := key.merchant
	if merchant == "" {
		merchant = "Unknown"
	}
	description := key.description
	if description == "" {
		description = "No description"
	}

	return model.Bill{
		UserID:           userID,
		Merchant:         merchant,
		Description:      description,
		AvgAmount:        g.total / float64(g.count),
		Frequency:        freq,
		TotalOccurrences: g.count,
		Recurring:        recurring,
		Verified:         false,
		BillType:         category.Classify(merchant + " " + description),
	}
}
