// Package project computes the next-instance projection (due date and
// amount) for each detected bill.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/service"
)

// fallbackOffsetDays is used when the cadence gives no usable offset.
const fallbackOffsetDays = 30

// Projector replaces a user's pending-bill set with fresh projections,
// one per detected bill.
type Projector struct {
	storage service.Storage
	logger  *slog.Logger
}

// New creates a projector backed by the given storage.
func New(storage service.Storage) *Projector {
	return &Projector{
		storage: storage,
		logger:  slog.Default().With("component", "project"),
	}
}

// Run projects the next instance of every bill for the user and replaces
// the stored pending set. Per-bill projections share no mutable state, so
// they are fanned out concurrently and joined before the replace.
func (p *Projector) Run(ctx context.Context, userID string) ([]model.PendingBill, error) {
	bills, err := p.storage.GetBills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bills: %w", err)
	}

	p.logger.Info("Projecting upcoming bills", "user", userID, "bills", len(bills))

	pending := make([]model.PendingBill, len(bills))
	errs := make([]error, len(bills))

	var wg sync.WaitGroup
	for i, bill := range bills {
		wg.Add(1)
		go func(i int, bill model.Bill) {
			defer wg.Done()
			pending[i], errs[i] = p.project(ctx, bill)
		}(i, bill)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("projection failed: %w", err)
	}

	inserted, err := p.storage.ReplacePendingBills(ctx, userID, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to replace pending bills: %w", err)
	}

	return inserted, nil
}

// project builds one pending bill from the latest matching transaction,
// falling back to the bill's own aggregates when no transaction matches.
func (p *Projector) project(ctx context.Context, bill model.Bill) (model.PendingBill, error) {
	lastDate := bill.CreatedAt
	nextAmount := bill.AvgAmount

	last, err := p.storage.GetLatestOutgoingTransaction(ctx, bill.UserID, bill.Merchant, bill.Description)
	switch {
	case err == nil:
		lastDate = last.Date
		nextAmount = last.Amount
	case errors.Is(err, common.ErrNotFound):
		// Keep the fallback values.
	default:
		return model.PendingBill{}, fmt.Errorf("bill %s: %w", bill.ID, err)
	}

	return model.PendingBill{
		UserID:          bill.UserID,
		BillID:          bill.ID,
		Merchant:        bill.Merchant,
		Description:     bill.Description,
		NextAmount:      nextAmount,
		LastPaidDate:    lastDate,
		NextPaymentDate: NextPaymentDate(lastDate, bill.Frequency),
		Status:          model.PendingStatusPending,
	}, nil
}

// NextPaymentDate projects the next due date from the last observed
// payment. Monthly advances by one calendar month; everything without a
// usable cadence falls back to 30 days.
func NextPaymentDate(last time.Time, freq model.Frequency) time.Time {
	switch freq {
	case model.FrequencyWeekly:
		return last.AddDate(0, 0, 7)
	case model.FrequencyBiweekly:
		return last.AddDate(0, 0, 14)
	case model.FrequencyMonthly:
		return last.AddDate(0, 1, 0)
	default:
		return last.AddDate(0, 0, fallbackOffsetDays)
	}
}
