package plaid

import (
	"context"
	"time"

	"github.com/billwise/billwise/internal/model"
)

// TransactionFetcher defines the contract for fetching transaction data.
// This interface allows for easy mocking in tests and swapping data sources.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, userID string, startDate, endDate time.Time) ([]model.Transaction, error)
}
