// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/billwise/billwise/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	IncrementUserBalance(ctx context.Context, userID string, points int, cashback float64) error

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.Transaction, error)
	GetOutgoingTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetLatestOutgoingTransaction(ctx context.Context, userID, merchant, description string) (*model.Transaction, error)

	// Bill operations
	ReplaceBills(ctx context.Context, userID string, bills []model.Bill) ([]model.Bill, error)
	GetBills(ctx context.Context, userID string) ([]model.Bill, error)
	GetBillsByFrequency(ctx context.Context, userID string, frequency model.Frequency) ([]model.Bill, error)
	GetBillsByRecurring(ctx context.Context, userID string, recurring bool) ([]model.Bill, error)
	GetBillByID(ctx context.Context, id string) (*model.Bill, error)
	FindBill(ctx context.Context, userID, merchant, description string) (*model.Bill, error)

	// Pending bill operations
	ReplacePendingBills(ctx context.Context, userID string, pending []model.PendingBill) ([]model.PendingBill, error)
	GetPendingBills(ctx context.Context, userID string) ([]model.PendingBill, error)
	GetPendingBillByID(ctx context.Context, id string) (*model.PendingBill, error)
	MarkPendingBillPaid(ctx context.Context, id string) error

	// History and reward ledger operations
	SaveTransactionHistory(ctx context.Context, history *model.TransactionHistory) error
	GetTransactionHistory(ctx context.Context, userID string) ([]model.TransactionHistory, error)
	SaveReward(ctx context.Context, reward *model.Reward) error
	GetRewards(ctx context.Context, userID string) ([]model.Reward, error)
	GetMonthlyRewardTotals(ctx context.Context, userID string, year int) (map[time.Month]int, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
