package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/service"

	"database/sql"
)

// sqliteTransaction wraps sql.Tx to implement service.Transaction. Every
// method delegates to the shared query helpers with the transaction as the
// executor.
type sqliteTransaction struct {
	tx *sql.Tx
}

func (t *sqliteTransaction) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	return createUser(ctx, t.tx, user)
}

func (t *sqliteTransaction) GetUser(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, t.tx, id)
}

func (t *sqliteTransaction) IncrementUserBalance(ctx context.Context, userID string, points int, cashback float64) error {
	return incrementUserBalance(ctx, t.tx, userID, points, cashback)
}

func (t *sqliteTransaction) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateTransactions(transactions); err != nil {
		return err
	}
	return saveTransactions(ctx, t.tx, transactions)
}

func (t *sqliteTransaction) GetTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	return getTransactions(ctx, t.tx, userID, filter)
}

func (t *sqliteTransaction) GetOutgoingTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	return getOutgoingTransactions(ctx, t.tx, userID)
}

func (t *sqliteTransaction) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	return getTransactionByID(ctx, t.tx, id)
}

func (t *sqliteTransaction) GetLatestOutgoingTransaction(ctx context.Context, userID, merchant, description string) (*model.Transaction, error) {
	return getLatestOutgoingTransaction(ctx, t.tx, userID, merchant, description)
}

func (t *sqliteTransaction) ReplaceBills(ctx context.Context, userID string, bills []model.Bill) ([]model.Bill, error) {
	return replaceBills(ctx, t.tx, userID, bills)
}

func (t *sqliteTransaction) GetBills(ctx context.Context, userID string) ([]model.Bill, error) {
	return queryBills(ctx, t.tx, fmt.Sprintf(
		"SELECT %s FROM bills WHERE user_id = ? ORDER BY merchant, description", billColumns), userID)
}

func (t *sqliteTransaction) GetBillsByFrequency(ctx context.Context, userID string, frequency model.Frequency) ([]model.Bill, error) {
	return queryBills(ctx, t.tx, fmt.Sprintf(
		"SELECT %s FROM bills WHERE user_id = ? AND frequency = ? ORDER BY merchant, description", billColumns),
		userID, string(frequency))
}

func (t *sqliteTransaction) GetBillsByRecurring(ctx context.Context, userID string, recurring bool) ([]model.Bill, error) {
	return queryBills(ctx, t.tx, fmt.Sprintf(
		"SELECT %s FROM bills WHERE user_id = ? AND recurring = ? ORDER BY merchant, description", billColumns),
		userID, recurring)
}

func (t *sqliteTransaction) GetBillByID(ctx context.Context, id string) (*model.Bill, error) {
	return getBillByID(ctx, t.tx, id)
}

func (t *sqliteTransaction) FindBill(ctx context.Context, userID, merchant, description string) (*model.Bill, error) {
	return findBill(ctx, t.tx, userID, merchant, description)
}

func (t *sqliteTransaction) ReplacePendingBills(ctx context.Context, userID string, pending []model.PendingBill) ([]model.PendingBill, error) {
	return replacePendingBills(ctx, t.tx, userID, pending)
}

func (t *sqliteTransaction) GetPendingBills(ctx context.Context, userID string) ([]model.PendingBill, error) {
	return queryPendingBills(ctx, t.tx, fmt.Sprintf(`
		SELECT %s FROM pending_bills
		WHERE user_id = ?
		ORDER BY next_payment_date ASC
	`, pendingColumns), userID)
}

func (t *sqliteTransaction) GetPendingBillByID(ctx context.Context, id string) (*model.PendingBill, error) {
	return getPendingBillByID(ctx, t.tx, id)
}

func (t *sqliteTransaction) MarkPendingBillPaid(ctx context.Context, id string) error {
	return markPendingBillPaid(ctx, t.tx, id)
}

func (t *sqliteTransaction) SaveTransactionHistory(ctx context.Context, history *model.TransactionHistory) error {
	if err := validateHistory(history); err != nil {
		return err
	}
	return saveTransactionHistory(ctx, t.tx, history)
}

func (t *sqliteTransaction) GetTransactionHistory(ctx context.Context, userID string) ([]model.TransactionHistory, error) {
	return getTransactionHistory(ctx, t.tx, userID)
}

func (t *sqliteTransaction) SaveReward(ctx context.Context, reward *model.Reward) error {
	if err := validateReward(reward); err != nil {
		return err
	}
	return saveReward(ctx, t.tx, reward)
}

func (t *sqliteTransaction) GetRewards(ctx context.Context, userID string) ([]model.Reward, error) {
	return getRewards(ctx, t.tx, userID)
}

func (t *sqliteTransaction) GetMonthlyRewardTotals(ctx context.Context, userID string, year int) (map[time.Month]int, error) {
	return getMonthlyRewardTotals(ctx, t.tx, userID, year)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	return fmt.Errorf("migrations cannot run inside a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	return nil, fmt.Errorf("nested transactions are not supported")
}

func (t *sqliteTransaction) Close() error {
	return t.tx.Rollback()
}
