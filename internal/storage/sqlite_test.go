package storage

import (
	"context"
	"testing"
	"time"

	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err, "failed to create storage")

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestUser(t *testing.T, store *SQLiteStorage, id string) *model.User {
	t.Helper()

	user := &model.User{
		ID:        id,
		Name:      "Test User",
		CreatedAt: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func testTransaction(userID, id, merchant string, amount float64, date time.Time) model.Transaction {
	txn := model.Transaction{
		ID:          id,
		UserID:      userID,
		Merchant:    merchant,
		Description: merchant + " payment",
		AccountID:   "acc1",
		Amount:      amount,
		Date:        date,
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

func TestUserLifecycle(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Name, got.Name)
	assert.Equal(t, 0, got.RewardPoints)
	assert.Equal(t, 0.0, got.Cashback)

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestIncrementUserBalance(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")

	require.NoError(t, store.IncrementUserBalance(ctx, user.ID, 5, 1.20))
	require.NoError(t, store.IncrementUserBalance(ctx, user.ID, 3, 0.80))

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.RewardPoints)
	assert.InDelta(t, 2.00, got.Cashback, 0.001)

	err = store.IncrementUserBalance(ctx, "missing", 1, 0)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveTransactionsDeduplicates(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	txn := testTransaction(user.ID, "txn-1", "Acme Power", -120.00, date)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	// Same content under a new ID hashes identically and is skipped.
	dup := testTransaction(user.ID, "txn-2", "Acme Power", -120.00, date)
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{dup}))

	all, err := store.GetTransactions(ctx, user.ID, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetOutgoingTransactions(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	txns := []model.Transaction{
		testTransaction(user.ID, "txn-1", "Acme Power", -120.00, base.AddDate(0, 0, 30)),
		testTransaction(user.ID, "txn-2", "Employer Inc", 2500.00, base.AddDate(0, 0, 2)),
		testTransaction(user.ID, "txn-3", "Acme Power", -118.00, base),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	outgoing, err := store.GetOutgoingTransactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, outgoing, 2, "incoming transactions must be excluded")
	assert.True(t, outgoing[0].Date.Before(outgoing[1].Date), "expected ascending date order")
}

func TestGetLatestOutgoingTransaction(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	txns := []model.Transaction{
		testTransaction(user.ID, "txn-1", "Acme Power", -118.00, base),
		testTransaction(user.ID, "txn-2", "Acme Power", -120.00, base.AddDate(0, 0, 30)),
	}
	require.NoError(t, store.SaveTransactions(ctx, txns))

	latest, err := store.GetLatestOutgoingTransaction(ctx, user.ID, "Acme Power", "Acme Power payment")
	require.NoError(t, err)
	assert.InDelta(t, -120.00, latest.Amount, 0.001)

	_, err = store.GetLatestOutgoingTransaction(ctx, user.ID, "Nobody", "nothing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReplaceBillsIsWholesale(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")

	first, err := store.ReplaceBills(ctx, user.ID, []model.Bill{
		{UserID: user.ID, Merchant: "Acme Power", Description: "monthly", Frequency: model.FrequencyMonthly, BillType: model.CategoryUtilities, AvgAmount: -119, TotalOccurrences: 2, Recurring: true},
		{UserID: user.ID, Merchant: "Gym Co", Description: "dues", Frequency: model.FrequencyMonthly, BillType: model.CategoryHealth, AvgAmount: -40, TotalOccurrences: 3, Recurring: true},
	})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.NotEmpty(t, first[0].ID, "replace must assign ids")

	second, err := store.ReplaceBills(ctx, user.ID, []model.Bill{
		{UserID: user.ID, Merchant: "Streamly", Description: "subscription", Frequency: model.FrequencyMonthly, BillType: model.CategorySubscriptions, AvgAmount: -15, TotalOccurrences: 4, Recurring: true},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)

	stored, err := store.GetBills(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "old bills must be gone after replace")
	assert.Equal(t, "Streamly", stored[0].Merchant)
}

func TestBillQueries(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")

	_, err := store.ReplaceBills(ctx, user.ID, []model.Bill{
		{UserID: user.ID, Merchant: "Acme Power", Description: "power", Frequency: model.FrequencyMonthly, BillType: model.CategoryUtilities, Recurring: true},
		{UserID: user.ID, Merchant: "Corner Cafe", Description: "coffee", Frequency: model.FrequencyIrregular, BillType: model.CategoryOther, Recurring: false},
	})
	require.NoError(t, err)

	monthly, err := store.GetBillsByFrequency(ctx, user.ID, model.FrequencyMonthly)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, "Acme Power", monthly[0].Merchant)

	recurring, err := store.GetBillsByRecurring(ctx, user.ID, true)
	require.NoError(t, err)
	require.Len(t, recurring, 1)
	assert.Equal(t, "Acme Power", recurring[0].Merchant)

	found, err := store.FindBill(ctx, user.ID, "Corner Cafe", "coffee")
	require.NoError(t, err)
	assert.False(t, found.Recurring)

	_, err = store.FindBill(ctx, user.ID, "Nobody", "nothing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMarkPendingBillPaidOnce(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	pending, err := store.ReplacePendingBills(ctx, user.ID, []model.PendingBill{
		{UserID: user.ID, BillID: "bill-1", Merchant: "Acme Power", Description: "power", NextAmount: -120, LastPaidDate: due.AddDate(0, -1, 0), NextPaymentDate: due},
	})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.PendingStatusPending, pending[0].Status)

	require.NoError(t, store.MarkPendingBillPaid(ctx, pending[0].ID))

	got, err := store.GetPendingBillByID(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.PendingStatusPaid, got.Status)

	err = store.MarkPendingBillPaid(ctx, pending[0].ID)
	assert.ErrorIs(t, err, common.ErrAlreadyPaid, "second payment attempt must conflict")

	err = store.MarkPendingBillPaid(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactionHistoryNewestFirst(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")

	older := &model.TransactionHistory{
		ID: "hist-1", UserID: user.ID, BillID: "bill-1",
		Merchant: "Acme Power", Amount: -118,
		PaidDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Reward: 5,
	}
	newer := &model.TransactionHistory{
		ID: "hist-2", UserID: user.ID, BillID: "bill-1",
		Merchant: "Acme Power", Amount: -120,
		PaidDate: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), Reward: 5,
	}
	require.NoError(t, store.SaveTransactionHistory(ctx, older))
	require.NoError(t, store.SaveTransactionHistory(ctx, newer))

	history, err := store.GetTransactionHistory(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hist-2", history[0].ID)
}

func TestMonthlyRewardTotals(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")

	entries := []model.Reward{
		{ID: "rw-1", UserID: user.ID, HistoryID: "hist-1", Type: model.RewardTypeCoins, Amount: 5, Status: model.RewardStatusEarned, CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "rw-2", UserID: user.ID, HistoryID: "hist-2", Type: model.RewardTypeCoins, Amount: 7, Status: model.RewardStatusEarned, CreatedAt: time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)},
		{ID: "rw-3", UserID: user.ID, HistoryID: "hist-3", Type: model.RewardTypeCoins, Amount: 4, Status: model.RewardStatusEarned, CreatedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "rw-4", UserID: user.ID, HistoryID: "hist-4", Type: model.RewardTypeCoins, Amount: 9, Status: model.RewardStatusEarned, CreatedAt: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for i := range entries {
		require.NoError(t, store.SaveReward(ctx, &entries[i]))
	}

	totals, err := store.GetMonthlyRewardTotals(ctx, user.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, 12, totals[time.January])
	assert.Equal(t, 4, totals[time.March])
	assert.Zero(t, totals[time.December], "other years must not leak in")
}

func TestTransactionRollback(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	user := createTestUser(t, store, "user-1")

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.IncrementUserBalance(ctx, user.ID, 100, 10))
	require.NoError(t, tx.Rollback())

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RewardPoints, "rolled-back increment must not persist")
}
