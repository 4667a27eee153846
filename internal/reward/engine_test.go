package reward_test

import (
	"context"
	"testing"
	"time"

	"github.com/billwise/billwise/internal/category"
	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/detect"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/project"
	"github.com/billwise/billwise/internal/reward"
	"github.com/billwise/billwise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPendingBill(t *testing.T, db *testutil.TestDB, userID string, billType model.BillCategory, amount float64) model.PendingBill {
	t.Helper()
	ctx := context.Background()

	bills, err := db.Storage.ReplaceBills(ctx, userID, []model.Bill{{
		UserID:      userID,
		Merchant:    "Acme Power",
		Description: "electricity",
		Frequency:   model.FrequencyMonthly,
		BillType:    billType,
		AvgAmount:   amount,
		Recurring:   true,
	}})
	require.NoError(t, err)

	pending, err := db.Storage.ReplacePendingBills(ctx, userID, []model.PendingBill{{
		UserID:          userID,
		BillID:          bills[0].ID,
		Merchant:        "Acme Power",
		Description:     "electricity",
		NextAmount:      amount,
		LastPaidDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		NextPaymentDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	return pending[0]
}

func TestPayCreditsRewards(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	pb := seedPendingBill(t, db, user.ID, model.CategoryUtilities, -120.00)

	engine := reward.NewEngine(db.Storage, category.DefaultRateTable())

	settlement, err := engine.Pay(ctx, pb.ID)
	require.NoError(t, err)

	// 120 * 0.02 * 2.0 rounds to 5 points; cashback is a flat 1%.
	assert.Equal(t, 5, settlement.RewardEarned)
	assert.InDelta(t, 1.20, settlement.CashbackEarned, 0.001)
	assert.Equal(t, model.CategoryUtilities, settlement.BillType)
	assert.Equal(t, 5, settlement.TotalPoints)
	assert.InDelta(t, 1.20, settlement.CashbackBalance, 0.001)
	assert.Equal(t, model.PendingStatusPaid, settlement.PendingBill.Status)

	updated, err := db.Storage.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.RewardPoints)
	assert.InDelta(t, 1.20, updated.Cashback, 0.001)

	history, err := db.Storage.GetTransactionHistory(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 5, history[0].Reward)
	assert.InDelta(t, -120.00, history[0].Amount, 0.001)

	ledger, err := db.Storage.GetRewards(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, model.RewardTypeCoins, ledger[0].Type)
	assert.Equal(t, model.RewardStatusEarned, ledger[0].Status)
	assert.Equal(t, history[0].ID, ledger[0].HistoryID)
}

func TestPayRejectsDoublePayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	pb := seedPendingBill(t, db, user.ID, model.CategoryUtilities, -120.00)

	engine := reward.NewEngine(db.Storage, category.DefaultRateTable())

	_, err := engine.Pay(ctx, pb.ID)
	require.NoError(t, err)

	_, err = engine.Pay(ctx, pb.ID)
	assert.ErrorIs(t, err, common.ErrAlreadyPaid)

	// The failed second attempt must not have credited anything.
	updated, err := db.Storage.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.RewardPoints)
	assert.InDelta(t, 1.20, updated.Cashback, 0.001)

	history, err := db.Storage.GetTransactionHistory(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPayUnknownBill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	engine := reward.NewEngine(db.Storage, category.DefaultRateTable())

	_, err := engine.Pay(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = engine.Pay(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestPayFallsBackToOtherCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	// Pending bill whose backing bill no longer exists.
	pending, err := db.Storage.ReplacePendingBills(ctx, user.ID, []model.PendingBill{{
		UserID:          user.ID,
		BillID:          "gone",
		Merchant:        "Mystery Vendor",
		Description:     "one-off",
		NextAmount:      -200.00,
		LastPaidDate:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		NextPaymentDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	engine := reward.NewEngine(db.Storage, category.DefaultRateTable())

	settlement, err := engine.Pay(ctx, pending[0].ID)
	require.NoError(t, err)

	// 200 * 0.01 * 2.0 = 4 points at the default rate.
	assert.Equal(t, model.CategoryOther, settlement.BillType)
	assert.Equal(t, 4, settlement.RewardEarned)
	assert.InDelta(t, 2.00, settlement.CashbackEarned, 0.001)
}

func TestSettleVerifiedWithoutBill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	txns := db.SeedTransactions(user.ID, model.Transaction{
		Merchant:    "City Clinic",
		Description: "checkup",
		Amount:      -90.00,
		AccountID:   "acc1",
		Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})

	engine := reward.NewEngine(db.Storage, category.DefaultRateTable())

	settlement, err := engine.SettleVerified(ctx, &txns[0], nil, model.CategoryHealth, "gs://receipts/r1.pdf")
	require.NoError(t, err)

	// 90 * 0.03 * 2.0 rounds to 5 points.
	assert.Equal(t, 5, settlement.RewardEarned)
	assert.Equal(t, "gs://receipts/r1.pdf", settlement.History.FileURL)
	assert.Empty(t, settlement.History.BillID)

	history, err := db.Storage.GetTransactionHistory(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "gs://receipts/r1.pdf", history[0].FileURL)
}

// Exercises the whole pipeline: imported transactions are detected as a
// bill, projected forward, and paid with rewards credited.
func TestBillLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	db.SeedTransactions(user.ID,
		model.Transaction{Merchant: "Acme Power", Description: "electricity", Amount: -118.00, AccountID: "acc1", Date: base},
		model.Transaction{Merchant: "Acme Power", Description: "electricity", Amount: -121.00, AccountID: "acc1", Date: base.AddDate(0, 1, 0)},
		model.Transaction{Merchant: "Acme Power", Description: "electricity", Amount: -120.00, AccountID: "acc1", Date: base.AddDate(0, 2, 0)},
	)

	bills, err := detect.New(db.Storage).Run(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Recurring)
	assert.Equal(t, model.FrequencyMonthly, bills[0].Frequency)
	assert.Equal(t, model.CategoryUtilities, bills[0].BillType)

	pending, err := project.New(db.Storage).Run(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.WithinDuration(t, base.AddDate(0, 3, 0), pending[0].NextPaymentDate, time.Second)
	assert.InDelta(t, -120.00, pending[0].NextAmount, 0.001)

	engine := reward.NewEngine(db.Storage, category.DefaultRateTable())
	settlement, err := engine.Pay(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, settlement.RewardEarned)

	updated, err := db.Storage.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.RewardPoints)
}
