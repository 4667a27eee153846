package detect_test

import (
	"context"
	"testing"
	"time"

	"github.com/billwise/billwise/internal/detect"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlyPayments(merchant, description string, amount float64, months int) []model.Transaction {
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	txns := make([]model.Transaction, 0, months)
	for i := 0; i < months; i++ {
		txns = append(txns, model.Transaction{
			Merchant:    merchant,
			Description: description,
			Amount:      amount,
			AccountID:   "acc1",
			Date:        base.AddDate(0, i, 0),
		})
	}
	return txns
}

func TestDetectorFindsRecurringBills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	txns := monthlyPayments("Acme Power", "electricity", -120.00, 4)
	txns = append(txns, monthlyPayments("Streamly", "video subscription", -15.99, 3)...)
	// A single one-off purchase must not become recurring.
	txns = append(txns, model.Transaction{
		Merchant:    "Corner Hardware",
		Description: "paint supplies",
		Amount:      -86.40,
		AccountID:   "acc1",
		Date:        time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
	})
	// Incoming money is never a bill.
	txns = append(txns, model.Transaction{
		Merchant:    "Employer Inc",
		Description: "salary",
		Amount:      2500.00,
		AccountID:   "acc1",
		Date:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	db.SeedTransactions(user.ID, txns...)

	bills, err := detect.New(db.Storage).Run(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, bills, 3, "salary must not appear as a bill")

	byMerchant := make(map[string]model.Bill, len(bills))
	for _, bill := range bills {
		byMerchant[bill.Merchant] = bill
	}

	power := byMerchant["Acme Power"]
	assert.True(t, power.Recurring)
	assert.Equal(t, model.FrequencyMonthly, power.Frequency)
	assert.Equal(t, model.CategoryUtilities, power.BillType)
	assert.Equal(t, 4, power.TotalOccurrences)
	assert.InDelta(t, -120.00, power.AvgAmount, 0.001)

	stream := byMerchant["Streamly"]
	assert.True(t, stream.Recurring)
	assert.Equal(t, model.CategorySubscriptions, stream.BillType)

	oneOff := byMerchant["Corner Hardware"]
	assert.False(t, oneOff.Recurring, "single occurrence cannot be recurring")
	assert.Equal(t, model.FrequencyIrregular, oneOff.Frequency)
}

func TestDetectorSplitsByDescription(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	txns := monthlyPayments("MegaBank", "mortgage payment", -1500.00, 3)
	txns = append(txns, monthlyPayments("MegaBank", "car loan", -310.00, 3)...)
	db.SeedTransactions(user.ID, txns...)

	bills, err := detect.New(db.Storage).Run(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, bills, 2, "same merchant with different descriptions are separate series")
}

func TestDetectorRerunReplacesBills(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	db.SeedTransactions(user.ID, monthlyPayments("Acme Power", "electricity", -120.00, 3)...)

	detector := detect.New(db.Storage)

	first, err := detector.Run(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := detector.Run(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)

	stored, err := db.Storage.GetBills(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1, "rerun must replace, not accumulate")
}

func TestDetectorEmptyInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	bills, err := detect.New(db.Storage).Run(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, bills)
}
