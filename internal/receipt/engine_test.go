package receipt_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/billwise/billwise/internal/category"
	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/receipt"
	"github.com/billwise/billwise/internal/reward"
	"github.com/billwise/billwise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor returns canned text instead of parsing a real PDF.
type stubExtractor struct {
	text string
}

func (s *stubExtractor) ExtractText(_ context.Context, _ []byte) (string, error) {
	return s.text, nil
}

type verifyFixture struct {
	db     *testutil.TestDB
	user   *model.User
	txn    model.Transaction
	blob   *receipt.MemoryStore
	engine func(text string) *receipt.Engine
}

func setupVerify(t *testing.T) *verifyFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	user := db.SeedUser("Test User", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	txns := db.SeedTransactions(user.ID, model.Transaction{
		ID:          "txn_match1",
		Merchant:    "Acme Power",
		Description: "electricity",
		Amount:      -120.00,
		AccountID:   "acc1",
		Date:        time.Date(2024, 2, 15, 9, 30, 0, 0, time.UTC),
	})

	blob := receipt.NewMemoryStore()
	settler := reward.NewEngine(db.Storage, category.DefaultRateTable())

	return &verifyFixture{
		db:   db,
		user: user,
		txn:  txns[0],
		blob: blob,
		engine: func(text string) *receipt.Engine {
			return receipt.NewEngine(db.Storage, blob, &stubExtractor{text: text}, settler)
		},
	}
}

func receiptText(txnID, date, amount string) string {
	return fmt.Sprintf("Acme Power receipt\nTransaction ID: %s\nDate: %s\nAmount: $%s\n", txnID, date, amount)
}

func TestVerifyCreditsRewards(t *testing.T) {
	f := setupVerify(t)
	ctx := context.Background()

	engine := f.engine(receiptText("txn_match1", "2024-02-15", "120.00"))

	result, err := engine.Verify(ctx, f.user.ID, []byte("%PDF-fake"), "Acme Power", "120.00")
	require.NoError(t, err)

	assert.Equal(t, model.CategoryUtilities, result.BillType)
	assert.Equal(t, 5, result.RewardEarned)
	assert.InDelta(t, 1.20, result.CashbackAmount, 0.001)
	assert.Contains(t, result.FileURL, "mem://receipts/"+f.user.ID)

	history, err := f.db.Storage.GetTransactionHistory(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.FileURL, history[0].FileURL)

	updated, err := f.db.Storage.GetUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.RewardPoints)
}

func TestVerifyUsesDetectedBillType(t *testing.T) {
	f := setupVerify(t)
	ctx := context.Background()

	// A detected bill overrides the text-based classification.
	_, err := f.db.Storage.ReplaceBills(ctx, f.user.ID, []model.Bill{{
		UserID:      f.user.ID,
		Merchant:    "Acme Power",
		Description: "electricity",
		Frequency:   model.FrequencyMonthly,
		BillType:    model.CategoryHousing,
		Recurring:   true,
	}})
	require.NoError(t, err)

	engine := f.engine(receiptText("txn_match1", "2024-02-15", "120.00"))

	result, err := engine.Verify(ctx, f.user.ID, []byte("%PDF-fake"), "Acme Power", "120.00")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryHousing, result.BillType)
	// Housing rate: 120 * 0.05 * 2.0 = 12 points.
	assert.Equal(t, 12, result.RewardEarned)
}

func TestVerifyRejections(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		company string
		amount  string
		wantErr error
	}{
		{
			name:    "missing date",
			text:    "Transaction ID: txn_match1\nAmount: $120.00",
			company: "Acme Power",
			amount:  "120.00",
			wantErr: common.ErrReceiptNoDate,
		},
		{
			name:    "backdated before account creation",
			text:    receiptText("txn_match1", "2023-05-01", "120.00"),
			company: "Acme Power",
			amount:  "120.00",
			wantErr: common.ErrReceiptBackdated,
		},
		{
			name:    "dated the day the account was created",
			text:    receiptText("txn_match1", "2023-06-01", "120.00"),
			company: "Acme Power",
			amount:  "120.00",
			wantErr: common.ErrReceiptBackdated,
		},
		{
			name:    "missing transaction id",
			text:    "Receipt\nDate: 2024-02-15\nAmount: $120.00",
			company: "Acme Power",
			amount:  "120.00",
			wantErr: common.ErrReceiptNoTransactionID,
		},
		{
			name:    "unknown transaction id",
			text:    receiptText("txn_nope", "2024-02-15", "120.00"),
			company: "Acme Power",
			amount:  "120.00",
			wantErr: common.ErrReceiptTransactionNotFound,
		},
		{
			name:    "date disagrees with stored transaction",
			text:    receiptText("txn_match1", "2024-02-16", "120.00"),
			company: "Acme Power",
			amount:  "120.00",
			wantErr: common.ErrReceiptDateMismatch,
		},
		{
			name:    "merchant mismatch",
			text:    receiptText("txn_match1", "2024-02-15", "120.00"),
			company: "Enron Power",
			amount:  "120.00",
			wantErr: common.ErrReceiptMerchantMismatch,
		},
		{
			name:    "asserted amount off by a cent",
			text:    receiptText("txn_match1", "2024-02-15", "120.00"),
			company: "Acme Power",
			amount:  "120.01",
			wantErr: common.ErrReceiptAmountMismatch,
		},
		{
			name:    "receipt amount disagrees",
			text:    receiptText("txn_match1", "2024-02-15", "119.00"),
			company: "Acme Power",
			amount:  "120.00",
			wantErr: common.ErrReceiptAmountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupVerify(t)
			ctx := context.Background()

			engine := f.engine(tt.text)
			_, err := engine.Verify(ctx, f.user.ID, []byte("%PDF-fake"), tt.company, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)

			// A rejected receipt must never credit rewards.
			user, userErr := f.db.Storage.GetUser(ctx, f.user.ID)
			require.NoError(t, userErr)
			assert.Zero(t, user.RewardPoints)
		})
	}
}

func TestVerifyOwnershipMismatch(t *testing.T) {
	f := setupVerify(t)
	ctx := context.Background()

	other := f.db.SeedUser("Somebody Else", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	engine := f.engine(receiptText("txn_match1", "2024-02-15", "120.00"))

	_, err := engine.Verify(ctx, other.ID, []byte("%PDF-fake"), "Acme Power", "120.00")
	assert.ErrorIs(t, err, common.ErrReceiptOwnershipMismatch)
}

func TestVerifyInputValidation(t *testing.T) {
	f := setupVerify(t)
	ctx := context.Background()

	engine := f.engine(receiptText("txn_match1", "2024-02-15", "120.00"))

	_, err := engine.Verify(ctx, f.user.ID, nil, "Acme Power", "120.00")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = engine.Verify(ctx, "", []byte("%PDF-fake"), "Acme Power", "120.00")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
