package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/billwise/billwise/internal/category"
	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/reward"
	"github.com/billwise/billwise/internal/service"
	"github.com/google/uuid"
)

// Result mirrors the reward settlement response for a verified receipt.
type Result struct {
	BillType        model.BillCategory
	FileURL         string
	RewardEarned    int
	TotalPoints     int
	CashbackBalance float64
	CashbackAmount  float64
}

// Engine cross-checks an uploaded receipt against the transaction store
// and settles the reward when every check passes. Each rejection carries
// its own sentinel error so callers can tell the reasons apart.
type Engine struct {
	storage   service.Storage
	blob      BlobStore
	extractor TextExtractor
	settler   *reward.Engine
	logger    *slog.Logger
}

// NewEngine wires the verification engine.
func NewEngine(storage service.Storage, blob BlobStore, extractor TextExtractor, settler *reward.Engine) *Engine {
	return &Engine{
		storage:   storage,
		blob:      blob,
		extractor: extractor,
		settler:   settler,
		logger:    slog.Default().With("component", "receipt"),
	}
}

// Verify uploads the receipt, extracts and cross-checks its fields, and
// settles the reward on success. company and amount are the uploader's
// asserted merchant and payment amount.
func (e *Engine) Verify(ctx context.Context, userID string, file []byte, company, amount string) (*Result, error) {
	if len(file) == 0 {
		return nil, common.NewUserError("no receipt file uploaded", common.ErrInvalidInput)
	}
	if userID == "" {
		return nil, common.NewUserError("user id is required", common.ErrInvalidInput)
	}

	// The raw bytes are stored first so every verification attempt,
	// including rejected ones, leaves an auditable artifact.
	objectName := fmt.Sprintf("receipts/%s/%s.pdf", userID, uuid.NewString())
	fileURL, err := e.blob.Upload(ctx, objectName, file)
	if err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	text, err := e.extractor.ExtractText(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to extract receipt text: %w", err)
	}

	txn, err := e.matchTransaction(ctx, userID, text, company, amount)
	if err != nil {
		return nil, err
	}

	billType := category.Classify(txn.Merchant + " " + txn.Description)
	var bill *model.Bill
	if found, findErr := e.storage.FindBill(ctx, userID, txn.Merchant, txn.Description); findErr == nil {
		bill = found
		billType = found.BillType
	} else if !errors.Is(findErr, common.ErrNotFound) {
		return nil, findErr
	}

	settlement, err := e.settler.SettleVerified(ctx, txn, bill, billType, fileURL)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Receipt verified",
		"user", userID,
		"transaction", txn.ID,
		"points", settlement.RewardEarned)

	return &Result{
		BillType:        billType,
		FileURL:         fileURL,
		RewardEarned:    settlement.RewardEarned,
		TotalPoints:     settlement.TotalPoints,
		CashbackBalance: settlement.CashbackBalance,
		CashbackAmount:  settlement.CashbackEarned,
	}, nil
}

// matchTransaction runs the verification checks in order and returns the
// matched stored transaction.
func (e *Engine) matchTransaction(ctx context.Context, userID, text, company, amount string) (*model.Transaction, error) {
	f := parseFields(text)

	if !f.HasDate {
		return nil, common.ErrReceiptNoDate
	}

	user, err := e.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !f.Date.After(dateOnly(user.CreatedAt)) {
		return nil, fmt.Errorf("%w: receipt dated %s, account created %s",
			common.ErrReceiptBackdated,
			f.Date.Format("2006-01-02"),
			user.CreatedAt.Format("2006-01-02"))
	}

	if f.TransactionID == "" {
		return nil, common.ErrReceiptNoTransactionID
	}

	txn, err := e.storage.GetTransactionByID(ctx, f.TransactionID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", common.ErrReceiptTransactionNotFound, f.TransactionID)
	}
	if err != nil {
		return nil, err
	}

	if txn.UserID != userID {
		return nil, common.ErrReceiptOwnershipMismatch
	}

	// Calendar-date comparison: time-of-day noise on the stored
	// transaction must not fail the match.
	if !dateOnly(txn.Date).Equal(f.Date) {
		return nil, fmt.Errorf("%w: receipt %s, transaction %s",
			common.ErrReceiptDateMismatch,
			f.Date.Format("2006-01-02"),
			txn.Date.Format("2006-01-02"))
	}

	if txn.Merchant != company {
		return nil, fmt.Errorf("%w: receipt names %q", common.ErrReceiptMerchantMismatch, company)
	}

	asserted, err := parseAmount(amount)
	if err != nil {
		return nil, common.NewUserError("could not parse asserted amount", common.ErrInvalidInput)
	}
	if !f.HasAmount || !sameCents(txn.Amount, asserted) || !sameCents(asserted, f.Amount) {
		return nil, common.ErrReceiptAmountMismatch
	}

	return txn, nil
}
