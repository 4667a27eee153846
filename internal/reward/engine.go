// Package reward settles paid and verified bills: it credits point and
// cashback balances and appends the audit ledger.
package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/billwise/billwise/internal/category"
	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/service"
	"github.com/google/uuid"
)

// Settlement reports the outcome of crediting one paid or verified bill.
type Settlement struct {
	PendingBill     *model.PendingBill
	History         *model.TransactionHistory
	BillType        model.BillCategory
	RewardEarned    int
	CashbackEarned  float64
	TotalPoints     int
	CashbackBalance float64
}

// Engine computes and persists reward settlements. Rates are injected so
// the engine carries no ambient mutable configuration.
type Engine struct {
	storage service.Storage
	rates   category.RateTable
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a settlement engine with the given rate table.
func NewEngine(storage service.Storage, rates category.RateTable) *Engine {
	return &Engine{
		storage: storage,
		rates:   rates,
		logger:  slog.Default().With("component", "reward"),
		now:     time.Now,
	}
}

// Pay settles an explicit bill payment. The status flip, history record,
// ledger entry, and balance increments commit as one transaction; a bill
// already marked paid is rejected with ErrAlreadyPaid and never settled
// twice.
func (e *Engine) Pay(ctx context.Context, pendingBillID string) (*Settlement, error) {
	if pendingBillID == "" {
		return nil, common.NewUserError("pending bill id is required", common.ErrInvalidInput)
	}

	pb, err := e.storage.GetPendingBillByID(ctx, pendingBillID)
	if err != nil {
		return nil, err
	}
	if pb.Status == model.PendingStatusPaid {
		return nil, fmt.Errorf("pending bill %s: %w", pb.ID, common.ErrAlreadyPaid)
	}

	billType := model.CategoryOther
	if bill, billErr := e.storage.GetBillByID(ctx, pb.BillID); billErr == nil {
		billType = bill.BillType
	} else if !errors.Is(billErr, common.ErrNotFound) {
		return nil, billErr
	}

	points := e.rates.Points(pb.NextAmount, billType)
	cashback := e.rates.Cashback(pb.NextAmount)
	paidAt := e.now().UTC()

	history := &model.TransactionHistory{
		ID:          uuid.NewString(),
		UserID:      pb.UserID,
		BillID:      pb.BillID,
		Merchant:    pb.Merchant,
		Description: pb.Description,
		Amount:      pb.NextAmount,
		PaidDate:    paidAt,
		Reward:      points,
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.MarkPendingBillPaid(ctx, pb.ID); err != nil {
		return nil, err
	}
	if err := e.settle(ctx, tx, history, billType, cashback); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	pb.Status = model.PendingStatusPaid

	e.logger.Info("Bill paid",
		"user", pb.UserID,
		"merchant", pb.Merchant,
		"points", points,
		"cashback", cashback)

	return e.buildSettlement(ctx, pb, history, billType, points, cashback)
}

// SettleVerified settles a receipt-verified transaction. The caller has
// already matched the transaction to the user; bill may be nil when no
// detected series covers it.
func (e *Engine) SettleVerified(ctx context.Context, txn *model.Transaction, bill *model.Bill, billType model.BillCategory, fileURL string) (*Settlement, error) {
	points := e.rates.Points(txn.Amount, billType)
	cashback := e.rates.Cashback(txn.Amount)

	history := &model.TransactionHistory{
		ID:          uuid.NewString(),
		UserID:      txn.UserID,
		Merchant:    txn.Merchant,
		Description: txn.Description,
		Amount:      txn.Amount,
		PaidDate:    e.now().UTC(),
		Reward:      points,
		FileURL:     fileURL,
	}
	if bill != nil {
		history.BillID = bill.ID
	}

	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := e.settle(ctx, tx, history, billType, cashback); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	e.logger.Info("Receipt-verified payment settled",
		"user", txn.UserID,
		"merchant", txn.Merchant,
		"points", points,
		"cashback", cashback)

	return e.buildSettlement(ctx, nil, history, billType, points, cashback)
}

// settle appends the history record and ledger entry and bumps the user's
// balances inside the supplied transaction.
func (e *Engine) settle(ctx context.Context, tx service.Transaction, history *model.TransactionHistory, billType model.BillCategory, cashback float64) error {
	if err := tx.SaveTransactionHistory(ctx, history); err != nil {
		return err
	}

	ledger := &model.Reward{
		ID:          uuid.NewString(),
		UserID:      history.UserID,
		HistoryID:   history.ID,
		Type:        model.RewardTypeCoins,
		Amount:      history.Reward,
		Cashback:    cashback,
		Description: fmt.Sprintf("%s bill payment: %s", billType, history.Merchant),
		Status:      model.RewardStatusEarned,
		CreatedAt:   history.PaidDate,
	}
	if err := tx.SaveReward(ctx, ledger); err != nil {
		return err
	}

	return tx.IncrementUserBalance(ctx, history.UserID, history.Reward, cashback)
}

func (e *Engine) buildSettlement(ctx context.Context, pb *model.PendingBill, history *model.TransactionHistory, billType model.BillCategory, points int, cashback float64) (*Settlement, error) {
	user, err := e.storage.GetUser(ctx, history.UserID)
	if err != nil {
		return nil, err
	}

	return &Settlement{
		PendingBill:     pb,
		History:         history,
		BillType:        billType,
		RewardEarned:    points,
		CashbackEarned:  cashback,
		TotalPoints:     user.RewardPoints,
		CashbackBalance: user.Cashback,
	}, nil
}
