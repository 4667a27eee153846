package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/billwise/billwise/internal/model"
)

// SaveTransactionHistory appends a settled-payment record. History is
// append-only; there is no update or delete path.
func (s *SQLiteStorage) SaveTransactionHistory(ctx context.Context, history *model.TransactionHistory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateHistory(history); err != nil {
		return err
	}
	return saveTransactionHistory(ctx, s.db, history)
}

// GetTransactionHistory returns a user's settled payments, newest first.
func (s *SQLiteStorage) GetTransactionHistory(ctx context.Context, userID string) ([]model.TransactionHistory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return getTransactionHistory(ctx, s.db, userID)
}

// SaveReward appends a ledger entry.
func (s *SQLiteStorage) SaveReward(ctx context.Context, reward *model.Reward) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReward(reward); err != nil {
		return err
	}
	return saveReward(ctx, s.db, reward)
}

// GetRewards returns a user's ledger entries, newest first.
func (s *SQLiteStorage) GetRewards(ctx context.Context, userID string) ([]model.Reward, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return getRewards(ctx, s.db, userID)
}

// GetMonthlyRewardTotals aggregates earned points per month for a year,
// grouped over the ledger's created_at.
func (s *SQLiteStorage) GetMonthlyRewardTotals(ctx context.Context, userID string, year int) (map[time.Month]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return getMonthlyRewardTotals(ctx, s.db, userID, year)
}

func saveTransactionHistory(ctx context.Context, e dbtx, history *model.TransactionHistory) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO transaction_history (
			id, user_id, bill_id, merchant, description,
			amount, paid_date, reward, file_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		history.ID,
		history.UserID,
		history.BillID,
		history.Merchant,
		history.Description,
		history.Amount,
		history.PaidDate,
		history.Reward,
		history.FileURL,
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction history: %w", err)
	}
	return nil
}

func getTransactionHistory(ctx context.Context, e dbtx, userID string) ([]model.TransactionHistory, error) {
	rows, err := e.QueryContext(ctx, `
		SELECT id, user_id, bill_id, merchant, description, amount, paid_date, reward, file_url
		FROM transaction_history
		WHERE user_id = ?
		ORDER BY paid_date DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.TransactionHistory
	for rows.Next() {
		var h model.TransactionHistory
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.BillID, &h.Merchant, &h.Description,
			&h.Amount, &h.PaidDate, &h.Reward, &h.FileURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}

func saveReward(ctx context.Context, e dbtx, reward *model.Reward) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO rewards (
			id, user_id, history_id, type, amount, cashback,
			description, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		reward.ID,
		reward.UserID,
		reward.HistoryID,
		reward.Type,
		reward.Amount,
		reward.Cashback,
		reward.Description,
		string(reward.Status),
		reward.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save reward: %w", err)
	}
	return nil
}

func getRewards(ctx context.Context, e dbtx, userID string) ([]model.Reward, error) {
	rows, err := e.QueryContext(ctx, `
		SELECT id, user_id, history_id, type, amount, cashback, description, status, created_at
		FROM rewards
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rewards []model.Reward
	for rows.Next() {
		var r model.Reward
		var status string
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.HistoryID, &r.Type, &r.Amount,
			&r.Cashback, &r.Description, &status, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		r.Status = model.RewardStatus(status)
		rewards = append(rewards, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rewards: %w", err)
	}
	return rewards, nil
}

func getMonthlyRewardTotals(ctx context.Context, e dbtx, userID string, year int) (map[time.Month]int, error) {
	rows, err := e.QueryContext(ctx, `
		SELECT strftime('%m', created_at) AS month, SUM(amount)
		FROM rewards
		WHERE user_id = ? AND strftime('%Y', created_at) = ?
		GROUP BY month
	`, userID, strconv.Itoa(year))
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[time.Month]int)
	for rows.Next() {
		var month string
		var total int
		if err := rows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return nil, fmt.Errorf("unexpected month value %q", month)
		}
		totals[time.Month(m)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly totals: %w", err)
	}
	return totals, nil
}
