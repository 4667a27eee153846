package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
	"github.com/google/uuid"
)

const billColumns = "id, user_id, merchant, description, avg_amount, frequency, total_occurrences, recurring, verified, bill_type, created_at"

// ReplaceBills swaps out a user's entire bill set in one transaction:
// either all old records are gone and all new ones exist, or neither
// happened. Returns the inserted set with assigned ids.
func (s *SQLiteStorage) ReplaceBills(ctx context.Context, userID string, bills []model.Bill) ([]model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var inserted []model.Bill
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		inserted, txErr = replaceBills(ctx, tx, userID, bills)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// GetBills returns all bills for a user.
func (s *SQLiteStorage) GetBills(ctx context.Context, userID string) ([]model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return queryBills(ctx, s.db, fmt.Sprintf(
		"SELECT %s FROM bills WHERE user_id = ? ORDER BY merchant, description", billColumns), userID)
}

// GetBillsByFrequency returns a user's bills with the given cadence label.
func (s *SQLiteStorage) GetBillsByFrequency(ctx context.Context, userID string, frequency model.Frequency) ([]model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if !frequency.Valid() {
		return nil, fmt.Errorf("invalid frequency %q", frequency)
	}
	return queryBills(ctx, s.db, fmt.Sprintf(
		"SELECT %s FROM bills WHERE user_id = ? AND frequency = ? ORDER BY merchant, description", billColumns),
		userID, string(frequency))
}

// GetBillsByRecurring returns a user's bills filtered by the recurring flag.
func (s *SQLiteStorage) GetBillsByRecurring(ctx context.Context, userID string, recurring bool) ([]model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return queryBills(ctx, s.db, fmt.Sprintf(
		"SELECT %s FROM bills WHERE user_id = ? AND recurring = ? ORDER BY merchant, description", billColumns),
		userID, recurring)
}

// GetBillByID fetches a single bill.
func (s *SQLiteStorage) GetBillByID(ctx context.Context, id string) (*model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getBillByID(ctx, s.db, id)
}

// FindBill looks up a bill by its conceptual (user, merchant, description)
// key.
func (s *SQLiteStorage) FindBill(ctx context.Context, userID, merchant, description string) (*model.Bill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return findBill(ctx, s.db, userID, merchant, description)
}

func replaceBills(ctx context.Context, e dbtx, userID string, bills []model.Bill) ([]model.Bill, error) {
	if _, err := e.ExecContext(ctx, "DELETE FROM bills WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("failed to delete old bills: %w", err)
	}

	stmt, err := e.PrepareContext(ctx, `
		INSERT INTO bills (
			id, user_id, merchant, description, avg_amount, frequency,
			total_occurrences, recurring, verified, bill_type, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := make([]model.Bill, 0, len(bills))
	now := time.Now().UTC()
	for _, bill := range bills {
		if bill.ID == "" {
			bill.ID = uuid.NewString()
		}
		if bill.CreatedAt.IsZero() {
			bill.CreatedAt = now
		}
		bill.UserID = userID

		if _, err := stmt.ExecContext(ctx,
			bill.ID,
			bill.UserID,
			bill.Merchant,
			bill.Description,
			bill.AvgAmount,
			string(bill.Frequency),
			bill.TotalOccurrences,
			bill.Recurring,
			bill.Verified,
			string(bill.BillType),
			bill.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to insert bill for %s: %w", bill.Merchant, err)
		}
		inserted = append(inserted, bill)
	}

	return inserted, nil
}

func getBillByID(ctx context.Context, e dbtx, id string) (*model.Bill, error) {
	row := e.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM bills WHERE id = ?", billColumns), id)

	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

func findBill(ctx context.Context, e dbtx, userID, merchant, description string) (*model.Bill, error) {
	row := e.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM bills
		WHERE user_id = ? AND merchant = ? AND description = ?
	`, billColumns), userID, merchant, description)

	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}
	return bill, nil
}

func queryBills(ctx context.Context, e dbtx, query string, args ...any) ([]model.Bill, error) {
	rows, err := e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bills []model.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return bills, nil
}

func scanBill(row rowScanner) (*model.Bill, error) {
	var bill model.Bill
	var frequency, billType string
	err := row.Scan(
		&bill.ID,
		&bill.UserID,
		&bill.Merchant,
		&bill.Description,
		&bill.AvgAmount,
		&frequency,
		&bill.TotalOccurrences,
		&bill.Recurring,
		&bill.Verified,
		&billType,
		&bill.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	bill.Frequency = model.Frequency(frequency)
	bill.BillType = model.BillCategory(billType)
	return &bill, nil
}
