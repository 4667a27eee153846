package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
	"github.com/google/uuid"
)

const pendingColumns = "id, user_id, bill_id, merchant, description, next_amount, last_paid_date, next_payment_date, status"

// ReplacePendingBills swaps out a user's pending-bill set in one
// transaction, mirroring ReplaceBills.
func (s *SQLiteStorage) ReplacePendingBills(ctx context.Context, userID string, pending []model.PendingBill) ([]model.PendingBill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var inserted []model.PendingBill
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		inserted, txErr = replacePendingBills(ctx, tx, userID, pending)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// GetPendingBills returns all pending bills for a user ordered by next
// payment date.
func (s *SQLiteStorage) GetPendingBills(ctx context.Context, userID string) ([]model.PendingBill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return queryPendingBills(ctx, s.db, fmt.Sprintf(`
		SELECT %s FROM pending_bills
		WHERE user_id = ?
		ORDER BY next_payment_date ASC
	`, pendingColumns), userID)
}

// GetPendingBillByID fetches a single pending bill.
func (s *SQLiteStorage) GetPendingBillByID(ctx context.Context, id string) (*model.PendingBill, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getPendingBillByID(ctx, s.db, id)
}

// MarkPendingBillPaid flips a pending bill to paid. The update is
// conditional on the current status so the pending -> paid transition can
// only ever happen once; a second attempt reports ErrAlreadyPaid.
func (s *SQLiteStorage) MarkPendingBillPaid(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return markPendingBillPaid(ctx, s.db, id)
}

func replacePendingBills(ctx context.Context, e dbtx, userID string, pending []model.PendingBill) ([]model.PendingBill, error) {
	if _, err := e.ExecContext(ctx, "DELETE FROM pending_bills WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("failed to delete old pending bills: %w", err)
	}

	stmt, err := e.PrepareContext(ctx, `
		INSERT INTO pending_bills (
			id, user_id, bill_id, merchant, description,
			next_amount, last_paid_date, next_payment_date, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := make([]model.PendingBill, 0, len(pending))
	for _, pb := range pending {
		if pb.ID == "" {
			pb.ID = uuid.NewString()
		}
		if pb.Status == "" {
			pb.Status = model.PendingStatusPending
		}
		pb.UserID = userID

		if _, err := stmt.ExecContext(ctx,
			pb.ID,
			pb.UserID,
			pb.BillID,
			pb.Merchant,
			pb.Description,
			pb.NextAmount,
			pb.LastPaidDate,
			pb.NextPaymentDate,
			string(pb.Status),
		); err != nil {
			return nil, fmt.Errorf("failed to insert pending bill for %s: %w", pb.Merchant, err)
		}
		inserted = append(inserted, pb)
	}

	return inserted, nil
}

func getPendingBillByID(ctx context.Context, e dbtx, id string) (*model.PendingBill, error) {
	row := e.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM pending_bills WHERE id = ?", pendingColumns), id)

	pb, err := scanPendingBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pending bill %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending bill: %w", err)
	}
	return pb, nil
}

func markPendingBillPaid(ctx context.Context, e dbtx, id string) error {
	result, err := e.ExecContext(ctx, `
		UPDATE pending_bills SET status = ?
		WHERE id = ? AND status = ?
	`, string(model.PendingStatusPaid), id, string(model.PendingStatusPending))
	if err != nil {
		return fmt.Errorf("failed to mark pending bill paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		// Either the bill doesn't exist or it was already settled.
		if _, lookupErr := getPendingBillByID(ctx, e, id); lookupErr != nil {
			return lookupErr
		}
		return fmt.Errorf("pending bill %s: %w", id, common.ErrAlreadyPaid)
	}
	return nil
}

func queryPendingBills(ctx context.Context, e dbtx, query string, args ...any) ([]model.PendingBill, error) {
	rows, err := e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending bills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pending []model.PendingBill
	for rows.Next() {
		pb, err := scanPendingBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending bill: %w", err)
		}
		pending = append(pending, *pb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending bills: %w", err)
	}
	return pending, nil
}

func scanPendingBill(row rowScanner) (*model.PendingBill, error) {
	var pb model.PendingBill
	var status string
	err := row.Scan(
		&pb.ID,
		&pb.UserID,
		&pb.BillID,
		&pb.Merchant,
		&pb.Description,
		&pb.NextAmount,
		&pb.LastPaidDate,
		&pb.NextPaymentDate,
		&status,
	)
	if err != nil {
		return nil, err
	}
	pb.Status = model.PendingStatus(status)
	return &pb, nil
}
