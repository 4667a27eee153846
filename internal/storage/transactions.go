package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/service"
)

const transactionColumns = "id, user_id, hash, date, merchant, description, account_id, amount"

// SaveTransactions saves multiple transactions to the database, skipping
// duplicates by hash.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return saveTransactions(ctx, tx, transactions)
	})
}

// GetTransactions returns a user's transactions matching the filter,
// ordered by date ascending.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return getTransactions(ctx, s.db, userID, filter)
}

// GetOutgoingTransactions returns a user's outgoing (negative amount)
// transactions ordered by date ascending.
func (s *SQLiteStorage) GetOutgoingTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return getOutgoingTransactions(ctx, s.db, userID)
}

// GetTransactionByID fetches a single transaction by its id.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getTransactionByID(ctx, s.db, id)
}

// GetLatestOutgoingTransaction returns the most recent outgoing
// transaction for a (merchant, description) pair, or ErrNotFound.
func (s *SQLiteStorage) GetLatestOutgoingTransaction(ctx context.Context, userID, merchant, description string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return getLatestOutgoingTransaction(ctx, s.db, userID, merchant, description)
}

func saveTransactions(ctx context.Context, e dbtx, transactions []model.Transaction) error {
	stmt, err := e.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, user_id, hash, date, merchant, description, account_id, amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}

		if _, err := stmt.ExecContext(ctx,
			txn.ID,
			txn.UserID,
			txn.Hash,
			txn.Date,
			txn.Merchant,
			txn.Description,
			txn.AccountID,
			txn.Amount,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return nil
}

func getTransactions(ctx context.Context, e dbtx, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE user_id = ?", transactionColumns)
	args := []any{userID}

	var conditions []string
	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY date ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := e.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

func getOutgoingTransactions(ctx context.Context, e dbtx, userID string) ([]model.Transaction, error) {
	rows, err := e.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE user_id = ? AND amount < 0
		ORDER BY date ASC
	`, transactionColumns), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outgoing transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

func getTransactionByID(ctx context.Context, e dbtx, id string) (*model.Transaction, error) {
	row := e.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM transactions WHERE id = ?", transactionColumns), id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func getLatestOutgoingTransaction(ctx context.Context, e dbtx, userID, merchant, description string) (*model.Transaction, error) {
	row := e.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE user_id = ? AND merchant = ? AND description = ? AND amount < 0
		ORDER BY date DESC LIMIT 1
	`, transactionColumns), userID, merchant, description)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest transaction: %w", err)
	}
	return txn, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var merchant, description, accountID sql.NullString
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Hash,
		&txn.Date,
		&merchant,
		&description,
		&accountID,
		&txn.Amount,
	)
	if err != nil {
		return nil, err
	}
	txn.Merchant = merchant.String
	txn.Description = description.String
	txn.AccountID = accountID.String
	return &txn, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
