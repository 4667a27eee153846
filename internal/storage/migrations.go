package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Users and transactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					reward_points INTEGER NOT NULL DEFAULT 0,
					cashback REAL NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					merchant TEXT,
					description TEXT,
					account_id TEXT,
					amount REAL NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_user ON transactions(user_id)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_merchant ON transactions(user_id, merchant, description)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Bills and pending bills",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS bills (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					merchant TEXT NOT NULL,
					description TEXT NOT NULL,
					avg_amount REAL NOT NULL,
					frequency TEXT NOT NULL,
					total_occurrences INTEGER NOT NULL DEFAULT 0,
					recurring INTEGER NOT NULL DEFAULT 0,
					verified INTEGER NOT NULL DEFAULT 0,
					bill_type TEXT NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_bills_user ON bills(user_id)`,
				`CREATE INDEX idx_bills_frequency ON bills(user_id, frequency)`,

				// bill_id is intentionally not a foreign key: bills are
				// replaced wholesale on every detection run and a pending
				// set can briefly outlive the bill set it was projected
				// from.
				`CREATE TABLE IF NOT EXISTS pending_bills (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					bill_id TEXT NOT NULL,
					merchant TEXT NOT NULL,
					description TEXT NOT NULL,
					next_amount REAL NOT NULL,
					last_paid_date DATETIME NOT NULL,
					next_payment_date DATETIME NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending'
				)`,
				`CREATE INDEX idx_pending_bills_user ON pending_bills(user_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Transaction history and reward ledger",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transaction_history (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					bill_id TEXT,
					merchant TEXT,
					description TEXT,
					amount REAL NOT NULL,
					paid_date DATETIME NOT NULL,
					reward INTEGER NOT NULL DEFAULT 0,
					file_url TEXT
				)`,
				`CREATE INDEX idx_history_user ON transaction_history(user_id)`,

				`CREATE TABLE IF NOT EXISTS rewards (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					history_id TEXT,
					type TEXT NOT NULL,
					amount INTEGER NOT NULL DEFAULT 0,
					cashback REAL NOT NULL DEFAULT 0,
					description TEXT,
					status TEXT NOT NULL DEFAULT 'earned',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_rewards_user ON rewards(user_id)`,
				`CREATE INDEX idx_rewards_created ON rewards(user_id, created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if currentVersion >= ExpectedSchemaVersion {
		slog.Debug("Database schema up to date", "version", currentVersion)
		return nil
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		// PRAGMA does not support placeholders.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	slog.Info("Database migrated", "version", ExpectedSchemaVersion)
	return nil
}
