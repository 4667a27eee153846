package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billwise/billwise/internal/common"
	"github.com/billwise/billwise/internal/model"
)

// CreateUser inserts a new user record.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}
	return createUser(ctx, s.db, user)
}

// GetUser fetches a user by id.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getUser(ctx, s.db, id)
}

// IncrementUserBalance atomically adds points and cashback to a user's
// running totals. This is a SQL-level increment, not read-modify-write,
// so concurrent settlements for the same user cannot lose updates.
func (s *SQLiteStorage) IncrementUserBalance(ctx context.Context, userID string, points int, cashback float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	return incrementUserBalance(ctx, s.db, userID, points, cashback)
}

func createUser(ctx context.Context, e dbtx, user *model.User) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO users (id, name, reward_points, cashback, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Name, user.RewardPoints, user.Cashback, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func getUser(ctx context.Context, e dbtx, id string) (*model.User, error) {
	var user model.User
	err := e.QueryRowContext(ctx, `
		SELECT id, name, reward_points, cashback, created_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Name, &user.RewardPoints, &user.Cashback, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func incrementUserBalance(ctx context.Context, e dbtx, userID string, points int, cashback float64) error {
	result, err := e.ExecContext(ctx, `
		UPDATE users
		SET reward_points = reward_points + ?, cashback = cashback + ?
		WHERE id = ?
	`, points, cashback, userID)
	if err != nil {
		return fmt.Errorf("failed to increment balance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
	}
	return nil
}
