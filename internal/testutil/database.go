// Package testutil provides test fixtures for the billwise project.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/service"
	"github.com/billwise/billwise/internal/storage"
	"github.com/google/uuid"
)

// TestDB wraps an in-memory migrated database for tests.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database with migrations
// applied and cleanup registered.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedUser creates a user with the given account-creation date and
// returns it.
func (db *TestDB) SeedUser(name string, createdAt time.Time) *model.User {
	db.t.Helper()

	user := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: createdAt,
	}
	if err := db.Storage.CreateUser(context.Background(), user); err != nil {
		db.t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// SeedTransactions saves the provided transactions, filling in ids and
// hashes where missing.
func (db *TestDB) SeedTransactions(userID string, transactions ...model.Transaction) []model.Transaction {
	db.t.Helper()

	for i := range transactions {
		transactions[i].UserID = userID
		if transactions[i].ID == "" {
			transactions[i].ID = uuid.NewString()
		}
	}
	if err := db.Storage.SaveTransactions(context.Background(), transactions); err != nil {
		db.t.Fatalf("failed to seed transactions: %v", err)
	}
	return transactions
}
