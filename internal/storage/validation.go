package storage

import (
	"context"
	"fmt"

	"github.com/billwise/billwise/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return nil
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("user cannot be nil")
	}
	if user.ID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	return nil
}

func validateTransactions(transactions []model.Transaction) error {
	for i, txn := range transactions {
		if txn.ID == "" {
			return fmt.Errorf("transaction %d: ID cannot be empty", i)
		}
		if txn.UserID == "" {
			return fmt.Errorf("transaction %d: user ID cannot be empty", i)
		}
		if txn.Date.IsZero() {
			return fmt.Errorf("transaction %d: date cannot be zero", i)
		}
	}
	return nil
}

func validateHistory(history *model.TransactionHistory) error {
	if history == nil {
		return fmt.Errorf("history cannot be nil")
	}
	if history.ID == "" {
		return fmt.Errorf("history ID cannot be empty")
	}
	if history.UserID == "" {
		return fmt.Errorf("history user ID cannot be empty")
	}
	return nil
}

func validateReward(reward *model.Reward) error {
	if reward == nil {
		return fmt.Errorf("reward cannot be nil")
	}
	if reward.ID == "" {
		return fmt.Errorf("reward ID cannot be empty")
	}
	if reward.UserID == "" {
		return fmt.Errorf("reward user ID cannot be empty")
	}
	return nil
}
