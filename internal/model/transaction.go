// Package model defines the core domain types for the billwise application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single bank transaction from any source.
// Amounts are signed: negative means money leaving the account, which marks
// a candidate bill payment.
type Transaction struct {
	Date        time.Time
	ID          string
	UserID      string
	Merchant    string
	Description string
	AccountID   string
	Hash        string
	Amount      float64
}

// IsOutgoing reports whether the transaction is an outgoing payment.
func (t *Transaction) IsOutgoing() bool {
	return t.Amount < 0
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s:%s",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Merchant,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
