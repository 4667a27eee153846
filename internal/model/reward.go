package model

import "time"

// TransactionHistory is an append-only record of a settled (paid or
// verified) bill instance. Records are never mutated or deleted.
type TransactionHistory struct {
	PaidDate    time.Time
	ID          string
	UserID      string
	BillID      string
	Merchant    string
	Description string
	FileURL     string
	Amount      float64
	Reward      int
}

// RewardStatus tracks the lifecycle of a ledger entry.
type RewardStatus string

// Reward status constants.
const (
	RewardStatusEarned   RewardStatus = "earned"
	RewardStatusRedeemed RewardStatus = "redeemed"
	RewardStatusExpired  RewardStatus = "expired"
)

// RewardTypeCoins is the ledger entry type for point awards.
const RewardTypeCoins = "coins"

// Reward is an append-only ledger entry. The user balance is the cached
// aggregate; this ledger is the audit trail.
type Reward struct {
	CreatedAt   time.Time
	ID          string
	UserID      string
	HistoryID   string
	Type        string
	Description string
	Status      RewardStatus
	Amount      int
	Cashback    float64
}
