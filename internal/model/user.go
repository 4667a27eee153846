package model

import "time"

// User holds the balance-relevant subset of an account. RewardPoints and
// Cashback are running totals mutated only through atomic increments during
// settlement; CreatedAt backs the receipt anti-backdating check.
type User struct {
	CreatedAt    time.Time
	ID           string
	Name         string
	RewardPoints int
	Cashback     float64
}
