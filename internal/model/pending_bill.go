package model

import "time"

// PendingStatus tracks whether a projected bill instance has been settled.
type PendingStatus string

const (
	// PendingStatusPending means the projected bill has not been paid yet.
	PendingStatusPending PendingStatus = "pending"
	// PendingStatusPaid means the projected bill was settled. The
	// transition pending -> paid happens exactly once.
	PendingStatusPaid PendingStatus = "paid"
)

// PendingBill is the next-instance projection of a Bill: when it is next
// due and for how much. NextAmount keeps the signed (negative) convention.
type PendingBill struct {
	LastPaidDate    time.Time
	NextPaymentDate time.Time
	ID              string
	UserID          string
	BillID          string
	Merchant        string
	Description     string
	NextAmount      float64
	Status          PendingStatus
}
