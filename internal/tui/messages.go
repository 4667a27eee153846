package tui

import (
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/reward"
)

// Data loading messages.
type pendingLoadedMsg struct {
	err     error
	pending []model.PendingBill
}

// Async operation messages.
type billPaidMsg struct {
	err        error
	settlement *reward.Settlement
	billID     string
}
