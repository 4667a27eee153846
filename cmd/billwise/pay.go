package main

import (
	"fmt"

	"github.com/billwise/billwise/internal/category"
	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/reward"
	"github.com/spf13/cobra"
)

func payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <pending-bill-id>",
		Short: "Pay an upcoming bill and earn rewards",
		Long: `Mark an upcoming bill as paid. The payment is recorded in the history,
reward points and cashback are credited, and the bill cannot be paid a
second time.`,
		Args: cobra.ExactArgs(1),
		RunE: runPay,
	}
}

func runPay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	engine := reward.NewEngine(store, category.DefaultRateTable())

	settlement, err := engine.Pay(ctx, args[0])
	if err != nil {
		return fmt.Errorf("payment failed: %w", err)
	}

	content := fmt.Sprintf("Merchant: %s\nAmount: $%.2f\nBill type: %s\n\nPoints earned: %d\nCashback earned: $%.2f\n\nPoints balance: %d\nCashback balance: $%.2f",
		settlement.PendingBill.Merchant,
		-settlement.PendingBill.NextAmount,
		settlement.BillType,
		settlement.RewardEarned,
		settlement.CashbackEarned,
		settlement.TotalPoints,
		settlement.CashbackBalance)

	fmt.Println(cli.RenderBox(cli.CoinIcon+" Bill Paid", content))

	return nil
}
