package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/billwise/billwise/internal/category"
	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/receipt"
	"github.com/billwise/billwise/internal/reward"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <receipt.pdf>",
		Short: "Verify a payment receipt and earn rewards",
		Long: `Upload a PDF receipt, cross-check it against your imported
transactions, and credit reward points and cashback when it matches.

The receipt must carry a transaction ID, a date, and an amount, and all
three must agree with a stored transaction belonging to you.`,
		Args: cobra.ExactArgs(1),
		RunE: runVerify,
	}

	cmd.Flags().String("company", "", "Merchant name printed on the receipt (required)")
	cmd.Flags().String("amount", "", "Payment amount asserted by the receipt (required)")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := requireUserID()
	if err != nil {
		return err
	}

	company, _ := cmd.Flags().GetString("company")
	amount, _ := cmd.Flags().GetString("amount")

	file, err := os.ReadFile(args[0]) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to read receipt: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	var blob receipt.BlobStore
	if bucket := viper.GetString("receipts.bucket"); bucket != "" {
		gcs, gcsErr := receipt.NewGCSStore(ctx, bucket)
		if gcsErr != nil {
			return fmt.Errorf("failed to open receipt bucket: %w", gcsErr)
		}
		defer func() { _ = gcs.Close() }()
		blob = gcs
	} else {
		slog.Warn("No receipts.bucket configured; receipt will not be archived durably")
		blob = receipt.NewMemoryStore()
	}

	settler := reward.NewEngine(store, category.DefaultRateTable())
	engine := receipt.NewEngine(store, blob, receipt.NewPDFExtractor(), settler)

	result, err := engine.Verify(ctx, userID, file, company, amount)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	content := fmt.Sprintf("Bill type: %s\nReceipt: %s\n\nPoints earned: %d\nCashback earned: $%.2f\n\nPoints balance: %d\nCashback balance: $%.2f",
		result.BillType,
		result.FileURL,
		result.RewardEarned,
		result.CashbackAmount,
		result.TotalPoints,
		result.CashbackBalance)

	fmt.Println(cli.RenderBox(cli.SuccessIcon+" Receipt Verified", content))

	return nil
}
