package main

import (
	"fmt"
	"strings"

	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/model"
	"github.com/spf13/cobra"
)

func billsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "List detected bills",
		Long: `List the bill series detected from your transactions, with their
cadence, bill type, and average amount.`,
		RunE: runBills,
	}

	cmd.Flags().StringP("frequency", "f", "", "Filter by cadence (monthly, weekly, biweekly, irregular)")
	cmd.Flags().Bool("recurring", false, "Show only recurring bills")

	return cmd
}

func runBills(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := requireUserID()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	freqStr, _ := cmd.Flags().GetString("frequency")
	onlyRecurring, _ := cmd.Flags().GetBool("recurring")

	var bills []model.Bill
	switch {
	case freqStr != "":
		freq := model.Frequency(freqStr)
		if !freq.Valid() {
			return fmt.Errorf("invalid frequency %q: expected monthly, weekly, biweekly, or irregular", freqStr)
		}
		bills, err = store.GetBillsByFrequency(ctx, userID, freq)
	case onlyRecurring:
		bills, err = store.GetBillsByRecurring(ctx, userID, true)
	default:
		bills, err = store.GetBills(ctx, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to load bills: %w", err)
	}

	if len(bills) == 0 {
		fmt.Println(cli.FormatWarning("No bills found - run 'billwise detect' first"))
		return nil
	}

	var sb strings.Builder
	header := fmt.Sprintf("%-24s %-28s %-22s %-10s %10s  %s",
		"Merchant", "Description", "Type", "Cadence", "Avg", "Recurring")
	sb.WriteString(cli.TableHeaderStyle.Render(header))
	sb.WriteString("\n")
	for _, bill := range bills {
		recurring := ""
		if bill.Recurring {
			recurring = cli.SuccessIcon
		}
		sb.WriteString(fmt.Sprintf("%-24s %-28s %-22s %-10s %10s  %s\n",
			truncate(bill.Merchant, 24),
			truncate(bill.Description, 28),
			truncate(string(bill.BillType), 22),
			bill.Frequency,
			fmt.Sprintf("%.2f", bill.AvgAmount),
			recurring))
	}

	fmt.Println(cli.RenderBox(cli.BillIcon+" Bills", sb.String()))

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
