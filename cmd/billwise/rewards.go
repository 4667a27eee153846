package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/config"
	"github.com/billwise/billwise/internal/sheets"
	"github.com/spf13/cobra"
)

func rewardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Show reward balances and history",
		Long: `Show your reward point and cashback balances, the per-month point
totals for the year, and the settled payment history.

Pass --export to write the report to Google Sheets.`,
		RunE: runRewards,
	}

	cmd.Flags().Int("year", time.Now().Year(), "Year for the monthly breakdown")
	cmd.Flags().Bool("export", false, "Export the report to Google Sheets")

	return cmd
}

func runRewards(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := requireUserID()
	if err != nil {
		return err
	}

	year, _ := cmd.Flags().GetInt("year")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	history, err := store.GetTransactionHistory(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	monthly, err := store.GetMonthlyRewardTotals(ctx, userID, year)
	if err != nil {
		return fmt.Errorf("failed to load monthly totals: %w", err)
	}

	doExport, _ := cmd.Flags().GetBool("export")
	if doExport {
		rewards, rewardsErr := store.GetRewards(ctx, userID)
		if rewardsErr != nil {
			return fmt.Errorf("failed to load rewards: %w", rewardsErr)
		}

		sheetsConfig, cfgErr := config.LoadSheetsConfig()
		if cfgErr != nil {
			return fmt.Errorf("sheets config: %w", cfgErr)
		}

		writer, writerErr := sheets.NewWriter(ctx, *sheetsConfig, slog.Default())
		if writerErr != nil {
			return fmt.Errorf("failed to create sheets writer: %w", writerErr)
		}

		report := &sheets.Report{
			User:          user,
			History:       history,
			Rewards:       rewards,
			MonthlyTotals: monthly,
			Year:          year,
		}
		if err := writer.Write(ctx, report); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		slog.Info(cli.FormatSuccess("Rewards report exported to Google Sheets"))
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Points balance: %d\nCashback balance: $%.2f\nSettled bills: %d\n\n",
		user.RewardPoints, user.Cashback, len(history)))

	sb.WriteString(fmt.Sprintf("Points by month (%d):\n", year))
	for m := time.January; m <= time.December; m++ {
		if monthly[m] == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-10s %d\n", m.String(), monthly[m]))
	}

	if len(history) > 0 {
		sb.WriteString("\nRecent payments:\n")
		shown := history
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for _, h := range shown {
			sb.WriteString(fmt.Sprintf("  %s  %-24s %10s  +%d pts\n",
				h.PaidDate.Format("2006-01-02"),
				truncate(h.Merchant, 24),
				fmt.Sprintf("%.2f", h.Amount),
				h.Reward))
		}
	}

	fmt.Println(cli.RenderBox(cli.CoinIcon+" Rewards", sb.String()))

	return nil
}
