package main

import (
	"fmt"
	"strings"

	"github.com/billwise/billwise/internal/category"
	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/project"
	"github.com/billwise/billwise/internal/reward"
	"github.com/billwise/billwise/internal/tui"
	"github.com/spf13/cobra"
)

func upcomingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Project and list upcoming bills",
		Long: `Project the next due date and expected amount for every detected bill,
replace the stored pending set, and list the result.

Pass --tui for an interactive review screen where bills can be paid
directly.`,
		RunE: runUpcoming,
	}

	cmd.Flags().Bool("tui", false, "Open the interactive review screen")
	cmd.Flags().Bool("no-refresh", false, "List stored projections without recomputing them")

	return cmd
}

func runUpcoming(cmd *cobra.Command, _ []string) error {
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

	noRefresh, _ := cmd.Flags().GetBool("no-refresh")
	if !noRefresh {
		if _, err := project.New(store).Run(ctx, userID); err != nil {
			return fmt.Errorf("projection failed: %w", err)
		}
	}

	useTUI, _ := cmd.Flags().GetBool("tui")
	if useTUI {
		engine := reward.NewEngine(store, category.DefaultRateTable())
		return tui.Run(ctx, tui.Config{
			Storage: store,
			Engine:  engine,
			UserID:  userID,
		})
	}

	pending, err := store.GetPendingBills(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load pending bills: %w", err)
	}

	if len(pending) == 0 {
		fmt.Println(cli.FormatWarning("No upcoming bills - run 'billwise detect' first"))
		return nil
	}

	var sb strings.Builder
	header := fmt.Sprintf("%-12s %-24s %-28s %10s  %-8s",
		"Due", "Merchant", "Description", "Amount", "Status")
	sb.WriteString(cli.TableHeaderStyle.Render(header))
	sb.WriteString("\n")
	for _, pb := range pending {
		sb.WriteString(fmt.Sprintf("%-12s %-24s %-28s %10s  %-8s\n",
			pb.NextPaymentDate.Format("2006-01-02"),
			truncate(pb.Merchant, 24),
			truncate(pb.Description, 28),
			fmt.Sprintf("%.2f", pb.NextAmount),
			pb.Status))
	}

	fmt.Println(cli.RenderBox(cli.BillIcon+" Upcoming Bills", sb.String()))

	return nil
}
