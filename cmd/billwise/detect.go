package main

import (
	"fmt"
	"log/slog"

	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/detect"
	"github.com/billwise/billwise/internal/project"
	"github.com/spf13/cobra"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect recurring bills from imported transactions",
		Long: `Group outgoing transactions into bill series, classify each series
by payment cadence and bill type, and replace the stored bill set.

Pass --project to also refresh the upcoming-bill projections afterwards.`,
		RunE: runDetect,
	}

	cmd.Flags().Bool("project", false, "Also refresh upcoming-bill projections")

	return cmd
}

func runDetect(cmd *cobra.Command, _ []string) error {
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

	slog.Info(cli.FormatTitle("Detecting bills"))

	bills, err := detect.New(store).Run(ctx, userID)
	if err != nil {
		return fmt.Errorf("bill detection failed: %w", err)
	}

	recurring := 0
	for _, bill := range bills {
		if bill.Recurring {
			recurring++
		}
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Detected %d bill series (%d recurring)", len(bills), recurring)))

	doProject, _ := cmd.Flags().GetBool("project")
	if !doProject {
		return nil
	}

	pending, err := project.New(store).Run(ctx, userID)
	if err != nil {
		return fmt.Errorf("projection failed: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Projected %d upcoming bills", len(pending))))

	return nil
}
