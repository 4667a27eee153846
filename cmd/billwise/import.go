package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/model"
	"github.com/billwise/billwise/internal/ofx"
	"github.com/billwise/billwise/internal/plaid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from Plaid",
		Long: `Import financial transactions from your connected Plaid accounts.

This command fetches transactions from Plaid and stores them in the local
database for bill detection. Transactions are deduplicated automatically.`,
		RunE: runImport,
	}

	// Date range flags
	cmd.Flags().StringP("start-date", "s", "", "Start date for transaction import (format: 2006-01-02)")
	cmd.Flags().StringP("end-date", "e", "", "End date for transaction import (format: 2006-01-02)")
	cmd.Flags().IntP("days", "d", 90, "Number of days to import (used if start/end dates not specified)")
	cmd.Flags().Bool("dry-run", false, "Show what would be imported without saving")

	cmd.AddCommand(importOFXCmd())

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := requireUserID()
	if err != nil {
		return err
	}

	// Get Plaid configuration
	plaidConfig := plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	}
	if plaidConfig.Environment == "" {
		plaidConfig.Environment = "sandbox"
	}

	plaidClient, err := plaid.NewClient(plaidConfig)
	if err != nil {
		return fmt.Errorf("failed to create Plaid client: %w", err)
	}

	startDate, endDate, err := parseDateRange(cmd)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Importing transactions from Plaid"))
	slog.Info("Date range", "start", startDate.Format("2006-01-02"), "end", endDate.Format("2006-01-02"))

	transactions, err := plaidClient.GetTransactions(ctx, userID, startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Fetched %d transactions", len(transactions))))

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		slog.Info(cli.FormatWarning("Dry run mode - not saving to database"))
		displayTransactionSummary(transactions)
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := saveWithProgress(ctx, cmd, store.SaveTransactions, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	slog.Info(cli.FormatSuccess("Import complete!"))
	displayTransactionSummary(transactions)

	return nil
}

func parseDateRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")
	days, _ := cmd.Flags().GetInt("days")

	endDate := time.Now()
	if endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
		endDate = parsed
	}

	startDate := endDate.AddDate(0, 0, -days)
	if startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", startStr, err)
		}
		startDate = parsed
	}

	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}

	return startDate, endDate, nil
}

func displayTransactionSummary(transactions []model.Transaction) {
	if len(transactions) == 0 {
		slog.Info("No transactions in range")
		return
	}

	var outgoing int
	var outgoingTotal float64
	for _, txn := range transactions {
		if txn.IsOutgoing() {
			outgoing++
			outgoingTotal += txn.Amount
		}
	}

	content := fmt.Sprintf("Total transactions: %d\nOutgoing: %d\nOutgoing total: $%.2f",
		len(transactions), outgoing, -outgoingTotal)
	fmt.Println(cli.RenderBox(cli.ChartIcon+" Import Summary", content))
}

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ofx <file or glob>...",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX files downloaded from your bank.

Files are parsed locally; no network access is required. Transactions
are deduplicated by content hash, so re-importing a file is safe.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().Bool("dry-run", false, "Show what would be imported without saving")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := requireUserID()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, statErr := os.Stat(pattern); statErr == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info(cli.FormatTitle("Importing OFX files"),
		"file_count", len(allFiles),
		"dry_run", dryRun)

	var allTransactions []model.Transaction
	seen := make(map[string]bool) // For deduplication

	parser := ofx.NewParser()

	for _, filePath := range allFiles {
		f, err := os.Open(filePath) // #nosec G304
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			continue
		}

		transactions, err := parser.ParseFile(ctx, userID, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", filePath, "error", err)
			continue
		}

		added := 0
		for _, txn := range transactions {
			if !seen[txn.Hash] {
				seen[txn.Hash] = true
				allTransactions = append(allTransactions, txn)
				added++
			}
		}

		slog.Info("Processed file",
			"file", filepath.Base(filePath),
			"transactions_found", len(transactions),
			"added", added,
			"duplicates", len(transactions)-added)
	}

	if len(allTransactions) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	if dryRun {
		slog.Info(cli.FormatWarning("Dry run mode - not saving to database"))
		displayTransactionSummary(allTransactions)
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := saveWithProgress(ctx, cmd, store.SaveTransactions, allTransactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	slog.Info(cli.FormatSuccess("Import complete!"))
	displayTransactionSummary(allTransactions)

	return nil
}

// saveBatchSize keeps the progress bar honest on large imports.
const saveBatchSize = 100

type saveFunc func(ctx context.Context, transactions []model.Transaction) error

func saveWithProgress(ctx context.Context, cmd *cobra.Command, save saveFunc, transactions []model.Transaction) error {
	bar := progressbar.NewOptions(len(transactions),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Saving transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	for i := 0; i < len(transactions); i += saveBatchSize {
		end := i + saveBatchSize
		if end > len(transactions) {
			end = len(transactions)
		}
		if err := save(ctx, transactions[i:end]); err != nil {
			return err
		}
		if err := bar.Add(end - i); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	fmt.Fprintln(cmd.ErrOrStderr())
	return nil
}
