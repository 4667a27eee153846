package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/billwise/billwise/internal/cli"
	"github.com/billwise/billwise/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage billwise users",
	}

	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userShowCmd())

	return cmd
}

func userAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			user := &model.User{
				ID:        uuid.New().String(),
				Name:      args[0],
				CreatedAt: time.Now().UTC(),
			}

			if err := store.CreateUser(ctx, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			slog.Info(cli.FormatSuccess("User created"), "id", user.ID, "name", user.Name)
			return nil
		},
	}
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current user's balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			user, err := store.GetUser(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}

			content := fmt.Sprintf("Name: %s\nReward points: %d\nCashback: $%.2f\nMember since: %s",
				user.Name, user.RewardPoints, user.Cashback,
				user.CreatedAt.Format("Jan 2, 2006"))
			fmt.Println(cli.RenderBox(cli.CoinIcon+" Account", content))

			return nil
		},
	}
}
