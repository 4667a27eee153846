package tui

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive bill review screen and blocks until the
// user quits or the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Storage == nil {
		return fmt.Errorf("storage is required")
	}
	if cfg.Engine == nil {
		return fmt.Errorf("reward engine is required")
	}
	if cfg.UserID == "" {
		return fmt.Errorf("user id is required")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cleanupTerminal := func() {
		// Best-effort restore; errors are unactionable here.
		_, _ = os.Stdout.Write([]byte("\033[?1049l")) // Exit alternate screen
		_, _ = os.Stdout.Write([]byte("\033[?25h"))   // Show cursor
		_, _ = os.Stdout.Write([]byte("\033[m"))      // Reset colors
	}
	defer cleanupTerminal()

	go func() {
		<-sigChan
		cleanupTerminal()
		cancel()
	}()

	program := tea.NewProgram(newModel(ctx, cfg), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("bill review failed: %w", err)
	}

	return nil
}
