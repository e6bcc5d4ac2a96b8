package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/debreselam/schoolbot/internal/app"
	"github.com/debreselam/schoolbot/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the bot in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	chatCmd.Flags().String("log-file", "", "Write logs to this file instead of discarding them")
}

// openApp builds the App from the resolved configuration.
func openApp() (*app.App, error) {
	a, err := app.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}
	return a, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// runChat launches the terminal chat. Logs would corrupt the screen, so
// they go to --log-file or nowhere.
func runChat(cmd *cobra.Command) error {
	logFile, _ := cmd.Flags().GetString("log-file")
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.TopUpQuestions(ctx)
	go a.RunJanitor(ctx)

	return tui.Run(ctx, a.Machine, "terminal")
}
