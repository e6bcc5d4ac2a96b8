package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/debreselam/schoolbot/internal/transport/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the Telegram bot (long polling)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.TelegramToken == "" {
			return errors.New("TELEGRAM_BOT_TOKEN is not set")
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

		bot, err := telegram.New(a.Machine, telegram.Options{
			Token:  cfg.TelegramToken,
			Logger: log,
		})
		if err != nil {
			return err
		}
		return bot.Run(ctx)
	},
}
