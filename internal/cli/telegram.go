package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oygul/asil/internal/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Serve Asil as a Telegram bot",
	Long: `Start the Telegram bot with long polling.
TELEGRAM_BOT_TOKEN must be set. The bot runs until interrupted.`,
	RunE: runTelegram,
}

func init() {
	rootCmd.AddCommand(telegramCmd)
}

func runTelegram(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable must be set")
	}

	api, err := telegram.Connect(a.cfg.Telegram.Token, a.cfg.Telegram.Debug)
	if err != nil {
		return err
	}
	a.logger.Info("telegram.bot.authenticated", "username", api.Self.UserName, "id", api.Self.ID)

	bot := telegram.New(api, a.manager, func(o *telegram.Options) {
		o.Logger = a.logger
		o.Metrics = a.metrics
	})
	return bot.Run(ctx)
}
