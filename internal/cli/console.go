package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/internal/console"
)

var (
	consoleLang     string
	consoleLogin    string
	consolePassword string
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with Asil in the terminal",
	Long: `Start an interactive session in the terminal.
The session can log in with --login/--password (or OYGUL_LOGIN/OYGUL_PASSWORD)
or reuse a pre-issued OYGUL_BEARER_TOKEN. Type "exit" to quit.`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consoleLang, "lang", "", "conversation language (uz, ru, en); overrides OYGUL_LANGUAGE")
	consoleCmd.Flags().StringVar(&consoleLogin, "login", "", "OyGul login; overrides OYGUL_LOGIN")
	consoleCmd.Flags().StringVar(&consolePassword, "password", "", "OyGul password; overrides OYGUL_PASSWORD")
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	opts := consoleOptions(a)

	c := console.New(a.store, a.runner, a.manager, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger)
	return c.Run(ctx, opts)
}

func consoleOptions(a *app) console.Options {
	cc := a.cfg.Console
	opts := console.Options{
		Key:         core.SessionKey{AppName: a.cfg.Agent.AppName, UserID: "console", SessionID: "console"},
		Language:    cc.Language,
		Login:       cc.Login,
		Password:    cc.Password,
		BearerToken: cc.BearerToken,
		MerchantID:  cc.MerchantID,
		BranchID:    cc.BranchID,
		UserID:      cc.UserID,
		TurnTimeout: a.cfg.Agent.TurnTimeout,
	}
	if consoleLang != "" {
		opts.Language = consoleLang
	}
	if consoleLogin != "" {
		opts.Login = consoleLogin
	}
	if consolePassword != "" {
		opts.Password = consolePassword
	}
	return opts
}
