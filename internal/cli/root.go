// Package cli implements the asil command line.
package cli

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	logLevel    string
	provider    string
	modelName   string
	routerMode  string
	catalogPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "asil",
	Short: "Asil - OyGul ERP assistant",
	Long: `Asil answers flower-shop ERP requests in Uzbek, Russian and English.
It routes every message to a specialized agent that manages flowers,
bouquets, consumables, supplies and orders through the OyGul API.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "model provider (openai, anthropic, gemini); overrides MODEL_PROVIDER")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "model name; overrides MODEL_NAME")
	rootCmd.PersistentFlags().StringVar(&routerMode, "router", "", "router mode (keyword, model); overrides ROUTER_MODE")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "agent catalog YAML; overrides AGENT_CATALOG")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}
