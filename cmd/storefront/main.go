package main

import (
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Pickup storefront: Telegram bot and admin API",
	Long: `Storefront runs a Telegram shop bot next to a JSON admin API.

Subcommands:
  serve    - Start the admin API and, when TELEGRAM_TOKEN is set, the bot
  migrate  - Apply or inspect database migrations
  seed     - Load a demo catalog`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the process logger
func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}
