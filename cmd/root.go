package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "golftracker",
	Short: "Multi-source golf identity reconciliation pipeline",
	Long:  "Scrapes rosters, schedules, and results from the tour APIs, reconciles player identities across sources, and enriches biographical data through Wikipedia, web search, and Claude.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
