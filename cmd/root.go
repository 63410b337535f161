package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brightpath/onboard/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Digital employee onboarding extraction pipeline",
	Long:  "Extracts structured onboarding facts (stakeholders, KPIs, process steps, integrations, persona traits) from working-session transcripts and documents via Claude, with schema validation and operation tracking.",
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
