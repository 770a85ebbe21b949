package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guiamarela/zonecheck/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "zonecheck",
	Short: "Curitiba zoning resolution and compliance checks",
	Long:  "Resolves the zoning designation of Curitiba lots from addresses, municipal registrations or coordinates, and checks construction projects against zone parameters.",
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
