package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "waterworks",
		Short: "Water works replay dashboard",
		Long:  `Replays recorded flow and totalizer readings of the pump houses as a live dashboard.`,
	}

	defaultConfig := "./configs/waterworks.yaml"
	if env := os.Getenv("WATERWORKS_CONFIG"); env != "" {
		defaultConfig = env
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to configuration file (env: WATERWORKS_CONFIG)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
