package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	waterworks "github.com/Adi0604/Water-Works"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := waterworks.Conf(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				flow.Config().HTTP.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return flow.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides http.addr")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a config file without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := waterworks.LoadConfig(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("config %s looks good: %d sources, %d pages\n", configPath, len(cfg.Sources), len(cfg.Variants))
			return nil
		},
	}
}
