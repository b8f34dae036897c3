package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	waterworks "github.com/Adi0604/Water-Works"
	"github.com/Adi0604/Water-Works/internal/adapters/charts"
)

func replayCmd() *cobra.Command {
	var (
		variant string
		delay   time.Duration
		report  string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay one page headlessly and print every step",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := waterworks.Conf(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg := flow.Config()
			page, err := findVariant(cfg, variant)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("delay") {
				for i := range cfg.Sources {
					cfg.Sources[i].Delay = delay
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			started := time.Now()
			sum, err := flow.Replay(ctx, page.Slug, waterworks.NewLineSink(os.Stdout))
			fmt.Printf("%s: %s steps, %s rendered, %s missing in %s\n",
				page.Name,
				humanize.Comma(int64(sum.Steps)),
				humanize.Comma(int64(sum.Rendered)),
				humanize.Comma(int64(sum.Missing)),
				time.Since(started).Round(time.Millisecond),
			)
			if err != nil && err != context.Canceled {
				return err
			}

			if report != "" && len(sum.Buffer) > 0 {
				f, err := os.Create(report)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := charts.WriteReport(f, page.Name, sum.Buffer, page.Catalog(), page.Distribution); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Printf("report written to %s\n", report)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "Slug of the page to replay (default: first page)")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Override the per-step delay of every source")
	cmd.Flags().StringVar(&report, "report", "", "Write an HTML report of the final state to this file")
	return cmd
}

func findVariant(cfg *waterworks.Config, slug string) (waterworks.VariantConfig, error) {
	if slug == "" {
		return cfg.Variants[0], nil
	}
	for _, v := range cfg.Variants {
		if v.Slug == slug {
			return v, nil
		}
	}
	return waterworks.VariantConfig{}, fmt.Errorf("unknown variant %q", slug)
}
