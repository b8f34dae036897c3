package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsKeys = []string{
	"waterworks_replay_steps_total",
	"waterworks_rows_rendered_total",
	"waterworks_rows_missing_total",
	"waterworks_source_errors_total",
	"waterworks_active_sessions",
}

func statsCmd() *cobra.Command {
	var (
		url      string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Poll the Prometheus metrics endpoint and print live counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", url)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := printMetricsSnapshot(url); err != nil {
						fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/metrics", "Prometheus metrics endpoint")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Refresh interval")
	return cmd
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := scrapeMetrics(resp.Body, statsKeys)
	if err != nil {
		return err
	}
	fmt.Println(formatSnapshot(time.Now(), values))
	return nil
}

// scrapeMetrics reads unlabelled samples of keys from a Prometheus text
// exposition. Missing keys read as zero.
func scrapeMetrics(r io.Reader, keys []string) (map[string]float64, error) {
	targets := make(map[string]float64, len(keys))
	for _, k := range keys {
		targets[k] = 0
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return targets, nil
}

func formatSnapshot(at time.Time, v map[string]float64) string {
	return fmt.Sprintf("[%s] steps=%s rendered=%s missing=%s source_errors=%s sessions=%s",
		at.Format(time.RFC3339),
		humanize.Comma(int64(v["waterworks_replay_steps_total"])),
		humanize.Comma(int64(v["waterworks_rows_rendered_total"])),
		humanize.Comma(int64(v["waterworks_rows_missing_total"])),
		humanize.Comma(int64(v["waterworks_source_errors_total"])),
		humanize.Comma(int64(v["waterworks_active_sessions"])),
	)
}
