package main

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	waterworks "github.com/Adi0604/Water-Works"
)

func catalogCmd() *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the metric catalog of every page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := waterworks.LoadConfig(configPath)
			if err != nil {
				return err
			}
			return outputCatalog(os.Stdout, cfg, variant)
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "Only print the page with this slug")
	return cmd
}

func outputCatalog(w io.Writer, cfg *waterworks.Config, only string) error {
	table := tablewriter.NewWriter(w)
	table.Append([]string{"Page", "Source", "Feed", "Kind", "Metric", "Max"})

	for _, v := range cfg.Variants {
		if only != "" && v.Slug != only {
			continue
		}
		for _, m := range v.Flow {
			table.Append([]string{v.Name, v.Source, v.Feed, "flow", m.Name, humanize.Commaf(m.Max)})
		}
		for _, m := range v.Totalizer {
			table.Append([]string{v.Name, v.Source, v.Feed, "totalizer", m.Name, humanize.Commaf(m.Max)})
		}
	}

	return table.Render()
}
