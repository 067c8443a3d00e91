package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// areas CODE...: export the subareas of the given area codes.
func areasCmd(a *app) *cobra.Command {
	var batchLimit int
	var outputDir string

	cmd := &cobra.Command{
		Use:   "areas CODE...",
		Short: "Crawl the subareas of one or more area codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("batch-limit") {
				a.cfg.BatchLimit = batchLimit
			}
			if cmd.Flags().Changed("output-dir") {
				a.cfg.OutputDir = outputDir
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			rt, err := newSession(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer rt.close()

			res, err := rt.crawler.CrawlAreas(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("crawl subareas: %w", err)
			}
			return rt.export(output{prefix: "subareas", sheet: "subareas", records: res.Records})
		},
	}

	cmd.Flags().IntVar(&batchLimit, "batch-limit", 0, "concurrent requests per batch (default from config)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for exported workbooks")
	return cmd
}
