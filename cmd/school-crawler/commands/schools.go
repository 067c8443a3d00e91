package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/school-directory-crawler/pkg/directory"
	"github.com/Sternrassler/school-directory-crawler/pkg/record"
	"github.com/Sternrassler/school-directory-crawler/pkg/refdata"
)

// schools: crawl school lists for the filtered subareas, optionally with details.
func schoolsCmd(a *app) *cobra.Command {
	var (
		areas      string
		areaFile   string
		outputDir  string
		batchLimit int
		withDetail bool
	)

	cmd := &cobra.Command{
		Use:   "schools",
		Short: "Crawl school lists (and optionally details) for subareas in the reference file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("area-file") {
				a.cfg.AreaFile = areaFile
			}
			if flags.Changed("output-dir") {
				a.cfg.OutputDir = outputDir
			}
			if flags.Changed("batch-limit") {
				a.cfg.BatchLimit = batchLimit
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if a.cfg.AreaFile == "" {
				return errors.New("area reference file required (--area-file or area_file)")
			}

			refs, err := refdata.LoadFile(a.cfg.AreaFile)
			if err != nil {
				return err
			}
			filter := refdata.SplitList(areas)
			codes := refdata.Resolve(refs, filter)
			if len(codes) == 0 {
				return fmt.Errorf("no subareas in %s match %v", a.cfg.AreaFile, filter)
			}

			rt, err := newSession(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer rt.close()

			rt.logger.Info().
				Int("subareas", len(codes)).
				Strs("filter", filter).
				Bool("detail", withDetail).
				Msg("Starting school crawl")

			lists, err := rt.crawler.CrawlSchoolLists(cmd.Context(), codes)
			if err != nil {
				return fmt.Errorf("crawl school lists: %w", err)
			}
			outputs := []output{{prefix: "school_lists", sheet: "schools", records: lists.Records}}

			// Nothing is exported until every requested stage has succeeded.
			if withDetail {
				details, err := rt.crawler.CrawlDetails(cmd.Context(), directory.SchoolIDs(lists.Records))
				if err != nil {
					return fmt.Errorf("crawl school details: %w", err)
				}
				if details.NotFound > 0 || details.Dropped > 0 {
					rt.logger.Warn().
						Int("not_found", details.NotFound).
						Int("dropped", details.Dropped).
						Strs("missing_npsn", missingSchools(details.Records)).
						Msg("Some school details were unavailable")
				}
				outputs = append(outputs, output{prefix: "school_details", sheet: "details", records: details.Records})
			}

			return rt.export(outputs...)
		},
	}

	cmd.Flags().StringVar(&areas, "areas", "", "comma-separated area or subarea codes (default: every subarea)")
	cmd.Flags().StringVar(&areaFile, "area-file", "", "area reference CSV (area_code, parent_area_code)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for exported workbooks")
	cmd.Flags().IntVar(&batchLimit, "batch-limit", 0, "concurrent requests per batch (default from config)")
	cmd.Flags().BoolVar(&withDetail, "detail", false, "also fetch the detail record of every school")
	return cmd
}

// maxMissingLogged caps the NPSNs listed in the unavailable-details warning.
const maxMissingLogged = 20

// missingSchools returns the NPSNs of placeholder rows, at most maxMissingLogged.
func missingSchools(details []record.Record) []string {
	var missing []string
	for _, r := range details {
		if !record.IsPlaceholder(r) {
			continue
		}
		if len(missing) == maxMissingLogged {
			break
		}
		missing = append(missing, r.String(record.KeyPlaceholderNPSN))
	}
	return missing
}
