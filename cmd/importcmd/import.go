// Package importcmd implements the one-shot sitemap import subcommand.
package importcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/url-catalog/urlcatalog/cmd/common"
	"github.com/url-catalog/urlcatalog/internal/pipeline"
)

// Command returns the import command.
func Command() *cobra.Command {
	var (
		pattern       string
		qualityFilter bool
	)

	cmd := &cobra.Command{
		Use:   "import <sitemap-url>",
		Short: "Resolve a sitemap tree and store its URLs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.Build(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			report, err := deps.Pipeline.Import(cmd.Context(), pipeline.ImportOptions{
				SitemapURL:    args[0],
				Pattern:       pattern,
				QualityFilter: qualityFilter,
			})
			if err != nil {
				return err
			}

			fmt.Printf("found %d URLs, stored %d (sitemaps %d, skipped: pattern %d, quality %d) in %s\n",
				report.TotalURLsFound,
				report.URLsStored,
				report.SitemapsStored,
				report.SkippedPattern,
				report.SkippedQuality,
				report.Duration,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "only keep URLs containing this substring")
	cmd.Flags().BoolVar(&qualityFilter, "quality", false, "only keep URLs passing the quality scan")
	return cmd
}
