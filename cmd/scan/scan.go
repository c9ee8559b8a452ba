// Package scan implements the quality backlog drain subcommand.
package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/url-catalog/urlcatalog/cmd/common"
)

// Command returns the scan command. It loops over bounded batches until the
// unchecked backlog is empty, mirroring the client-side loop the API
// supports.
func Command() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Quality-scan unchecked URLs in bounded batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.Build(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			if limit <= 0 {
				limit = deps.Config.Pipeline.ScanLimit
			}

			for {
				report, err := deps.Pipeline.ScanBatch(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Printf("processed %d (approved %d, rejected %d), %d remaining\n",
					report.Processed, report.Approved, report.Rejected, report.Remaining)
				if report.Processed == 0 || report.Remaining == 0 {
					return nil
				}
			}
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "batch size per scan pass")
	return cmd
}
