// Package export implements the backup export subcommand.
package export

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/url-catalog/urlcatalog/cmd/common"
)

// Command returns the export command.
func Command() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Stream a backup of the whole corpus as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.Build(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			w := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			return deps.Transfer.Export(cmd.Context(), w)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
