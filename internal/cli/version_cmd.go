package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *tableOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dbfcat version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
