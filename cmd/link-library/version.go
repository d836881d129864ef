package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joestump/link-library/internal/build"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "link-library %s (%s, %s)\n", build.Version, build.Commit, build.Branch)
		},
	}
}
