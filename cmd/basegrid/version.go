// Version command for the basegrid CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/basegrid/pkg/basegrid"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the basegrid version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "basegrid", basegrid.Version)
	},
}
