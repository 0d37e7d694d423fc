// Init command for the basegrid CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file and field cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// PersistentPreRunE already wrote a default config.yaml.
		configDir, err := resolveConfigDir()
		if err != nil {
			return sysErr(err)
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		dataDir, err := resolveDataDir()
		if err != nil {
			return sysErr(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "basegrid initialized")
		fmt.Fprintln(out, "  config:", configDir)
		fmt.Fprintln(out, "  cache: ", dataDir)
		fmt.Fprintln(out, "  api:   ", a.Config().APIURL)
		return nil
	},
}
