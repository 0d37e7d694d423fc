// Fields command for the basegrid CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fieldsRefresh bool

var fieldsCmd = &cobra.Command{
	Use:   "fields <table-id>",
	Short: "Show the field schema of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fields, err := a.Fields(cmd.Context(), args[0], fieldsRefresh)
		if err != nil {
			return fmt.Errorf("fields: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), fields)
		}

		tw := newTabWriter(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ID\tNAME\tKEY\tTYPE\tREQUIRED")
		for _, f := range fields {
			required := ""
			if f.Required {
				required = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.KeyName, f.Type, required)
		}
		return tw.Flush()
	},
}

func init() {
	fieldsCmd.Flags().BoolVar(&fieldsRefresh, "refresh", false, "bypass the field cache")
}
