// Bases and tables commands for the basegrid CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var basesCmd = &cobra.Command{
	Use:   "bases",
	Short: "List bases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		bases, err := a.Client().ListBases(cmd.Context())
		if err != nil {
			return fmt.Errorf("list bases: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), bases)
		}

		tw := newTabWriter(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
		for _, b := range bases {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Name, b.Description)
		}
		return tw.Flush()
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables <base-id>",
	Short: "List the tables of a base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tables, err := a.Client().ListTables(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("list tables: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), tables)
		}

		tw := newTabWriter(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ID\tNAME")
		for _, t := range tables {
			fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Name)
		}
		return tw.Flush()
	},
}
