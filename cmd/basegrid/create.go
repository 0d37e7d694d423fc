// Create and update commands for the basegrid CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <table-id> key=value...",
	Short: "Create a record",
	Long: `Create validates the values against the table schema and creates a
record. Keys are field key names or display names.

Example:
  basegrid create 3f6c... name="Acme Ltd" employees=120 active=yes founded=1999-04-01`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(cmd, args[0], "", args[1:])
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <record-id> <table-id> key=value...",
	Short: "Update fields of a record",
	Long: `Update merges the values into the stored record, validates the result
against the table schema and saves it. An empty value clears a field.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submit(cmd, args[1], args[0], args[2:])
	},
}

func submit(cmd *cobra.Command, tableID, recordID string, assignments []string) error {
	ctx := cmd.Context()
	raw, err := parseAssignments(assignments)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.OpenTable(ctx, tableID)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, err := sess.Submit(ctx, recordID, raw)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	verb := "Created"
	if recordID != "" {
		verb = "Updated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, rec.ID)
	return nil
}
