// Get command for the basegrid CLI.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get <record-id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Client().GetRecord(ctx, args[0])
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("record %q not found: %w", args[0], err)
			}
			return fmt.Errorf("get record: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), rec)
		}

		fields, err := a.Fields(ctx, rec.TableID, false)
		if err != nil {
			return fmt.Errorf("fields: %w", err)
		}
		return writeRecord(cmd.OutOrStdout(), fields, rec)
	},
}
