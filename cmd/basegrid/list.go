// List command for the basegrid CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

// listingFlags are shared by list and watch.
type listingFlags struct {
	search string
	sorts  []string
	page   int
}

func (l *listingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.search, "search", "", "match text in any text field")
	cmd.Flags().StringArrayVar(&l.sorts, "sort", nil, "sort by field[:asc|desc]; repeat for secondary sorts")
	cmd.Flags().IntVar(&l.page, "page", 1, "page number, starting at 1")
}

var listFlags listingFlags

var listCmd = &cobra.Command{
	Use:   "list <table-id>",
	Short: "List one page of a table's records",
	Long: `List fetches one page of records of a table.

Example:
  basegrid list 3f6c... --search acme --sort name --sort created:desc --page 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.OpenTable(ctx, args[0])
		if err != nil {
			return err
		}
		defer sess.Close()

		q, err := buildQuery(sess.Fields(), listFlags.search, listFlags.sorts, listFlags.page)
		if err != nil {
			return err
		}
		if err := sess.SetQuery(ctx, q); err != nil {
			return fmt.Errorf("list records: %w", err)
		}

		snap := sess.View().Snapshot()
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), types.RecordPage{Records: snap.Records, Total: snap.Total})
		}
		return writeSnapshot(cmd.OutOrStdout(), sess.Fields(), snap)
	},
}

func init() {
	listFlags.register(listCmd)
}
