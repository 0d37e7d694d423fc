// Table rendering for basegrid CLI output.
package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mesh-intelligence/basegrid/internal/form"
	"github.com/mesh-intelligence/basegrid/internal/view"
	"github.com/mesh-intelligence/basegrid/pkg/types"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// writeRecords prints one row per record with a column per field, values
// formatted for their field type.
func writeRecords(w io.Writer, fields []types.Field, records []types.Record) error {
	tw := newTabWriter(w)
	fmt.Fprint(tw, "ID")
	for _, f := range fields {
		fmt.Fprintf(tw, "\t%s", f.Name)
	}
	fmt.Fprintln(tw)
	for _, r := range records {
		fmt.Fprint(tw, r.ID)
		for _, f := range fields {
			fmt.Fprintf(tw, "\t%s", form.FormatValue(r.Data[f.KeyName], f.Type))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// writeSnapshot prints the records of a view followed by a status line.
func writeSnapshot(w io.Writer, fields []types.Field, snap view.Snapshot) error {
	if err := writeRecords(w, fields, snap.Records); err != nil {
		return err
	}
	fmt.Fprintf(w, "page %d of %d, %d records", snap.Shown.Page, snap.Pages(), snap.Total)
	if snap.Loading {
		fmt.Fprint(w, " (loading)")
	}
	fmt.Fprintln(w)
	if snap.Err != nil {
		fmt.Fprintf(w, "last fetch failed: %v\n", snap.Err)
	}
	return nil
}

// writeRecord prints one record as field/value lines.
func writeRecord(w io.Writer, fields []types.Field, r types.Record) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Table:\t%s\n", r.TableID)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.Name, form.FormatValue(r.Data[f.KeyName], f.Type))
	}
	fmt.Fprintf(tw, "Created:\t%s\n", form.FormatTime(r.CreatedAt))
	fmt.Fprintf(tw, "Updated:\t%s\n", form.FormatTime(r.UpdatedAt))
	return tw.Flush()
}
