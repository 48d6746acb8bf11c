package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/rclean/pkg/rclean/types"
)

// PlainFormatter formats a report as a simple tab-separated table with
// a one-line summary. No colors or styling, suitable for piping.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	header := "DISPOSITION\tSIZE\tCATEGORY\tPATH\n"
	if !r.DryRun {
		header = "OUTCOME\tSIZE\tCATEGORY\tPATH\n"
	}
	if _, err := tw.Write([]byte(header)); err != nil {
		return err
	}

	for _, item := range r.Items {
		first := item.Disposition
		if !r.DryRun {
			first = item.Outcome
			if item.Reason != "" {
				first += " (" + item.Reason + ")"
			}
		}
		row := first + "\t" + item.SizeHuman + "\t" + item.Category + "\t" + item.Path + "\n"
		if _, err := tw.Write([]byte(row)); err != nil {
			return err
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	for _, c := range r.Conflicts {
		fmt.Fprintf(w, "conflict: %s -> %s (target also planned)\n", c.Link, c.Target)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}

	if r.DryRun {
		fmt.Fprintf(w, "%d entries, %s reclaimable (dry run)\n",
			r.Summary.Entries, r.Summary.ReclaimableHuman)
		return nil
	}

	fmt.Fprintf(w, "%d deleted, %d skipped, %d failed, %s freed\n",
		r.Summary.Deleted, r.Summary.Skipped, r.Summary.Failed,
		types.FormatSize(r.Summary.BytesFreed))
	if r.Cancelled {
		fmt.Fprintln(w, "run cancelled before completion")
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
