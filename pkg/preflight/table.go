package preflight

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// WriteTable renders the report as a plain-text table: one row per
// executed check plus a summary line.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tMESSAGE")
	for _, c := range r.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Status, c.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nstate: %s  checks: %d  duration: %s  run: %s\n",
		r.State, len(r.Checks), r.Duration.Round(time.Millisecond), r.RunID)
	return err
}
