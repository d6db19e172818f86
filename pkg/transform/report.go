package transform

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"optrace/pkg/stats"
)

var (
	changedColor   = color.New(color.FgGreen)
	unchangedColor = color.New(color.Faint)
	rejectedColor  = color.New(color.FgYellow)
)

// WriteReport prints a per-file summary followed by the aggregate counters.
// Color is suppressed automatically when the writer is not a terminal (the
// color package handles that via color.NoColor).
func WriteReport(w io.Writer, results []*FileResult, snap stats.Snapshot) error {
	for _, res := range results {
		if res == nil {
			continue
		}
		switch {
		case res.Changed:
			changedColor.Fprintf(w, "rewritten  %s", res.Path)
		default:
			unchangedColor.Fprintf(w, "unchanged  %s", res.Path)
		}
		fmt.Fprintf(w, "  (%d edits", res.Snapshot.Committed)
		if n := len(res.Rejected); n > 0 {
			fmt.Fprint(w, ", ")
			rejectedColor.Fprintf(w, "%d rejected", n)
		}
		fmt.Fprintln(w, ")")
	}
	return snap.WriteSummary(w)
}
