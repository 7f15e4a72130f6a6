package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

type report struct {
	Results []Result `json:"results"`
	Failed  int      `json:"failed_checks"`
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', 10, 64)
}

// writeText renders results as an aligned table.
func writeText(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tT\tSTATUS\tACTION\tS/T\tDEFORMATION\tCHECK")
	for _, r := range results {
		c := r.Check
		if c == CheckNone {
			c = "-"
		}
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%s\t%s\t%s\n",
			r.Scenario, r.Temperature, r.Status, formatFloat(r.Action), formatFloat(r.ActionOverT), r.Deformation, c)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, results []Result, failed int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{Results: results, Failed: failed})
}
