// Package report renders validation results as terminal tables, JSON, CSV,
// and standalone HTML reports.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/statglass/ibsrecon/pkg/frame"
	"github.com/statglass/ibsrecon/pkg/recon"
)

// keyColumns returns the union of key dimensions across failures, in
// first-seen order. Failures from different rules may group on different
// dimensions, so the detail table carries them all.
func keyColumns(failures []recon.FailureRecord) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, f := range failures {
		for _, d := range f.Dims {
			if !seen[d] {
				seen[d] = true
				cols = append(cols, d)
			}
		}
	}
	return cols
}

func failureRows(failures []recon.FailureRecord) ([]string, [][]string) {
	keys := keyColumns(failures)
	cols := append([]string{"RULE_ID", "LHS", "OP", "RHS", "DIFF", "DESCRIPTION"}, keys...)

	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		row := make([]string, 0, len(cols))
		row = append(row,
			f.RuleID,
			formatAmount(f.LHS),
			f.Operator,
			formatAmount(f.RHS),
			formatAmount(f.Diff),
			f.Description,
		)
		for _, k := range keys {
			row = append(row, f.Key[k])
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderTable writes failures as a terminal table.
func RenderTable(w io.Writer, failures []recon.FailureRecord) error {
	if len(failures) == 0 {
		_, _ = fmt.Fprintln(w, "(0 failures)")
		return nil
	}

	cols, rows := failureRows(failures)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d failures)\n", len(failures))
	return nil
}

// RenderJSON writes failures as a JSON array.
func RenderJSON(w io.Writer, failures []recon.FailureRecord) error {
	if failures == nil {
		failures = []recon.FailureRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(failures)
}

// RenderCSV writes failures as CSV with a header row.
func RenderCSV(w io.Writer, failures []recon.FailureRecord) error {
	cols, rows := failureRows(failures)

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderFailures dispatches on format: table, json, or csv.
func RenderFailures(w io.Writer, failures []recon.FailureRecord, format string) error {
	switch format {
	case "json":
		return RenderJSON(w, failures)
	case "csv":
		return RenderCSV(w, failures)
	default:
		return RenderTable(w, failures)
	}
}

// WriteFrameCSV writes a frame as CSV, one header row plus one row per
// data row with the value column last.
func WriteFrameCSV(w io.Writer, df *frame.Frame) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, df.Columns()...), df.ValueColumn())
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := 0; i < df.Len(); i++ {
		row := make([]string, 0, len(header))
		for _, c := range df.Columns() {
			row = append(row, df.Cell(i, c))
		}
		row = append(row, formatAmount(df.Value(i)))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
