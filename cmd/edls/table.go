package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one column of a session table.
type column struct {
	header  string
	numeric bool // right aligned
	wrapAt  int  // soft-wrap cells wider than this, 0 = never
}

func textCol(header string) column       { return column{header: header} }
func numCol(header string) column        { return column{header: header, numeric: true} }
func wideCol(header string, n int) column { return column{header: header, wrapAt: n} }

// renderTable renders rows under a title. Missing or empty cells print as
// "-" so columns stay readable when an export leaves a field blank.
func renderTable(title string, cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Title.Align = text.AlignLeft
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.header
		cfg := table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
		if c.numeric {
			cfg.Align = text.AlignRight
		}
		if c.wrapAt > 0 {
			cfg.WidthMax = c.wrapAt
			cfg.WidthMaxEnforcer = text.WrapSoft
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if cell == "" {
				cell = "-"
			}
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}
