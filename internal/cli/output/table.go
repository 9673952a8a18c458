package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Table is a header plus rows of preformatted cells.
type Table struct {
	Headers []string
	Rows    [][]string
	// RightAlign lists column indexes holding numbers.
	RightAlign []int
}

// Table writes t as a box-drawn table in text mode and a pipe table in
// markdown mode. It writes nothing in JSON mode.
func (r *Renderer) Table(t Table) {
	mode := r.EffectiveMode()
	if mode == ModeJSON {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)

	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range t.Rows {
		cells := make(table.Row, len(row))
		for i, c := range row {
			cells[i] = c
		}
		tw.AppendRow(cells)
	}

	if len(t.RightAlign) > 0 {
		configs := make([]table.ColumnConfig, len(t.RightAlign))
		for i, col := range t.RightAlign {
			configs[i] = table.ColumnConfig{Number: col + 1, Align: text.AlignRight}
		}
		tw.SetColumnConfigs(configs)
	}

	if mode == ModeMarkdown {
		tw.RenderMarkdown()
		r.Println()
		return
	}
	tw.Render()
}
