package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/KaramelBytes/dqagent/internal/agent"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

func renderResponse(w io.Writer, resp *agent.ChatResponse) {
	_, _ = fmt.Fprintln(w, resp.Message)
	for _, c := range resp.Components {
		_, _ = fmt.Fprintln(w)
		renderComponent(w, c)
	}
	if len(resp.Suggestions) > 0 {
		_, _ = fmt.Fprintln(w, "\nYou could try:")
		for _, s := range resp.Suggestions {
			_, _ = fmt.Fprintf(w, "  • %s\n", s)
		}
	}
}

func renderComponent(w io.Writer, c agent.Component) {
	switch c.Type {
	case agent.ComponentTable:
		header := make(table.Row, len(c.Headers))
		for i, h := range c.Headers {
			header[i] = h
		}
		rows := make([]table.Row, len(c.Rows))
		for i, r := range c.Rows {
			rows[i] = make(table.Row, len(r))
			for j, v := range r {
				rows[i][j] = v
			}
		}
		renderTable(w, c.Title, header, rows)
	case agent.ComponentChart:
		if c.Data == nil {
			return
		}
		rows := make([]table.Row, len(c.Data.X))
		for i, x := range c.Data.X {
			var y any
			if i < len(c.Data.Y) {
				y = formatFloat(c.Data.Y[i])
			}
			rows[i] = table.Row{x, y}
		}
		renderTable(w, fmt.Sprintf("%s (%s chart)", c.Title, c.ChartType), table.Row{"X", "Y"}, rows)
	case agent.ComponentButton:
		_, _ = fmt.Fprintf(w, "→ %s (ask: %q)\n", c.Text, strings.ReplaceAll(c.Action, "_", " "))
	}
}

func renderTable(w io.Writer, title string, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

func renderToolList(w io.Writer, descriptors []tools.Descriptor) {
	rows := make([]table.Row, 0, len(descriptors))
	for _, d := range descriptors {
		params := make([]string, 0, len(d.Parameters))
		for _, name := range sortedParamNames(d.Parameters) {
			p := d.Parameters[name]
			if p.Required {
				params = append(params, fmt.Sprintf("%s (%s, required)", name, p.Type))
			} else {
				params = append(params, fmt.Sprintf("%s (%s)", name, p.Type))
			}
		}
		rows = append(rows, table.Row{d.Name, d.Description, strings.Join(params, "\n")})
	}
	renderTable(w, "", table.Row{"Tool", "Description", "Parameters"}, rows)
}

func formatFloat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func sortedParamNames(m map[string]tools.Param) []string {
	return slices.Sorted(maps.Keys(m))
}
