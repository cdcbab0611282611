package agent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dqagent/internal/quality"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

// ComponentType tags a UI component.
type ComponentType string

const (
	ComponentTable  ComponentType = "table"
	ComponentButton ComponentType = "button"
	ComponentChart  ComponentType = "chart"
)

// Component is a UI artifact the client renders next to the message. The
// fields in use depend on Type: tables carry Title, Headers and Rows;
// buttons carry Text, Action and Style; charts carry ChartType, Title and
// Data.
type Component struct {
	Type      ComponentType `json:"type"`
	Title     string        `json:"title,omitempty"`
	Headers   []string      `json:"headers,omitempty"`
	Rows      [][]string    `json:"rows,omitempty"`
	Text      string        `json:"text,omitempty"`
	Action    string        `json:"action,omitempty"`
	Style     string        `json:"style,omitempty"`
	ChartType string        `json:"chart_type,omitempty"`
	Data      *ChartSeries  `json:"data,omitempty"`
}

// ChartSeries holds chart coordinates.
type ChartSeries struct {
	X []any     `json:"x"`
	Y []float64 `json:"y"`
}

// MaxAnomalyRows caps the anomalies table.
const MaxAnomalyRows = 10

func table(title string, headers []string, rows [][]string) Component {
	return Component{Type: ComponentTable, Title: title, Headers: headers, Rows: rows}
}

func button(text, action, style string) Component {
	return Component{Type: ComponentButton, Text: text, Action: action, Style: style}
}

// BuildComponents derives UI components from tool results. It depends only
// on the results, never on the language model. Failed results contribute
// nothing.
func BuildComponents(results []tools.Result) []Component {
	out := []Component{}
	for _, r := range results {
		if !r.OK() {
			continue
		}
		switch rep := r.Result.(type) {
		case *quality.AnomalyReport:
			if rep.Status != quality.StatusSuccess {
				continue
			}
			rows := [][]string{}
			for i, a := range rep.Anomalies {
				if i == MaxAnomalyRows {
					break
				}
				rows = append(rows, []string{
					strconv.Itoa(a.RowIndex),
					a.ConfidenceScore,
					a.Description,
					formatValues(rep.ColumnsAnalyzed, a.Values),
				})
			}
			out = append(out,
				table("Detected Anomalies", []string{"Row", "Confidence", "Description", "Values"}, rows),
				button("Fix Detected Anomalies", "fix_anomalies", "primary"))
		case *quality.ValidateReport:
			if len(rep.Issues) == 0 {
				continue
			}
			rows := make([][]string, len(rep.Issues))
			for i, is := range rep.Issues {
				rows[i] = []string{is.Type, string(is.Severity), is.Description}
			}
			out = append(out,
				table("Data Quality Issues", []string{"Type", "Severity", "Description"}, rows),
				button("Auto-Fix Issues", "fix_data", "success"))
		case *quality.InsightsReport:
			if rep.ChartData != nil {
				out = append(out, Component{
					Type:      ComponentChart,
					ChartType: rep.ChartData.Type,
					Title:     rep.ChartData.Title,
					Data:      &ChartSeries{X: rep.ChartData.X, Y: rep.ChartData.Y},
				})
			}
			if len(rep.TopCampaigns) > 0 {
				rows := make([][]string, len(rep.TopCampaigns))
				for i, tc := range rep.TopCampaigns {
					rows[i] = []string{fmt.Sprint(tc.Campaign), formatNumber(tc.Value)}
				}
				out = append(out, table("Top Campaigns by "+rep.Metric, []string{"Campaign", "Value"}, rows))
			}
		}
	}
	return out
}

// formatValues renders values in column order as "col: v, col: v".
func formatValues(order []string, values map[string]any) string {
	parts := make([]string, 0, len(values))
	for _, k := range order {
		v, ok := values[k]
		if !ok {
			continue
		}
		parts = append(parts, k+": "+formatAny(v))
	}
	return strings.Join(parts, ", ")
}

func formatAny(v any) string {
	if f, ok := v.(float64); ok {
		return formatNumber(f)
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
