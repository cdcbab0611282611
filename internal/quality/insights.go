package quality

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/dqagent/internal/dataset"
)

// QueryGeneral is the classification of queries no rule matches.
const QueryGeneral = "general"

// TopCampaignsLimit caps a top-campaigns ranking.
const TopCampaignsLimit = 10

// InsightSuggestions are offered when a query matches no analysis.
var InsightSuggestions = []string{
	"List all campaigns",
	"Which campaign had the most impressions?",
	"Show trends over time",
	"Get data summary",
}

// rankedMetrics are checked in order; the first mentioned metric wins.
var rankedMetrics = []struct{ keyword, column string }{
	{"impression", "impressions"},
	{"click", "clicks"},
	{"cost", "cost"},
}

// Classify maps a free-text query to the analysis that answers it. Matching
// is case-insensitive on substrings and the first rule that matches wins:
// campaign list, top campaigns by metric, trends, summary, general.
func Classify(query string) string {
	q := strings.ToLower(query)
	if strings.Contains(q, "campaign") && strings.Contains(q, "list") {
		return QueryCampaignList
	}
	if strings.Contains(q, "most") || strings.Contains(q, "highest") {
		for _, m := range rankedMetrics {
			if strings.Contains(q, m.keyword) {
				return queryTopPrefix + m.column
			}
		}
	}
	if strings.Contains(q, "trend") || strings.Contains(q, "over time") {
		return QueryTrends
	}
	if strings.Contains(q, "summary") || strings.Contains(q, "overview") {
		return QuerySummary
	}
	return QueryGeneral
}

// Insights answers an analytical query. Missing campaign, date or metric
// columns produce a StatusError report rather than an error.
func Insights(ds *dataset.Dataset, p InsightsParams) *InsightsReport {
	kind := Classify(p.Query)
	switch {
	case kind == QueryCampaignList:
		return listCampaigns(ds)
	case strings.HasPrefix(kind, queryTopPrefix):
		return topCampaigns(ds, strings.TrimPrefix(kind, queryTopPrefix), p.Visualization)
	case kind == QueryTrends:
		return trends(ds, p.Visualization)
	case kind == QuerySummary:
		return summary(ds)
	default:
		return &InsightsReport{
			Status:      StatusPartial,
			Message:     fmt.Sprintf("Query: '%s' requires more specific analysis. Try asking about campaigns, trends, or specific metrics.", p.Query),
			Suggestions: append([]string(nil), InsightSuggestions...),
		}
	}
}

func insightError(format string, args ...any) *InsightsReport {
	return &InsightsReport{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

func listCampaigns(ds *dataset.Dataset) *InsightsReport {
	col, ok := ds.FindColumn("campaign")
	if !ok {
		return insightError("No campaign column found")
	}
	seen := map[string]struct{}{}
	campaigns := []any{}
	for i := 0; i < ds.Rows(); i++ {
		if !col.Valid[i] {
			continue
		}
		k := col.Format(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		campaigns = append(campaigns, col.Value(i))
	}
	n := len(campaigns)
	return &InsightsReport{Status: StatusSuccess, QueryType: QueryCampaignList, TotalCampaigns: &n, Campaigns: campaigns}
}

func topCampaigns(ds *dataset.Dataset, metric string, visualization bool) *InsightsReport {
	mcol, ok := ds.Column(metric)
	if !ok {
		return insightError("Metric '%s' not found in data", metric)
	}
	if mcol.Kind != dataset.KindNumeric {
		return insightError("Metric '%s' is not numeric", metric)
	}
	ccol, ok := ds.FindColumn("campaign")
	if !ok {
		return insightError("No campaign column found")
	}

	type group struct {
		key   string
		label any
		sum   float64
	}
	groups := map[string]*group{}
	for i := 0; i < ds.Rows(); i++ {
		if !ccol.Valid[i] {
			continue
		}
		k := ccol.Format(i)
		g, ok := groups[k]
		if !ok {
			g = &group{key: k, label: ccol.Value(i)}
			groups[k] = g
		}
		if mcol.Valid[i] {
			g.sum += mcol.Nums[i]
		}
	}
	ranked := make([]*group, 0, len(groups))
	for _, g := range groups {
		ranked = append(ranked, g)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].sum == ranked[b].sum {
			return ranked[a].key < ranked[b].key
		}
		return ranked[a].sum > ranked[b].sum
	})
	if len(ranked) > TopCampaignsLimit {
		ranked = ranked[:TopCampaignsLimit]
	}

	rep := &InsightsReport{
		Status:       StatusSuccess,
		QueryType:    queryTopPrefix + metric,
		Metric:       metric,
		TopCampaigns: make([]CampaignValue, len(ranked)),
	}
	for i, g := range ranked {
		rep.TopCampaigns[i] = CampaignValue{Campaign: g.label, Value: g.sum, Metric: metric}
	}
	if visualization {
		chart := &ChartData{Type: "bar", Title: "Top Campaigns by " + cases.Title(language.English).String(metric), X: []any{}, Y: []float64{}}
		for _, tc := range rep.TopCampaigns {
			chart.X = append(chart.X, tc.Campaign)
			chart.Y = append(chart.Y, tc.Value)
		}
		rep.ChartData = chart
	}
	return rep
}

func trends(ds *dataset.Dataset, visualization bool) *InsightsReport {
	dcol, ok := ds.FindColumn("date")
	if !ok {
		return insightError("No date column found")
	}
	times, ok := dcol.ParseTimes()
	if !ok {
		return insightError("Error analyzing trends: column %s does not parse as dates", dcol.Name)
	}
	numeric := ds.NumericColumns()

	sums := map[time.Time][]float64{}
	for i := 0; i < ds.Rows(); i++ {
		if !dcol.Valid[i] {
			continue
		}
		day := truncateDay(times[i])
		row, ok := sums[day]
		if !ok {
			row = make([]float64, len(numeric))
			sums[day] = row
		}
		for j, c := range numeric {
			if c.Valid[i] {
				row[j] += c.Nums[i]
			}
		}
	}
	days := make([]time.Time, 0, len(sums))
	for d := range sums {
		days = append(days, d)
	}
	sort.Slice(days, func(a, b int) bool { return days[a].Before(days[b]) })

	labels := make([]string, len(days))
	for i, d := range days {
		labels[i] = d.Format("2006-01-02")
	}
	rep := &InsightsReport{Status: StatusSuccess, QueryType: QueryTrends, Trends: make(map[string]Series, len(numeric))}
	if len(days) > 0 {
		rep.DateRange = &DateSpan{Start: labels[0], End: labels[len(labels)-1]}
	} else {
		rep.DateRange = &DateSpan{}
	}
	for j, c := range numeric {
		s := Series{Dates: labels, Values: make([]float64, len(days))}
		for i, d := range days {
			s.Values[i] = sums[d][j]
		}
		rep.Trends[c.Name] = s
	}
	if s, ok := rep.Trends["impressions"]; ok && visualization {
		chart := &ChartData{Type: "line", Title: "Impressions Over Time", X: make([]any, len(s.Dates)), Y: s.Values}
		for i, d := range s.Dates {
			chart.X[i] = d
		}
		rep.ChartData = chart
	}
	return rep
}

func summary(ds *dataset.Dataset) *InsightsReport {
	sum := &DataSummary{TotalRows: ds.Rows(), MetricsSummary: map[string]MetricSummary{}}
	if dcol, ok := ds.FindColumn("date"); ok {
		if dates := coerceDates(dcol); len(dates) > 0 {
			cov := dateCoverage(dates)
			sum.DateRange = DateSpan{Start: cov.StartDate, End: cov.EndDate, TotalDays: cov.TotalDays}
		}
	}
	for _, c := range ds.NumericColumns() {
		var ms MetricSummary
		n := 0
		var lo, hi float64
		for i, v := range c.Nums {
			if !c.Valid[i] {
				continue
			}
			if n == 0 || v < lo {
				lo = v
			}
			if n == 0 || v > hi {
				hi = v
			}
			ms.Total += v
			n++
		}
		if n > 0 {
			avg := ms.Total / float64(n)
			ms.Average, ms.Min, ms.Max = &avg, &lo, &hi
		}
		sum.MetricsSummary[c.Name] = ms
	}
	return &InsightsReport{Status: StatusSuccess, QueryType: QuerySummary, Summary: sum}
}
