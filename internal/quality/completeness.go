package quality

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/dqagent/internal/dataset"
)

// LowCompletenessThreshold flags columns below this percentage; below
// half of it the issue is an error.
const LowCompletenessThreshold = 80.0

// CheckCompleteness measures non-null coverage overall and per column,
// checks required columns and summarizes date coverage of every column
// whose name contains "date". An unparseable DateRange is an error.
func CheckCompleteness(ds *dataset.Dataset, p CompletenessParams) (*CompletenessReport, error) {
	var window *[2]time.Time
	if p.DateRange.Start != "" || p.DateRange.End != "" {
		start, ok1 := dataset.ParseTime(p.DateRange.Start)
		end, ok2 := dataset.ParseTime(p.DateRange.End)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("date_range needs parseable start and end, got %q..%q", p.DateRange.Start, p.DateRange.End)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("date_range end %s is before start %s", p.DateRange.End, p.DateRange.Start)
		}
		window = &[2]time.Time{truncateDay(start), truncateDay(end)}
	}

	rows := ds.Rows()
	rep := &CompletenessReport{
		ColumnCompleteness: make(map[string]ColumnCompleteness, len(ds.Columns)),
		DateCoverage:       map[string]DateCoverage{},
		Issues:             []Issue{},
	}

	total, nonNull := rows*len(ds.Columns), 0
	for _, c := range ds.Columns {
		missing := c.NullCount()
		present := rows - missing
		nonNull += present
		pct := percent(present, rows)
		rep.ColumnCompleteness[c.Name] = ColumnCompleteness{
			Percentage:   fmt.Sprintf("%.2f%%", pct),
			MissingCount: missing,
			TotalCount:   rows,
		}
		// An empty table has nothing to flag.
		if rows > 0 && pct < LowCompletenessThreshold {
			sev := SeverityWarning
			if pct < 50 {
				sev = SeverityError
			}
			rep.Issues = append(rep.Issues, Issue{
				Type:         IssueLowCompleteness,
				Severity:     sev,
				Column:       c.Name,
				Completeness: fmt.Sprintf("%.2f%%", pct),
				Description:  fmt.Sprintf("Column %s is only %.2f%% complete", c.Name, pct),
			})
		}
	}
	rep.OverallCompleteness = OverallCompleteness{
		Percentage:   fmt.Sprintf("%.2f%%", percent(nonNull, total)),
		TotalCells:   total,
		NonNullCells: nonNull,
	}

	if len(p.RequiredColumns) > 0 {
		var absent []string
		for _, name := range p.RequiredColumns {
			if _, ok := ds.Column(name); !ok {
				absent = append(absent, name)
			}
		}
		if len(absent) > 0 {
			rep.Issues = append(rep.Issues, Issue{
				Type:        IssueMissingRequiredColumns,
				Severity:    SeverityError,
				Columns:     absent,
				Description: fmt.Sprintf("Missing required columns: %s", strings.Join(absent, ", ")),
			})
		}
	}

	for _, c := range ds.Columns {
		if !strings.Contains(strings.ToLower(c.Name), "date") {
			continue
		}
		dates := coerceDates(c)
		if len(dates) == 0 {
			// OnParseFailure: skip. Columns without a single parseable date get no coverage entry.
			continue
		}
		cov := dateCoverage(dates)
		if window != nil {
			cov.RequestedRange = requestedCoverage(dates, window[0], window[1])
		}
		rep.DateCoverage[c.Name] = cov
	}
	return rep, nil
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// coerceDates parses each non-null cell independently and drops the cells
// that are not dates.
func coerceDates(c *dataset.Column) []time.Time {
	var out []time.Time
	for i := 0; i < c.Len(); i++ {
		if !c.Valid[i] {
			continue
		}
		switch c.Kind {
		case dataset.KindTemporal:
			out = append(out, c.Times[i])
		case dataset.KindText:
			if t, ok := dataset.ParseTime(c.Texts[i]); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

func dateCoverage(dates []time.Time) DateCoverage {
	lo, hi := dates[0], dates[0]
	unique := map[time.Time]struct{}{}
	for _, d := range dates {
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
		unique[d.UTC()] = struct{}{}
	}
	days := int(hi.Sub(lo).Hours()/24) + 1
	return DateCoverage{
		StartDate:          lo.Format("2006-01-02"),
		EndDate:            hi.Format("2006-01-02"),
		TotalDays:          days,
		UniqueDates:        len(unique),
		CoveragePercentage: fmt.Sprintf("%.2f%%", percent(len(unique), days)),
	}
}

func requestedCoverage(dates []time.Time, start, end time.Time) *RequestedCoverage {
	days := int(end.Sub(start).Hours()/24) + 1
	seen := map[time.Time]struct{}{}
	for _, d := range dates {
		day := truncateDay(d)
		if day.Before(start) || day.After(end) {
			continue
		}
		seen[day] = struct{}{}
	}
	return &RequestedCoverage{
		Start:              start.Format("2006-01-02"),
		End:                end.Format("2006-01-02"),
		TotalDays:          days,
		DatesInRange:       len(seen),
		MissingDays:        days - len(seen),
		CoveragePercentage: fmt.Sprintf("%.2f%%", percent(len(seen), days)),
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
