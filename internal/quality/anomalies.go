package quality

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/logging"
)

// MaxReportedAnomalies caps the anomalies returned; TotalAnomalies keeps the
// real count.
const MaxReportedAnomalies = 20

// DetectAnomalies flags outlier rows among complete cases of the selected
// numeric columns. Data problems (no numeric columns, no complete rows) are
// reported with StatusError; an unknown or non-numeric column is an error.
func DetectAnomalies(ds *dataset.Dataset, p AnomalyParams) (*AnomalyReport, error) {
	log := logging.New("quality")
	method := p.Method
	if method == "" {
		method = MethodIsolationForest
	}

	var cols []*dataset.Column
	if len(p.Columns) == 0 {
		cols = ds.NumericColumns()
	} else {
		for _, name := range p.Columns {
			c, ok := ds.Column(name)
			if !ok {
				return nil, fmt.Errorf("column %q not found", name)
			}
			if c.Kind != dataset.KindNumeric {
				return nil, fmt.Errorf("column %q is not numeric", name)
			}
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return &AnomalyReport{Status: StatusError, Message: "No numeric columns found for anomaly detection", Anomalies: []Anomaly{}}, nil
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	var rows []int
	for i := 0; i < ds.Rows(); i++ {
		complete := true
		for _, c := range cols {
			if !c.Valid[i] {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return &AnomalyReport{Status: StatusError, Message: "No valid data for anomaly detection", Anomalies: []Anomaly{}}, nil
	}

	rep := &AnomalyReport{
		Status:          StatusSuccess,
		Method:          method,
		ColumnsAnalyzed: names,
		Anomalies:       []Anomaly{},
	}
	if method == MethodIsolationForest {
		rep.Anomalies = isolationForestAnomalies(ds, cols, rows)
	} else {
		// Unimplemented methods report nothing rather than failing.
		log.Warn("anomaly method not implemented, returning no anomalies", "method", method)
	}

	rep.TotalAnomalies = len(rep.Anomalies)
	if len(rep.Anomalies) > MaxReportedAnomalies {
		rep.Anomalies = rep.Anomalies[:MaxReportedAnomalies]
	}
	rep.Summary = &AnomalySummary{
		AnomalyRate:       fmt.Sprintf("%.2f%%", float64(rep.TotalAnomalies)/float64(len(rows))*100),
		TotalRowsAnalyzed: len(rows),
	}
	log.Info("anomaly detection finished", "method", method, "rows", len(rows), "anomalies", rep.TotalAnomalies)
	return rep, nil
}

func isolationForestAnomalies(ds *dataset.Dataset, cols []*dataset.Column, rows []int) []Anomaly {
	x := make([][]float64, len(rows))
	for i, r := range rows {
		x[i] = make([]float64, len(cols))
		for j, c := range cols {
			x[i][j] = c.Nums[r]
		}
	}
	res := NewIsolationForest().FitScore(standardize(x))

	lo, hi := res.Scores[0], res.Scores[0]
	for _, s := range res.Scores {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	out := []Anomaly{}
	for i, r := range rows {
		if !res.Outliers[i] {
			continue
		}
		// A degenerate score range carries no ranking information.
		conf := 0.0
		if hi > lo {
			conf = 100 - (res.Scores[i]-lo)/(hi-lo)*100
		}
		values := make(map[string]any, len(cols))
		for _, c := range cols {
			values[c.Name] = c.Nums[r]
		}
		out = append(out, Anomaly{
			RowIndex:        ds.Index[r],
			ConfidenceScore: fmt.Sprintf("%.1f%%", conf),
			RawConfidence:   conf,
			Values:          values,
			Description:     fmt.Sprintf("Anomaly detected with %.1f%% confidence", conf),
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].RawConfidence > out[b].RawConfidence })
	return out
}
