package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/metrics"
	"github.com/KaramelBytes/dqagent/internal/quality"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "campaigns.csv")
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func campaignCSV(t *testing.T) string {
	lines := []string{"campaign_name,date,impressions,clicks,cost"}
	for i := 0; i < 30; i++ {
		cost := fmt.Sprint(10 + i)
		if i == 4 {
			cost = ""
		}
		lines = append(lines, fmt.Sprintf("Campaign %d,2024-03-%02d,%d,%d,%s", i%4, 1+i%10, 1000+i, 10+i, cost))
	}
	lines = append(lines, lines[1], lines[2])
	return writeCSV(t, lines...)
}

func newLoaded(t *testing.T) (*Registry, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	r := NewRegistry(dataset.NewStore(dataset.Options{}), m)
	_, err := r.Load(campaignCSV(t))
	require.NoError(t, err)
	return r, m
}

func TestListDescribesEveryTool(t *testing.T) {
	r := NewRegistry(dataset.NewStore(dataset.Options{}), nil)
	list := r.List()
	require.Len(t, list, 5)
	names := make([]string, len(list))
	for i, d := range list {
		names[i] = d.Name
		assert.NotEmpty(t, d.Description)
	}
	assert.Equal(t, []string{"validate_data", "fix_data", "detect_anomalies", "check_completeness", "get_insights"}, names)
	assert.True(t, list[4].Parameters["query"].Required)
	assert.Equal(t, "isolation_forest", list[2].Parameters["method"].Default)

	delete(list[0].Parameters, "check_schema")
	assert.Contains(t, r.List()[0].Parameters, "check_schema", "descriptors are immutable")

	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
}

func TestInvokeErrors(t *testing.T) {
	r := NewRegistry(dataset.NewStore(dataset.Options{}), nil)

	_, err := r.Invoke(context.Background(), "drop_table", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, err = r.Invoke(context.Background(), "validate_data", nil)
	assert.ErrorIs(t, err, dataset.ErrNoDataset)

	_, err = r.Load(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, dataset.ErrNotFound)
	assert.False(t, r.Store().IsLoaded())
}

func TestInvokeValidateWithDefaultsAndWeakTypes(t *testing.T) {
	r, m := newLoaded(t)
	ctx := context.Background()

	res, err := r.Invoke(ctx, "validate_data", nil)
	require.NoError(t, err)
	require.True(t, res.OK())
	rep := res.Result.(*quality.ValidateReport)
	assert.Equal(t, quality.StatusFailed, rep.Status)
	assert.Len(t, rep.Issues, 2)

	res, err = r.Invoke(ctx, "validate_data", map[string]any{"check_duplicates": "false", "check_missing": 0})
	require.NoError(t, err)
	rep = res.Result.(*quality.ValidateReport)
	assert.Equal(t, quality.StatusPassed, rep.Status)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("validate_data", "success")))
}

func TestInvokeReportsBadParamsAsErrorResults(t *testing.T) {
	r, m := newLoaded(t)
	ctx := context.Background()

	res, err := r.Invoke(ctx, "validate_data", map[string]any{"check_everything": true})
	require.NoError(t, err)
	assert.Equal(t, quality.StatusError, res.Status)
	assert.Contains(t, res.Error, "check_everything")
	assert.Nil(t, res.Result)

	res, err = r.Invoke(ctx, "get_insights", map[string]any{"visualization": true})
	require.NoError(t, err)
	assert.Equal(t, "missing required parameter: query", res.Error)

	res, err = r.Invoke(ctx, "detect_anomalies", map[string]any{"columns": []any{"campaign_name"}})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Contains(t, res.Error, "not numeric")

	res, err = r.Invoke(ctx, "check_completeness", map[string]any{"date_range": map[string]any{"start": "2024-03-10", "end": "2024-03-01"}})
	require.NoError(t, err)
	assert.False(t, res.OK())

	assert.Equal(t, 4.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("validate_data", "error"))+
		testutil.ToFloat64(m.ToolInvocations.WithLabelValues("get_insights", "error"))+
		testutil.ToFloat64(m.ToolInvocations.WithLabelValues("detect_anomalies", "error"))+
		testutil.ToFloat64(m.ToolInvocations.WithLabelValues("check_completeness", "error")))
}

func TestInvokeFixReplacesLiveDataset(t *testing.T) {
	r, m := newLoaded(t)
	ctx := context.Background()
	before, err := r.Store().Snapshot()
	require.NoError(t, err)

	res, err := r.Invoke(ctx, "fix_data", nil)
	require.NoError(t, err)
	fix := res.Result.(*quality.FixReport)
	assert.Equal(t, 2, fix.RowsAffected)
	assert.Equal(t, [2]int{30, 5}, fix.NewShape)
	assert.Equal(t, 32, before.Rows(), "earlier snapshots are not mutated")
	assert.Equal(t, 30.0, testutil.ToFloat64(m.DatasetRows))

	res, err = r.Invoke(ctx, "validate_data", nil)
	require.NoError(t, err)
	assert.Equal(t, quality.StatusPassed, res.Result.(*quality.ValidateReport).Status)

	res, err = r.Invoke(ctx, "fix_data", map[string]any{"fix_types": "true"})
	require.NoError(t, err)
	assert.Empty(t, res.Result.(*quality.FixReport).FixesApplied)
}

func TestInvokeInsightsAndCompleteness(t *testing.T) {
	r, _ := newLoaded(t)
	ctx := context.Background()

	res, err := r.Invoke(ctx, "get_insights", map[string]any{"query": "Which campaign has the most clicks?", "visualization": "true"})
	require.NoError(t, err)
	ins := res.Result.(*quality.InsightsReport)
	assert.Equal(t, "top_campaigns_by_clicks", ins.QueryType)
	assert.NotNil(t, ins.ChartData)

	res, err = r.Invoke(ctx, "check_completeness", map[string]any{"required_columns": []string{"cost", "region"}})
	require.NoError(t, err)
	comp := res.Result.(*quality.CompletenessReport)
	assert.Equal(t, 160, comp.OverallCompleteness.TotalCells)
	require.NotEmpty(t, comp.Issues)
	assert.Equal(t, []string{"region"}, comp.Issues[len(comp.Issues)-1].Columns)
}

func TestInvokeHonoursCancelledContext(t *testing.T) {
	r, _ := newLoaded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Invoke(ctx, "validate_data", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentFixAndRead(t *testing.T) {
	r, _ := newLoaded(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := r.Invoke(ctx, "fix_data", nil)
			assert.NoError(t, err)
			assert.True(t, res.OK())
		}()
		go func() {
			defer wg.Done()
			res, err := r.Invoke(ctx, "check_completeness", nil)
			assert.NoError(t, err)
			assert.True(t, res.OK())
		}()
	}
	wg.Wait()
	ds, err := r.Store().Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 30, ds.Rows())
}
