package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dqagent/internal/agent"
	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/metrics"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

func writeCSV(t *testing.T, path string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("campaign_name,date,impressions,clicks,cost\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "Campaign %d,2024-03-%02d,%d,%d,%d.5\n", i%4, 1+i%28, 1000+i*3, 40+i, 10+i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	orch := agent.New(tools.NewRegistry(dataset.NewStore(dataset.Options{}), m), nil, m, agent.Options{})
	s := New(Config{Addr: "127.0.0.1:0", Agent: orch, Gatherer: reg})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealthAndUpload(t *testing.T) {
	_, ts := newTestServer(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "campaigns.csv")
	writeCSV(t, csvPath, 12)

	code, body := getJSON(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["dataset_loaded"])

	code, body = postJSON(t, ts.URL+"/upload-data", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "File path is required", body["detail"])

	code, _ = postJSON(t, ts.URL+"/upload-data", `{"file_path": "`+filepath.Join(dir, "nope.csv")+`"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = postJSON(t, ts.URL+"/upload-data", `{"file_path": "`+dir+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = postJSON(t, ts.URL+"/upload-data", `{"file_path": `)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = postJSON(t, ts.URL+"/upload-data", `{"file_path": "`+csvPath+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, 12.0, body["rows"])
	assert.Equal(t, 5.0, body["columns"])

	_, body = getJSON(t, ts.URL+"/health")
	assert.Equal(t, true, body["dataset_loaded"])
	assert.Equal(t, 12.0, body["rows"])
}

func TestToolsEndpoints(t *testing.T) {
	s, ts := newTestServer(t)

	code, body := getJSON(t, ts.URL+"/tools")
	require.Equal(t, http.StatusOK, code)
	list := body["tools"].([]any)
	require.Len(t, list, 5)
	assert.Equal(t, "validate_data", list[0].(map[string]any)["name"])

	code, _ = postJSON(t, ts.URL+"/tool/validate_data", `{"params": {}}`)
	assert.Equal(t, http.StatusConflict, code, "no dataset loaded yet")

	p := filepath.Join(t.TempDir(), "c.csv")
	writeCSV(t, p, 20)
	_, err := s.registry.Load(p)
	require.NoError(t, err)

	code, body = postJSON(t, ts.URL+"/tool/drop_table", `{}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["detail"], "unknown tool")

	code, body = postJSON(t, ts.URL+"/tool/validate_data", `{"params": {"check_schema": "false"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "passed", body["result"].(map[string]any)["status"])

	// Invalid parameters are reported in the envelope, not as HTTP errors.
	code, body = postJSON(t, ts.URL+"/tool/get_insights", `{"params": {}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "missing required parameter: query", body["error"])

	// An empty body means default parameters.
	resp, err := http.Post(ts.URL+"/tool/check_completeness", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatEndpoint(t *testing.T) {
	s, ts := newTestServer(t)

	code, body := postJSON(t, ts.URL+"/chat", `{"message": ""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Message is required", body["detail"])

	code, body = postJSON(t, ts.URL+"/chat", `{"message": "check quality"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "error", body["type"])
	assert.NotEmpty(t, body["suggestions"])

	p := filepath.Join(t.TempDir(), "c.csv")
	writeCSV(t, p, 20)
	_, err := s.registry.Load(p)
	require.NoError(t, err)

	code, body = postJSON(t, ts.URL+"/chat", `{"message": "Which campaign has the most clicks?"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["type"])
	assert.Equal(t, "Which campaign has the most clicks?", body["query"])
	assert.NotEmpty(t, body["id"])
	assert.NotEmpty(t, body["components"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, ts := newTestServer(t)
	p := filepath.Join(t.TempDir(), "c.csv")
	writeCSV(t, p, 8)
	_, err := s.registry.Load(p)
	require.NoError(t, err)
	postJSON(t, ts.URL+"/tool/validate_data", `{}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), `dqagent_tool_invocations_total{status="success",tool="validate_data"} 1`)
	assert.Contains(t, string(b), "dqagent_dataset_rows 8")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestWatchReloadsDataset(t *testing.T) {
	s, _ := newTestServer(t)
	p := filepath.Join(t.TempDir(), "live.csv")
	writeCSV(t, p, 5)
	_, err := s.registry.Load(p)
	require.NoError(t, err)
	s.dataPath, s.watch, s.debounce = p, true, 10*time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.watchData(ctx) }()

	rows := func() int {
		ds, err := s.registry.Store().Snapshot()
		if err != nil {
			return -1
		}
		return ds.Rows()
	}
	// Rewrite until the watcher has registered and picked up a change.
	require.Eventually(t, func() bool {
		writeCSV(t, p, 9)
		time.Sleep(30 * time.Millisecond)
		return rows() == 9
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
