package mcpserver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dqagent/internal/agent"
	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/mcpserver"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

func newTestServer(t *testing.T) *mcpserver.Server {
	t.Helper()
	reg := tools.NewRegistry(dataset.NewStore(dataset.Options{}), nil)
	return mcpserver.NewServer(agent.New(reg, nil, nil, agent.Options{}), "test")
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	_, err := srv.MCPServer.Connect(ctx, t1, nil)
	require.NoError(t, err)
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "CallTool(%s) returned error: %s", name, textOf(res))
	out := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(textOf(res)), &out))
	return out
}

func textOf(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func writeCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("campaign_name,date,impressions,clicks,cost\n")
	for i := 0; i < 30; i++ {
		cost := fmt.Sprintf("%d.5", 10+i)
		if i == 7 {
			cost = ""
		}
		fmt.Fprintf(&b, "Campaign %d,2024-04-%02d,%d,%d,%s\n", i%3, 1+i%28, 2000+i*11, 60+i, cost)
	}
	b.WriteString("Campaign 0,2024-04-01,2000,60,10.5\n")
	p := filepath.Join(t.TempDir(), "campaigns.csv")
	require.NoError(t, os.WriteFile(p, []byte(b.String()), 0o644))
	return p
}

func TestListTools(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t))

	res, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"check_completeness", "detect_anomalies", "fix_data", "get_insights",
		"load_dataset", "process_query", "validate_data",
	}, names)
}

func TestToolsRequireDataset(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t))

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "validate_data", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(res), "no dataset loaded")

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "load_dataset",
		Arguments: map[string]any{"file_path": filepath.Join(t.TempDir(), "missing.csv")},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(res), "dataset file not found")
}

func TestLoadValidateFix(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t))

	loaded := callTool(t, ctx, session, "load_dataset", map[string]any{"file_path": writeCSV(t)})
	assert.Equal(t, "success", loaded["status"])
	assert.Equal(t, 31.0, loaded["rows"])

	out := callTool(t, ctx, session, "validate_data", map[string]any{"check_schema": false})
	assert.Equal(t, "success", out["status"])
	report := out["result"].(map[string]any)
	assert.Equal(t, "failed", report["status"])
	assert.Len(t, report["issues"], 2)

	out = callTool(t, ctx, session, "fix_data", map[string]any{})
	assert.Equal(t, 1.0, out["result"].(map[string]any)["rows_affected"])

	out = callTool(t, ctx, session, "validate_data", map[string]any{})
	assert.Equal(t, "passed", out["result"].(map[string]any)["status"])

	out = callTool(t, ctx, session, "get_insights", map[string]any{"query": "which campaign has the most impressions", "visualization": true})
	insights := out["result"].(map[string]any)
	assert.Equal(t, "top_campaigns_by_impressions", insights["query_type"])
	assert.NotNil(t, insights["chart_data"])
}

func TestProcessQuery(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t))
	callTool(t, ctx, session, "load_dataset", map[string]any{"file_path": writeCSV(t)})

	out := callTool(t, ctx, session, "process_query", map[string]any{"message": "How complete is my data?"})
	assert.Equal(t, "success", out["type"])
	assert.Contains(t, out["message"], "**Data Completeness**")
	results := out["tool_results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "check_completeness", results[0].(map[string]any)["tool"])
}
