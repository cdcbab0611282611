// Package mcpserver exposes the data-quality tools and the query
// orchestrator as a Model Context Protocol server.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KaramelBytes/dqagent/internal/agent"
	"github.com/KaramelBytes/dqagent/internal/logging"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

// Server wraps the MCP SDK server.
type Server struct {
	MCPServer *sdkmcp.Server

	agent    *agent.Orchestrator
	registry *tools.Registry
	log      *slog.Logger
}

// NewServer creates an MCP server with every tool registered.
func NewServer(orch *agent.Orchestrator, version string) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "dqagent", Version: version}, nil),
		agent:     orch,
		registry:  orch.Registry(),
		log:       logging.New("mcp"),
	}
	s.registerTools()
	return s
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	addTool[validateInput](s, tools.KindValidate)
	addTool[fixInput](s, tools.KindFix)
	addTool[anomaliesInput](s, tools.KindAnomalies)
	addTool[completenessInput](s, tools.KindCompleteness)
	addTool[insightsInput](s, tools.KindInsights)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "load_dataset",
		Description: "Load a CSV, TSV or XLSX file as the dataset every tool works on.",
	}, s.handleLoadDataset)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "process_query",
		Description: "Answer a natural-language question about the loaded dataset, choosing and running tools as needed.",
	}, s.handleProcessQuery)
}

// --- Tool input/output types ---

type validateInput struct {
	CheckSchema     *bool `json:"check_schema,omitempty" jsonschema:"check for the expected campaign columns (default true)"`
	CheckMissing    *bool `json:"check_missing,omitempty" jsonschema:"report missing values per column (default true)"`
	CheckDuplicates *bool `json:"check_duplicates,omitempty" jsonschema:"report duplicate rows (default true)"`
}

type fixInput struct {
	FixMissing       *bool `json:"fix_missing,omitempty" jsonschema:"fill missing values with median or mode (default true)"`
	RemoveDuplicates *bool `json:"remove_duplicates,omitempty" jsonschema:"drop duplicate rows (default true)"`
	FixTypes         *bool `json:"fix_types,omitempty" jsonschema:"convert date columns to datetime (default true)"`
}

type anomaliesInput struct {
	Columns []string `json:"columns,omitempty" jsonschema:"numeric columns to analyze (default all numeric columns)"`
	Method  string   `json:"method,omitempty" jsonschema:"detection method (default isolation_forest)"`
}

type dateRangeInput struct {
	Start string `json:"start" jsonschema:"first day, e.g. 2024-01-01"`
	End   string `json:"end" jsonschema:"last day, inclusive"`
}

type completenessInput struct {
	RequiredColumns []string        `json:"required_columns,omitempty" jsonschema:"columns that must be present"`
	DateRange       *dateRangeInput `json:"date_range,omitempty" jsonschema:"period whose daily coverage is measured"`
}

type insightsInput struct {
	Query         string `json:"query" jsonschema:"analytical question, e.g. which campaign had the most clicks"`
	Visualization *bool  `json:"visualization,omitempty" jsonschema:"include chart data (default false)"`
}

type toolOutput struct {
	Tool   string `json:"tool"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type loadDatasetInput struct {
	FilePath string `json:"file_path" jsonschema:"path of the file to load"`
}

type loadDatasetOutput struct {
	Status  string   `json:"status"`
	ID      string   `json:"id"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

type processQueryInput struct {
	Message string `json:"message" jsonschema:"the question to answer"`
}

// --- Tool handlers ---

// addTool registers the tool of kind k with a typed input. The input is
// converted back to a parameter map so the registry applies its defaults
// and validation exactly as for every other transport.
func addTool[In any](s *Server, k tools.Kind) {
	d := k.Descriptor()
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        d.Name,
		Description: d.Description,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, toolOutput, error) {
		params, err := toParams(in)
		if err != nil {
			return nil, toolOutput{}, err
		}
		res, err := s.registry.Invoke(ctx, d.Name, params)
		if err != nil {
			return nil, toolOutput{}, fmt.Errorf("%s: %w", d.Name, err)
		}
		return nil, toolOutput{Tool: res.Tool, Status: string(res.Status), Result: res.Result, Error: res.Error}, nil
	})
}

func toParams(in any) (map[string]any, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	params := map[string]any{}
	if err := json.Unmarshal(b, &params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return params, nil
}

func (s *Server) handleLoadDataset(_ context.Context, _ *sdkmcp.CallToolRequest, input loadDatasetInput) (*sdkmcp.CallToolResult, loadDatasetOutput, error) {
	if input.FilePath == "" {
		return nil, loadDatasetOutput{}, fmt.Errorf("file_path is required")
	}
	ds, err := s.registry.Load(input.FilePath)
	if err != nil {
		return nil, loadDatasetOutput{}, fmt.Errorf("load_dataset: %w", err)
	}
	s.log.Info("dataset loaded over mcp", "path", input.FilePath, "rows", ds.Rows())
	return nil, loadDatasetOutput{
		Status:  "success",
		ID:      ds.ID,
		Rows:    ds.Rows(),
		Columns: ds.ColumnNames(),
	}, nil
}

func (s *Server) handleProcessQuery(ctx context.Context, _ *sdkmcp.CallToolRequest, input processQueryInput) (*sdkmcp.CallToolResult, agent.ChatResponse, error) {
	if input.Message == "" {
		return nil, agent.ChatResponse{}, fmt.Errorf("message is required")
	}
	return nil, *s.agent.Process(ctx, input.Message), nil
}
