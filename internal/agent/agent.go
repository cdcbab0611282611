// Package agent turns a free-text question into tool invocations and a
// conversational answer. A query moves through four stages: analyze (plan
// tool calls), execute (run them), synthesize (write the answer) and respond
// (attach UI components). The language model is optional at every stage;
// when it is missing, slow or failing the deterministic fallbacks answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/KaramelBytes/dqagent/internal/ai"
	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/logging"
	"github.com/KaramelBytes/dqagent/internal/metrics"
	"github.com/KaramelBytes/dqagent/internal/quality"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

// Response types.
const (
	ResponseSuccess = "success"
	ResponseError   = "error"
)

const (
	stageAnalyze    = "analyze"
	stageSynthesize = "synthesize"
)

// ErrorSuggestions accompany every error response.
var ErrorSuggestions = []string{
	"Try asking about data validation",
	"Ask for anomaly detection",
	"Request data insights",
}

const (
	noResultMessage  = "I couldn't process your request. Please try again."
	noDatasetMessage = "No dataset is loaded yet. Upload a CSV or XLSX file and ask again."
)

var errNoModel = errors.New("no language model configured")

// ChatResponse is the answer to one query.
type ChatResponse struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Message     string         `json:"message"`
	ToolResults []tools.Result `json:"tool_results"`
	Components  []Component    `json:"components"`
	Query       string         `json:"query"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// Options tune the language-model stages.
type Options struct {
	AnalyzeMaxTokens    int
	SynthesizeMaxTokens int
	// LLMTimeout bounds each model call.
	LLMTimeout time.Duration
	// BreakerFailures consecutive failures open the breaker for
	// BreakerCooldown, during which calls are rejected without trying.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultOptions returns 500/1500 token budgets, a 30s call timeout and a
// breaker that opens after 3 failures for 30s.
func DefaultOptions() Options {
	return Options{
		AnalyzeMaxTokens:    500,
		SynthesizeMaxTokens: 1500,
		LLMTimeout:          30 * time.Second,
		BreakerFailures:     3,
		BreakerCooldown:     30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.AnalyzeMaxTokens <= 0 {
		o.AnalyzeMaxTokens = d.AnalyzeMaxTokens
	}
	if o.SynthesizeMaxTokens <= 0 {
		o.SynthesizeMaxTokens = d.SynthesizeMaxTokens
	}
	if o.LLMTimeout <= 0 {
		o.LLMTimeout = d.LLMTimeout
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = d.BreakerFailures
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = d.BreakerCooldown
	}
	return o
}

// Orchestrator answers queries against a tool registry.
type Orchestrator struct {
	registry *tools.Registry
	llm      ai.Completer
	breaker  *gobreaker.CircuitBreaker
	remote   Synthesizer
	fallback Synthesizer
	opts     Options
	metrics  *metrics.Metrics
}

// New returns an orchestrator. llm and m may be nil; without llm every
// query is planned by keywords and answered from templates.
func New(reg *tools.Registry, llm ai.Completer, m *metrics.Metrics, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	o := &Orchestrator{
		registry: reg,
		llm:      llm,
		fallback: TemplateSynthesizer{},
		opts:     opts,
		metrics:  m,
	}
	o.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.New("agent").Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	if llm != nil {
		o.remote = &LLMSynthesizer{complete: o.complete, maxTokens: opts.SynthesizeMaxTokens}
	}
	return o
}

// Registry returns the registry queries run against.
func (o *Orchestrator) Registry() *tools.Registry { return o.registry }

// Process answers query. It never returns nil and never panics; failures
// become responses of type ResponseError carrying ErrorSuggestions.
func (o *Orchestrator) Process(ctx context.Context, query string) (resp *ChatResponse) {
	log := logging.New("agent")
	id := uuid.NewString()
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.Error("query panicked", "id", id, "panic", p, "stack", string(debug.Stack()))
			resp = errorResponse(id, query, fmt.Sprintf("Sorry, I encountered an error: %v", p), nil)
		}
		o.metrics.ObserveQuery(resp.Type)
		log.Info("query processed", "id", id, "type", resp.Type, "tools", len(resp.ToolResults), "duration", time.Since(start))
	}()

	plan := o.analyze(ctx, query)
	results, err := o.execute(ctx, plan)
	if err != nil {
		if errors.Is(err, dataset.ErrNoDataset) {
			return errorResponse(id, query, noDatasetMessage, results)
		}
		log.Error("tool execution aborted", "id", id, "err", err)
		return errorResponse(id, query, fmt.Sprintf("Sorry, I encountered an error: %v", err), results)
	}
	message, typ := o.synthesize(ctx, query, results)
	resp = &ChatResponse{
		ID:          id,
		Type:        typ,
		Message:     message,
		ToolResults: results,
		Components:  BuildComponents(results),
		Query:       query,
	}
	if typ == ResponseError {
		resp.Suggestions = append([]string(nil), ErrorSuggestions...)
	}
	return resp
}

// analyze plans tool calls, falling back to keyword routing on any
// model failure or unusable reply.
func (o *Orchestrator) analyze(ctx context.Context, query string) []Call {
	if o.llm == nil {
		return keywordPlan(query)
	}
	reply, err := o.complete(ctx, stageAnalyze, analysisPrompt(query, o.registry.List()), o.opts.AnalyzeMaxTokens)
	if err == nil {
		var plan []Call
		if plan, err = parsePlan(reply); err == nil {
			return plan
		}
	}
	logging.New("agent").Warn("query analysis fell back to keyword routing", "err", err, "kind", ai.Kind(err))
	o.metrics.ObserveFallback(stageAnalyze)
	return keywordPlan(query)
}

// execute runs calls in order. Unknown tools become error results; a
// missing dataset or a cancelled context stops the run.
func (o *Orchestrator) execute(ctx context.Context, plan []Call) ([]tools.Result, error) {
	results := make([]tools.Result, 0, len(plan))
	for _, c := range plan {
		res, err := o.registry.Invoke(ctx, c.Tool, c.Params)
		switch {
		case errors.Is(err, tools.ErrUnknownTool):
			res = tools.Result{Tool: c.Tool, Status: quality.StatusError, Error: err.Error()}
		case err != nil:
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, query string, results []tools.Result) (string, string) {
	if o.remote != nil {
		msg, err := o.remote.Synthesize(ctx, query, results)
		if err == nil {
			return msg, ResponseSuccess
		}
		logging.New("agent").Warn("synthesis fell back to templates", "err", err, "kind", ai.Kind(err))
		o.metrics.ObserveFallback(stageSynthesize)
	}
	msg, err := o.fallback.Synthesize(ctx, query, results)
	if err != nil {
		return noResultMessage, ResponseError
	}
	return msg, ResponseSuccess
}

// complete is the single path to the language model. Calls share one
// circuit breaker and each is bounded by LLMTimeout.
func (o *Orchestrator) complete(ctx context.Context, stage, prompt string, maxTokens int) (string, error) {
	if o.llm == nil {
		return "", errNoModel
	}
	cctx, cancel := context.WithTimeout(ctx, o.opts.LLMTimeout)
	defer cancel()
	out, err := o.breaker.Execute(func() (interface{}, error) {
		return o.llm.Complete(cctx, prompt, maxTokens)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		o.metrics.ObserveLLM(stage, "rejected")
		return "", err
	case err != nil:
		o.metrics.ObserveLLM(stage, "error")
		return "", err
	}
	o.metrics.ObserveLLM(stage, "ok")
	text, _ := out.(string)
	return text, nil
}

func errorResponse(id, query, message string, results []tools.Result) *ChatResponse {
	if results == nil {
		results = []tools.Result{}
	}
	return &ChatResponse{
		ID:          id,
		Type:        ResponseError,
		Message:     message,
		ToolResults: results,
		Components:  []Component{},
		Query:       query,
		Suggestions: append([]string(nil), ErrorSuggestions...),
	}
}
