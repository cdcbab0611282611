package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/KaramelBytes/dqagent/internal/quality"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

// ErrNoSuccessfulResult is returned by TemplateSynthesizer when every tool
// invocation failed.
var ErrNoSuccessfulResult = errors.New("no successful tool result")

// Synthesizer turns tool results into the conversational answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results []tools.Result) (string, error)
}

// TemplateSynthesizer formats the first successful result with a fixed
// template per tool kind.
type TemplateSynthesizer struct{}

func (TemplateSynthesizer) Synthesize(_ context.Context, _ string, results []tools.Result) (string, error) {
	for _, r := range results {
		if !r.OK() {
			continue
		}
		switch rep := r.Result.(type) {
		case *quality.ValidateReport:
			return formatValidation(rep), nil
		case *quality.AnomalyReport:
			return formatAnomalies(rep), nil
		case *quality.InsightsReport:
			return formatInsights(rep), nil
		case *quality.CompletenessReport:
			return formatCompleteness(rep), nil
		case *quality.FixReport:
			return formatFix(rep), nil
		default:
			return genericSuccess, nil
		}
	}
	return "", ErrNoSuccessfulResult
}

// LLMSynthesizer asks a language model for the answer through the
// orchestrator's guarded call path.
type LLMSynthesizer struct {
	complete  func(ctx context.Context, stage, prompt string, maxTokens int) (string, error)
	maxTokens int
}

func (s *LLMSynthesizer) Synthesize(ctx context.Context, query string, results []tools.Result) (string, error) {
	prompt, err := responsePrompt(query, results)
	if err != nil {
		return "", err
	}
	return s.complete(ctx, stageSynthesize, prompt, s.maxTokens)
}

func responsePrompt(query string, results []tools.Result) (string, error) {
	sections := make([]string, 0, len(results))
	for _, r := range results {
		var payload any = r
		if r.OK() {
			payload = r.Result
		}
		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode %s result: %w", r.Tool, err)
		}
		sections = append(sections, fmt.Sprintf("Tool: %s\nResult: %s", r.Tool, b))
	}
	return fmt.Sprintf(`You are a helpful data quality assistant. The user asked: %q

I ran some data analysis tools and got these results:

%s

Please provide a helpful, conversational response that:
1. Directly answers the user's question
2. Highlights key findings from the tool results
3. Uses a friendly, professional tone
4. Suggests actionable next steps if applicable
5. Formats any data in a clear, readable way

Guidelines:
- If there are anomalies, explain what they mean and their confidence scores
- If there are data quality issues, explain the impact and suggest fixes
- If showing insights, present them clearly with context
- Always be specific and reference actual numbers from the results
- Keep responses concise but informative

Respond in a natural, conversational way as if you're a data analyst explaining findings to a colleague.`,
		query, strings.Join(sections, "\n\n")), nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
