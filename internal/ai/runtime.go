package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/dqagent/internal/logging"
	"github.com/KaramelBytes/dqagent/internal/utils"
)

// Runtime is a minimal interface implemented by AI backends/runtimes
// such as OpenRouter, OpenAI and local runtimes (e.g., Ollama).
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	// ProviderNone disables the language model; the agent then runs on
	// keyword routing and templates only.
	ProviderNone = "none"
)

// ErrEmptyCompletion is returned when a runtime answers without content.
var ErrEmptyCompletion = errors.New("empty completion")

// Completer turns a single prompt into text.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// RuntimeCompleter adapts a Runtime to Completer for one model.
type RuntimeCompleter struct {
	Runtime     Runtime
	Model       string
	Temperature float64
}

// Complete sends prompt as a single user message. Prompts larger than the
// model's context window allows are truncated.
func (c *RuntimeCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if budget := PromptBudget(c.Model, maxTokens); utils.CountTokens(prompt) > budget {
		prompt = utils.TruncateToTokenLimit(prompt, budget)
	}
	resp, err := c.Runtime.Generate(ctx, GenerateRequest{
		Model:       c.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Model, err)
	}
	log := logging.New("ai").With("model", c.Model, "prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	if cost, ok := EstimateCostUSD(c.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); ok {
		log = log.With("cost_usd", cost)
	}
	log.Debug("completion finished")
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
