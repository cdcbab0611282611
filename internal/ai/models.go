package ai

import "sort"

// Model metadata used to size prompts and log cost estimates.
// Prices are illustrative and should be verified against provider docs.

type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

// fallbackContextTokens is assumed for models missing from the catalog.
const fallbackContextTokens = 8192

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini":          {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.0006, OutputPerK: 0.0024},
	"openai/gpt-4o":               {Name: "openai/gpt-4o", ContextTokens: 128000, InputPerK: 0.005, OutputPerK: 0.015},
	"anthropic/claude-3.5-sonnet": {Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015},
	"anthropic/claude-3-haiku":    {Name: "anthropic/claude-3-haiku", ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125},
	"deepseek/deepseek-r1:free":   {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
	"gpt-4o-mini":                 {Name: "gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"gpt-4o":                      {Name: "gpt-4o", ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01},
	// Common local (Ollama) tags
	"llama3:latest":         {Name: "llama3:latest", ContextTokens: 8192},
	"llama3.1:8b-instruct":  {Name: "llama3.1:8b-instruct", ContextTokens: 8192},
	"mistral:7b-instruct":   {Name: "mistral:7b-instruct", ContextTokens: 8192},
	"phi3:mini-4k-instruct": {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
}

var defaultModels = map[string]string{
	ProviderOpenRouter: "anthropic/claude-3.5-sonnet",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOllama:     "llama3:latest",
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) (string, bool) {
	m, ok := defaultModels[provider]
	return m, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// PromptBudget is the number of prompt tokens that fit in model's context
// window next to maxOutput completion tokens. Never below 256.
func PromptBudget(model string, maxOutput int) int {
	ctx := fallbackContextTokens
	if mi, ok := LookupModel(model); ok && mi.ContextTokens > 0 {
		ctx = mi.ContextTokens
	}
	if b := ctx - maxOutput; b > 256 {
		return b
	}
	return 256
}
