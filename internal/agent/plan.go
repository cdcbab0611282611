package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/dqagent/internal/tools"
)

// Call is one planned tool invocation.
type Call struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

var errEmptyPlan = errors.New("plan has no tool calls")

// routingHints tell the model when each tool applies.
var routingHints = map[string]string{
	"validate_data":      "Use for checking data quality, schema validation, missing values, duplicates",
	"fix_data":           "Use for cleaning data, fixing missing values, removing duplicates",
	"detect_anomalies":   "Use for finding outliers, unusual patterns, statistical anomalies",
	"check_completeness": "Use for checking data coverage, missing time periods, required fields",
	"get_insights":       "Use for analytical questions, trends, comparisons, summaries",
}

func analysisPrompt(query string, descriptors []tools.Descriptor) string {
	var b strings.Builder
	b.WriteString("You are a data quality assistant. Analyze this user query and determine which tools to use:\n\n")
	fmt.Fprintf(&b, "Query: %q\n\nAvailable tools:\n", query)
	for i, d := range descriptors {
		fmt.Fprintf(&b, "%d. %s - %s. %s\n", i+1, d.Name, d.Description, routingHints[d.Name])
		for _, name := range sortedKeys(d.Parameters) {
			p := d.Parameters[name]
			switch {
			case p.Required:
				fmt.Fprintf(&b, "   - %s (%s, required)\n", name, p.Type)
			default:
				def, _ := json.Marshal(p.Default)
				fmt.Fprintf(&b, "   - %s (%s, default %s)\n", name, p.Type, def)
			}
		}
	}
	b.WriteString(`
Rules:
- For questions about data problems/issues/quality: use validate_data
- For requests to fix/clean data: use fix_data
- For finding outliers/anomalies/unusual patterns: use detect_anomalies
- For checking coverage/completeness: use check_completeness
- For analytical questions (trends, comparisons, lists): use get_insights
- You can suggest multiple tools if needed
- If the query is unclear, default to validate_data

Respond with a JSON array of tools to use, each with "tool" and "params" fields:
[
  {"tool": "tool_name", "params": {"param1": "value1"}}
]

Only respond with valid JSON, no other text.`)
	return b.String()
}

// parsePlan decodes a model reply into calls. The reply may be a bare JSON
// array or one wrapped in a markdown code fence.
func parsePlan(reply string) ([]Call, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			// Drop the info string, e.g. ```json.
			s = s[nl+1:]
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	var calls []Call
	if err := json.Unmarshal([]byte(s), &calls); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if len(calls) == 0 {
		return nil, errEmptyPlan
	}
	for i := range calls {
		if calls[i].Tool == "" {
			return nil, fmt.Errorf("plan entry %d has no tool", i)
		}
		if calls[i].Params == nil {
			calls[i].Params = map[string]any{}
		}
	}
	return calls, nil
}

// keywordPlan routes a query without a language model. It always yields
// exactly one call.
func keywordPlan(query string) []Call {
	q := strings.ToLower(query)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("fix", "clean", "repair"):
		return []Call{{Tool: "fix_data", Params: map[string]any{}}}
	case has("anomal", "outlier", "unusual", "strange"):
		return []Call{{Tool: "detect_anomalies", Params: map[string]any{}}}
	case has("complete", "coverage", "missing"):
		return []Call{{Tool: "check_completeness", Params: map[string]any{}}}
	case has("trend", "insight", "campaign", "most", "best"):
		return []Call{{Tool: "get_insights", Params: map[string]any{"query": query, "visualization": true}}}
	default:
		return []Call{{Tool: "validate_data", Params: map[string]any{}}}
	}
}
