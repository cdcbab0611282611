package tools

import "maps"

// Kind enumerates the data-quality tools. The set is closed; every switch
// over Kind must handle all of them.
type Kind int

const (
	KindValidate Kind = iota
	KindFix
	KindAnomalies
	KindCompleteness
	KindInsights
	numKinds
)

// Param describes one tool parameter.
type Param struct {
	Type     string `json:"type"`
	Default  any    `json:"default,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Descriptor is the public description of a tool.
type Descriptor struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  map[string]Param `json:"parameters"`
}

var descriptors = [numKinds]Descriptor{
	KindValidate: {
		Name:        "validate_data",
		Description: "Validate data schema, types, and identify missing values",
		Parameters: map[string]Param{
			"check_schema":     {Type: "boolean", Default: true},
			"check_missing":    {Type: "boolean", Default: true},
			"check_duplicates": {Type: "boolean", Default: true},
		},
	},
	KindFix: {
		Name:        "fix_data",
		Description: "Clean and fix data issues",
		Parameters: map[string]Param{
			"fix_missing":       {Type: "boolean", Default: true},
			"remove_duplicates": {Type: "boolean", Default: true},
			"fix_types":         {Type: "boolean", Default: true},
		},
	},
	KindAnomalies: {
		Name:        "detect_anomalies",
		Description: "Detect outliers and anomalies in campaign metrics",
		Parameters: map[string]Param{
			"columns": {Type: "list", Default: []any{}},
			"method":  {Type: "string", Default: "isolation_forest"},
		},
	},
	KindCompleteness: {
		Name:        "check_completeness",
		Description: "Check data completeness and coverage",
		Parameters: map[string]Param{
			"required_columns": {Type: "list", Default: []any{}},
			"date_range":       {Type: "dict", Default: map[string]any{}},
		},
	},
	KindInsights: {
		Name:        "get_insights",
		Description: "Get data insights and answer analytical questions",
		Parameters: map[string]Param{
			"query":         {Type: "string", Required: true},
			"visualization": {Type: "boolean", Default: false},
		},
	},
}

// String returns the tool name.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return descriptors[k].Name
}

// Kinds returns every tool kind in registration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind resolves a tool name.
func ParseKind(name string) (Kind, bool) {
	for k := Kind(0); k < numKinds; k++ {
		if descriptors[k].Name == name {
			return k, true
		}
	}
	return 0, false
}

// Descriptor returns a copy of the descriptor of k.
func (k Kind) Descriptor() Descriptor {
	d := descriptors[k]
	d.Parameters = maps.Clone(d.Parameters)
	return d
}

// withDefaults returns params with every unset optional parameter of k set
// to its default. The input map is not modified.
func (k Kind) withDefaults(params map[string]any) map[string]any {
	out := make(map[string]any, len(descriptors[k].Parameters))
	for name, p := range descriptors[k].Parameters {
		if p.Default != nil {
			out[name] = p.Default
		}
	}
	for name, v := range params {
		out[name] = v
	}
	return out
}

func (k Kind) missingRequired(params map[string]any) []string {
	var missing []string
	for name, p := range descriptors[k].Parameters {
		if !p.Required {
			continue
		}
		if v, ok := params[name]; !ok || v == nil || v == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
