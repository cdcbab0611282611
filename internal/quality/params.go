package quality

// ValidateParams configures validate_data.
type ValidateParams struct {
	CheckSchema     bool `json:"check_schema"`
	CheckMissing    bool `json:"check_missing"`
	CheckDuplicates bool `json:"check_duplicates"`
}

// FixParams configures fix_data.
type FixParams struct {
	FixMissing       bool `json:"fix_missing"`
	RemoveDuplicates bool `json:"remove_duplicates"`
	FixTypes         bool `json:"fix_types"`
}

// AnomalyParams configures detect_anomalies. Empty Columns means every
// numeric column.
type AnomalyParams struct {
	Columns []string `json:"columns"`
	Method  string   `json:"method"`
}

// DateRange bounds a coverage check. Both ends are inclusive.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CompletenessParams configures check_completeness.
type CompletenessParams struct {
	RequiredColumns []string  `json:"required_columns"`
	DateRange       DateRange `json:"date_range"`
}

// InsightsParams configures get_insights.
type InsightsParams struct {
	Query         string `json:"query"`
	Visualization bool   `json:"visualization"`
}

// MethodIsolationForest is the only implemented anomaly method.
const MethodIsolationForest = "isolation_forest"

// ExpectedColumns is the campaign schema checked by validate_data.
var ExpectedColumns = []string{"campaign_name", "date", "impressions", "clicks", "cost"}
