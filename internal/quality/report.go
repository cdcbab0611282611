package quality

// Status values carried by reports.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPartial Status = "partial"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue types.
const (
	IssueMissingValues          = "missing_values"
	IssueDuplicates             = "duplicates"
	IssueSchema                 = "schema"
	IssueLowCompleteness        = "low_completeness"
	IssueMissingRequiredColumns = "missing_required_columns"
)

// Issue is a data-quality finding. Only the fields relevant to Type are set.
type Issue struct {
	Type           string         `json:"type"`
	Severity       Severity       `json:"severity"`
	Description    string         `json:"description,omitempty"`
	Details        map[string]int `json:"details,omitempty"`
	Count          int            `json:"count,omitempty"`
	MissingColumns []string       `json:"missing_columns,omitempty"`
	Column         string         `json:"column,omitempty"`
	Completeness   string         `json:"completeness,omitempty"`
	Columns        []string       `json:"columns,omitempty"`
}

// ValidateSummary describes the dataset shape and column types.
type ValidateSummary struct {
	TotalRows    int               `json:"total_rows"`
	TotalColumns int               `json:"total_columns"`
	DataTypes    map[string]string `json:"data_types"`
}

// ValidateReport is the result of validate_data.
type ValidateReport struct {
	Summary ValidateSummary `json:"summary"`
	Issues  []Issue         `json:"issues"`
	Status  Status          `json:"status"`
}

// Fix types.
const (
	FixDuplicatesRemoved = "duplicates_removed"
	FixMissingFilled     = "missing_values_filled"
	FixTypeConversion    = "type_conversion"
)

// AppliedFix records one change made by fix_data.
type AppliedFix struct {
	Type        string `json:"type"`
	Column      string `json:"column,omitempty"`
	Count       int    `json:"count,omitempty"`
	Method      string `json:"method,omitempty"`
	Value       any    `json:"value,omitempty"`
	NewType     string `json:"new_type,omitempty"`
	Description string `json:"description"`
}

// FixReport is the result of fix_data.
type FixReport struct {
	Status        Status       `json:"status"`
	OriginalShape [2]int       `json:"original_shape"`
	NewShape      [2]int       `json:"new_shape"`
	FixesApplied  []AppliedFix `json:"fixes_applied"`
	RowsAffected  int          `json:"rows_affected"`
}

// Anomaly is one row flagged as an outlier.
type Anomaly struct {
	RowIndex        int            `json:"row_index"`
	ConfidenceScore string         `json:"confidence_score"`
	RawConfidence   float64        `json:"raw_confidence"`
	Values          map[string]any `json:"values"`
	Description     string         `json:"description"`
}

// AnomalySummary reports the rate over analyzed rows.
type AnomalySummary struct {
	AnomalyRate       string `json:"anomaly_rate"`
	TotalRowsAnalyzed int    `json:"total_rows_analyzed"`
}

// AnomalyReport is the result of detect_anomalies.
type AnomalyReport struct {
	Status          Status          `json:"status"`
	Message         string          `json:"message,omitempty"`
	Method          string          `json:"method,omitempty"`
	ColumnsAnalyzed []string        `json:"columns_analyzed,omitempty"`
	TotalAnomalies  int             `json:"total_anomalies"`
	Anomalies       []Anomaly       `json:"anomalies"`
	Summary         *AnomalySummary `json:"summary,omitempty"`
}

// OverallCompleteness aggregates all cells.
type OverallCompleteness struct {
	Percentage   string `json:"percentage"`
	TotalCells   int    `json:"total_cells"`
	NonNullCells int    `json:"non_null_cells"`
}

// ColumnCompleteness reports one column.
type ColumnCompleteness struct {
	Percentage   string `json:"percentage"`
	MissingCount int    `json:"missing_count"`
	TotalCount   int    `json:"total_count"`
}

// DateCoverage reports how densely a date column covers its span.
type DateCoverage struct {
	StartDate          string             `json:"start_date"`
	EndDate            string             `json:"end_date"`
	TotalDays          int                `json:"total_days"`
	UniqueDates        int                `json:"unique_dates"`
	CoveragePercentage string             `json:"coverage_percentage"`
	RequestedRange     *RequestedCoverage `json:"requested_range,omitempty"`
}

// RequestedCoverage measures coverage against a caller-supplied window.
type RequestedCoverage struct {
	Start              string `json:"start"`
	End                string `json:"end"`
	TotalDays          int    `json:"total_days"`
	DatesInRange       int    `json:"dates_in_range"`
	MissingDays        int    `json:"missing_days"`
	CoveragePercentage string `json:"coverage_percentage"`
}

// CompletenessReport is the result of check_completeness.
type CompletenessReport struct {
	OverallCompleteness OverallCompleteness           `json:"overall_completeness"`
	ColumnCompleteness  map[string]ColumnCompleteness `json:"column_completeness"`
	DateCoverage        map[string]DateCoverage       `json:"date_coverage"`
	Issues              []Issue                       `json:"issues"`
}

// Query types produced by get_insights.
const (
	QueryCampaignList = "campaign_list"
	QueryTrends       = "trends"
	QuerySummary      = "summary"
	queryTopPrefix    = "top_campaigns_by_"
)

// CampaignValue is one row of a top-campaigns ranking.
type CampaignValue struct {
	Campaign any     `json:"campaign"`
	Value    float64 `json:"value"`
	Metric   string  `json:"metric"`
}

// ChartData describes a chart without rendering it.
type ChartData struct {
	Type  string    `json:"type"`
	X     []any     `json:"x"`
	Y     []float64 `json:"y"`
	Title string    `json:"title"`
}

// Series is one time series of a trends result.
type Series struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// DateSpan is a closed date interval.
type DateSpan struct {
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	TotalDays int    `json:"total_days,omitempty"`
}

// MetricSummary aggregates one numeric column. Aggregates over an all-null
// column are null.
type MetricSummary struct {
	Total   float64  `json:"total"`
	Average *float64 `json:"average"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
}

// DataSummary is the payload of a summary query.
type DataSummary struct {
	TotalRows      int                      `json:"total_rows"`
	DateRange      DateSpan                 `json:"date_range"`
	MetricsSummary map[string]MetricSummary `json:"metrics_summary"`
}

// InsightsReport is the result of get_insights. Fields are populated
// according to QueryType.
type InsightsReport struct {
	Status         Status            `json:"status"`
	QueryType      string            `json:"query_type,omitempty"`
	Message        string            `json:"message,omitempty"`
	TotalCampaigns *int              `json:"total_campaigns,omitempty"`
	Campaigns      []any             `json:"campaigns,omitempty"`
	Metric         string            `json:"metric,omitempty"`
	TopCampaigns   []CampaignValue   `json:"top_campaigns,omitempty"`
	DateRange      *DateSpan         `json:"date_range,omitempty"`
	Trends         map[string]Series `json:"trends,omitempty"`
	Summary        *DataSummary      `json:"summary,omitempty"`
	ChartData      *ChartData        `json:"chart_data,omitempty"`
	Suggestions    []string          `json:"suggestions,omitempty"`
}
