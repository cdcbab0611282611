package agent

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/dqagent/internal/quality"
)

var (
	printer = message.NewPrinter(language.English)
	title   = cases.Title(language.English)
)

const genericSuccess = "I've processed your request successfully. Please check the detailed results below."

func formatValidation(rep *quality.ValidateReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I've analyzed your data quality for %d rows and %d columns.\n\n", rep.Summary.TotalRows, rep.Summary.TotalColumns)
	if len(rep.Issues) == 0 {
		b.WriteString("Great news! No data quality issues were found. Your data appears to be clean and ready for analysis.")
		return b.String()
	}
	fmt.Fprintf(&b, "Found %d data quality issues:\n\n", len(rep.Issues))
	for _, is := range rep.Issues {
		switch is.Type {
		case quality.IssueMissingValues:
			cols := sortedKeys(is.Details)
			parts := make([]string, len(cols))
			for i, c := range cols {
				parts[i] = fmt.Sprintf("%s (%d missing)", c, is.Details[c])
			}
			fmt.Fprintf(&b, "• **Missing Values**: %s\n", strings.Join(parts, ", "))
		case quality.IssueDuplicates:
			fmt.Fprintf(&b, "• **Duplicates**: %d duplicate rows found\n", is.Count)
		case quality.IssueSchema:
			fmt.Fprintf(&b, "• **Schema**: missing expected columns %s\n", strings.Join(is.MissingColumns, ", "))
		}
	}
	b.WriteString("\nI can help fix these issues. Just ask me to 'fix the data quality issues'.")
	return b.String()
}

func formatAnomalies(rep *quality.AnomalyReport) string {
	if rep.Status == quality.StatusError {
		return rep.Message
	}
	if rep.TotalAnomalies == 0 {
		return "No anomalies detected in your data. All data points appear to be within normal ranges."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Detected %d anomalies in your data (showing top %d):\n\n", rep.TotalAnomalies, len(rep.Anomalies))
	for i, a := range rep.Anomalies {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "%d. **Row %d** - %s confidence\n", i+1, a.RowIndex, a.ConfidenceScore)
	}
	rate := "N/A"
	if rep.Summary != nil {
		rate = rep.Summary.AnomalyRate
	}
	fmt.Fprintf(&b, "\n**Anomaly Rate**: %s of your data\n", rate)
	b.WriteString("\nReview the detailed table below to investigate these anomalies further.")
	return b.String()
}

func formatInsights(rep *quality.InsightsReport) string {
	switch {
	case rep.Status == quality.StatusError:
		return rep.Message
	case rep.Status == quality.StatusPartial:
		return rep.Message + "\n\nYou could try:\n• " + strings.Join(rep.Suggestions, "\n• ")
	case rep.QueryType == quality.QueryCampaignList:
		total := len(rep.Campaigns)
		if rep.TotalCampaigns != nil {
			total = *rep.TotalCampaigns
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d campaigns in your data:\n\n", total)
		for i, c := range rep.Campaigns {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "%d. %v\n", i+1, c)
		}
		if total > 10 {
			fmt.Fprintf(&b, "\n... and %d more campaigns.", total-10)
		}
		return b.String()
	case strings.HasPrefix(rep.QueryType, "top_campaigns"):
		if len(rep.TopCampaigns) == 0 {
			return fmt.Sprintf("No campaign data found for %s analysis.", rep.Metric)
		}
		best := rep.TopCampaigns[0]
		var b strings.Builder
		b.WriteString(printer.Sprintf("**Top performer**: %v with %.0f %s\n\n", best.Campaign, best.Value, rep.Metric))
		fmt.Fprintf(&b, "**Top 5 campaigns by %s**:\n", rep.Metric)
		for i, c := range rep.TopCampaigns {
			if i == 5 {
				break
			}
			b.WriteString(printer.Sprintf("%d. %v: %.0f\n", i+1, c.Campaign, c.Value))
		}
		return b.String()
	case rep.QueryType == quality.QueryTrends:
		var b strings.Builder
		if rep.DateRange != nil && rep.DateRange.Start != "" {
			fmt.Fprintf(&b, "**Trends** from %s to %s:\n", rep.DateRange.Start, rep.DateRange.End)
		} else {
			b.WriteString("**Trends**:\n")
		}
		for _, name := range sortedKeys(rep.Trends) {
			s := rep.Trends[name]
			var total float64
			for _, v := range s.Values {
				total += v
			}
			b.WriteString(printer.Sprintf("• %s: %.0f total over %d days\n", title.String(name), total, len(s.Dates)))
		}
		return b.String()
	case rep.QueryType == quality.QuerySummary && rep.Summary != nil:
		var b strings.Builder
		b.WriteString("**Data Summary**:\n")
		b.WriteString(printer.Sprintf("• Total rows: %d\n", rep.Summary.TotalRows))
		if rep.Summary.DateRange.Start != "" {
			fmt.Fprintf(&b, "• Date range: %s to %s\n", rep.Summary.DateRange.Start, rep.Summary.DateRange.End)
		}
		if len(rep.Summary.MetricsSummary) > 0 {
			b.WriteString("\n**Key Metrics**:\n")
			for _, name := range sortedKeys(rep.Summary.MetricsSummary) {
				m := rep.Summary.MetricsSummary[name]
				avg := 0.0
				if m.Average != nil {
					avg = *m.Average
				}
				b.WriteString(printer.Sprintf("• %s: %.0f total, %.1f average\n", title.String(name), m.Total, avg))
			}
		}
		return b.String()
	}
	return genericSuccess
}

func formatCompleteness(rep *quality.CompletenessReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Data Completeness**: %s\n\n", rep.OverallCompleteness.Percentage)
	if len(rep.Issues) == 0 {
		b.WriteString("Excellent! Your data is complete with no missing required fields or coverage gaps.")
		return b.String()
	}
	fmt.Fprintf(&b, "Found %d completeness issues:\n\n", len(rep.Issues))
	for _, is := range rep.Issues {
		switch is.Type {
		case quality.IssueLowCompleteness:
			fmt.Fprintf(&b, "• **%s**: Only %s complete\n", is.Column, is.Completeness)
		case quality.IssueMissingRequiredColumns:
			fmt.Fprintf(&b, "• **Missing required columns**: %s\n", strings.Join(is.Columns, ", "))
		}
	}
	return b.String()
}

func formatFix(rep *quality.FixReport) string {
	if len(rep.FixesApplied) == 0 {
		return "No fixes were needed - your data is already in good shape!"
	}
	var b strings.Builder
	b.WriteString("**Data Fixed Successfully!**\n\n")
	fmt.Fprintf(&b, "Applied %d fixes affecting %d rows:\n\n", len(rep.FixesApplied), rep.RowsAffected)
	for _, f := range rep.FixesApplied {
		switch f.Type {
		case quality.FixMissingFilled:
			fmt.Fprintf(&b, "• **%s**: Fixed %d missing values using %s\n", f.Column, f.Count, f.Method)
		case quality.FixDuplicatesRemoved:
			fmt.Fprintf(&b, "• **Duplicates**: Removed %d duplicate rows\n", f.Count)
		case quality.FixTypeConversion:
			fmt.Fprintf(&b, "• **%s**: Converted to %s\n", f.Column, f.NewType)
		}
	}
	b.WriteString("\nYour data is now clean and ready for analysis!")
	return b.String()
}
