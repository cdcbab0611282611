package quality

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dqagent/internal/dataset"
)

// Validate reports shape, column types and, depending on p, missing values,
// duplicate rows and absent campaign columns. Status is passed iff no issue
// was found.
func Validate(ds *dataset.Dataset, p ValidateParams) *ValidateReport {
	rep := &ValidateReport{
		Summary: ValidateSummary{
			TotalRows:    ds.Rows(),
			TotalColumns: len(ds.Columns),
			DataTypes:    make(map[string]string, len(ds.Columns)),
		},
		Issues: []Issue{},
	}
	for _, c := range ds.Columns {
		rep.Summary.DataTypes[c.Name] = c.DType()
	}

	if p.CheckMissing {
		details := map[string]int{}
		for _, c := range ds.Columns {
			if n := c.NullCount(); n > 0 {
				details[c.Name] = n
			}
		}
		if len(details) > 0 {
			rep.Issues = append(rep.Issues, Issue{
				Type:        IssueMissingValues,
				Severity:    SeverityWarning,
				Details:     details,
				Description: fmt.Sprintf("Found missing values in %d columns", len(details)),
			})
		}
	}

	if p.CheckDuplicates {
		if n := len(duplicateRows(ds)); n > 0 {
			rep.Issues = append(rep.Issues, Issue{
				Type:        IssueDuplicates,
				Severity:    SeverityWarning,
				Count:       n,
				Description: fmt.Sprintf("Found %d duplicate rows", n),
			})
		}
	}

	if p.CheckSchema {
		var missing []string
		for _, name := range ExpectedColumns {
			if _, ok := ds.Column(name); !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			rep.Issues = append(rep.Issues, Issue{
				Type:           IssueSchema,
				Severity:       SeverityError,
				MissingColumns: missing,
				Description:    fmt.Sprintf("Missing expected columns: %s", strings.Join(missing, ", ")),
			})
		}
	}

	rep.Status = StatusPassed
	if len(rep.Issues) > 0 {
		rep.Status = StatusFailed
	}
	return rep
}

// duplicateRows returns the positions of rows identical to an earlier row.
func duplicateRows(ds *dataset.Dataset) []int {
	seen := make(map[string]struct{}, ds.Rows())
	var dups []int
	for i := 0; i < ds.Rows(); i++ {
		k := ds.RowKey(i)
		if _, ok := seen[k]; ok {
			dups = append(dups, i)
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}
