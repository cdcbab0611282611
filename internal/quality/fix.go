package quality

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/logging"
)

// UnknownFill is imputed into text columns that have no mode.
const UnknownFill = "Unknown"

var errUnparseableDates = errors.New("column does not parse as dates")

// Fix repairs an owned dataset and returns the repaired dataset. Duplicates
// are removed first so fill counts reflect the de-duplicated rows. Running
// Fix on its own output applies no further fixes.
func Fix(owned *dataset.Dataset, p FixParams) (*dataset.Dataset, *FixReport) {
	log := logging.New("quality")
	ds := owned
	rep := &FixReport{Status: StatusSuccess, OriginalShape: ds.Shape(), FixesApplied: []AppliedFix{}}

	if p.RemoveDuplicates {
		if dups := duplicateRows(ds); len(dups) > 0 {
			drop := make(map[int]struct{}, len(dups))
			for _, i := range dups {
				drop[i] = struct{}{}
			}
			keep := make([]int, 0, ds.Rows()-len(dups))
			for i := 0; i < ds.Rows(); i++ {
				if _, ok := drop[i]; !ok {
					keep = append(keep, i)
				}
			}
			ds = ds.Select(keep)
			rep.FixesApplied = append(rep.FixesApplied, AppliedFix{
				Type:        FixDuplicatesRemoved,
				Count:       len(dups),
				Description: fmt.Sprintf("Removed %d duplicate rows", len(dups)),
			})
		}
	}

	if p.FixMissing {
		for _, c := range ds.Columns {
			if c.Kind != dataset.KindNumeric || c.NullCount() == 0 {
				continue
			}
			median, ok := c.Median()
			if !ok {
				continue
			}
			n := fillNumeric(c, median)
			rep.FixesApplied = append(rep.FixesApplied, AppliedFix{
				Type:   FixMissingFilled,
				Column: c.Name,
				Count:  n,
				Method: "median",
				Value:  median,
				Description: fmt.Sprintf("Filled %d missing values in %s with median value %s",
					n, c.Name, strconv.FormatFloat(median, 'f', -1, 64)),
			})
		}
		for _, c := range ds.Columns {
			if c.Kind != dataset.KindText || c.NullCount() == 0 {
				continue
			}
			mode, ok := c.Mode()
			if !ok {
				mode = UnknownFill
			}
			n := fillText(c, mode)
			rep.FixesApplied = append(rep.FixesApplied, AppliedFix{
				Type:        FixMissingFilled,
				Column:      c.Name,
				Count:       n,
				Method:      "mode",
				Value:       mode,
				Description: fmt.Sprintf("Filled %d missing values in %s with mode value '%s'", n, c.Name, mode),
			})
		}
	}

	if p.FixTypes {
		for _, c := range ds.Columns {
			if c.Kind != dataset.KindText || !strings.Contains(strings.ToLower(c.Name), "date") {
				continue
			}
			if err := convertToTemporal(c); errors.Is(err, errUnparseableDates) {
				// OnParseFailure: skip. The column stays text and no issue is raised.
				log.Debug("date conversion skipped", "column", c.Name)
				continue
			}
			rep.FixesApplied = append(rep.FixesApplied, AppliedFix{
				Type:        FixTypeConversion,
				Column:      c.Name,
				NewType:     "datetime",
				Description: fmt.Sprintf("Converted %s to datetime", c.Name),
			})
		}
	}

	rep.NewShape = ds.Shape()
	rep.RowsAffected = rep.OriginalShape[0] - rep.NewShape[0]
	log.Info("fix applied", "fixes", len(rep.FixesApplied), "rows_affected", rep.RowsAffected)
	return ds, rep
}

func fillNumeric(c *dataset.Column, v float64) int {
	n := 0
	for i, ok := range c.Valid {
		if !ok {
			c.Nums[i] = v
			c.Valid[i] = true
			n++
		}
	}
	return n
}

func fillText(c *dataset.Column, v string) int {
	n := 0
	for i, ok := range c.Valid {
		if !ok {
			c.Texts[i] = v
			c.Valid[i] = true
			n++
		}
	}
	return n
}

func convertToTemporal(c *dataset.Column) error {
	times, ok := c.ParseTimes()
	if !ok {
		return errUnparseableDates
	}
	c.Kind = dataset.KindTemporal
	c.Times = times
	c.Texts = nil
	return nil
}
