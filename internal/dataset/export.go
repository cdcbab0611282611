package dataset

import (
	"bytes"
	"encoding/csv"
)

// CSV renders the dataset as comma-separated text with a header row.
// Null cells are written empty, so the output loads back into an equal
// dataset.
func (d *Dataset) CSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(d.ColumnNames())
	row := make([]string, len(d.Columns))
	for i := 0; i < d.Rows(); i++ {
		for j, c := range d.Columns {
			row[j] = c.Format(i)
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}
