package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric  Kind = "numeric"
	KindText     Kind = "text"
	KindTemporal Kind = "temporal"
)

// Column holds the values of one named column. Only the slice matching Kind
// is populated; Valid marks non-null cells.
type Column struct {
	Name  string
	Kind  Kind
	Nums  []float64
	Texts []string
	Times []time.Time
	Valid []bool
}

// Dataset is an in-memory table of rows by named columns.
// Index carries the original 0-based row number of every row so that
// reports keep pointing at the source file after rows are dropped.
type Dataset struct {
	ID      string
	Name    string
	Columns []*Column
	Index   []int
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int {
	if d == nil {
		return 0
	}
	return len(d.Index)
}

// Shape returns [rows, columns].
func (d *Dataset) Shape() [2]int {
	if d == nil {
		return [2]int{0, 0}
	}
	return [2]int{len(d.Index), len(d.Columns)}
}

// ColumnNames returns the column names in file order.
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// FindColumn returns the first column whose lower-cased name contains sub.
func (d *Dataset) FindColumn(sub string) (*Column, bool) {
	sub = strings.ToLower(sub)
	for _, c := range d.Columns {
		if strings.Contains(strings.ToLower(c.Name), sub) {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns the numeric columns in file order.
func (d *Dataset) NumericColumns() []*Column {
	var out []*Column
	for _, c := range d.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy that shares no backing arrays with d.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{ID: d.ID, Name: d.Name, Index: append([]int(nil), d.Index...)}
	out.Columns = make([]*Column, len(d.Columns))
	for i, c := range d.Columns {
		out.Columns[i] = c.clone()
	}
	return out
}

// Select returns a new dataset holding only the given row positions, in order.
func (d *Dataset) Select(rows []int) *Dataset {
	out := &Dataset{ID: d.ID, Name: d.Name, Index: make([]int, len(rows))}
	for i, r := range rows {
		out.Index[i] = d.Index[r]
	}
	out.Columns = make([]*Column, len(d.Columns))
	for i, c := range d.Columns {
		nc := &Column{Name: c.Name, Kind: c.Kind, Valid: make([]bool, len(rows))}
		switch c.Kind {
		case KindNumeric:
			nc.Nums = make([]float64, len(rows))
		case KindTemporal:
			nc.Times = make([]time.Time, len(rows))
		default:
			nc.Texts = make([]string, len(rows))
		}
		for j, r := range rows {
			nc.Valid[j] = c.Valid[r]
			switch c.Kind {
			case KindNumeric:
				nc.Nums[j] = c.Nums[r]
			case KindTemporal:
				nc.Times[j] = c.Times[r]
			default:
				nc.Texts[j] = c.Texts[r]
			}
		}
		out.Columns[i] = nc
	}
	return out
}

// Row returns the values of row i keyed by column name.
func (d *Dataset) Row(i int, columns ...string) map[string]any {
	out := make(map[string]any)
	if len(columns) == 0 {
		columns = d.ColumnNames()
	}
	for _, name := range columns {
		if c, ok := d.Column(name); ok {
			out[name] = c.Value(i)
		}
	}
	return out
}

// RowKey renders row i as a single string usable for duplicate detection.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for j, c := range d.Columns {
		if j > 0 {
			b.WriteByte('\x1f')
		}
		if !c.Valid[i] {
			b.WriteString("\x00null")
			continue
		}
		b.WriteString(c.Format(i))
	}
	return b.String()
}

func (c *Column) clone() *Column {
	return &Column{
		Name:  c.Name,
		Kind:  c.Kind,
		Nums:  append([]float64(nil), c.Nums...),
		Texts: append([]string(nil), c.Texts...),
		Times: append([]time.Time(nil), c.Times...),
		Valid: append([]bool(nil), c.Valid...),
	}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Valid) }

// NullCount returns how many cells are null.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// Value returns cell i as a JSON-friendly value, or nil when null.
func (c *Column) Value(i int) any {
	if !c.Valid[i] {
		return nil
	}
	switch c.Kind {
	case KindNumeric:
		return c.Nums[i]
	case KindTemporal:
		return FormatTime(c.Times[i])
	default:
		return c.Texts[i]
	}
}

// Format renders cell i as text. Null cells render as an empty string.
func (c *Column) Format(i int) string {
	if !c.Valid[i] {
		return ""
	}
	switch c.Kind {
	case KindNumeric:
		return strconv.FormatFloat(c.Nums[i], 'f', -1, 64)
	case KindTemporal:
		return FormatTime(c.Times[i])
	default:
		return c.Texts[i]
	}
}

// DType reports a dataframe-style dtype name for the column.
func (c *Column) DType() string {
	switch c.Kind {
	case KindNumeric:
		for i, v := range c.Nums {
			if !c.Valid[i] || v != float64(int64(v)) {
				return "float64"
			}
		}
		return "int64"
	case KindTemporal:
		return "datetime64[ns]"
	default:
		return "object"
	}
}

// FormatTime prints dates without a clock component as YYYY-MM-DD.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
