package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// nullTokens are cell values treated as missing in addition to blanks.
var nullTokens = map[string]struct{}{
	"na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "#n/a": {}, "-nan": {},
}

// IsNullToken reports whether a raw cell value denotes a missing value.
func IsNullToken(s string) bool {
	v := strings.TrimSpace(s)
	if v == "" {
		return true
	}
	_, ok := nullTokens[strings.ToLower(v)]
	return ok
}

// Slash dates are month-first whether or not they are zero-padded; the
// day-first layout only matches when the first field exceeds 12.
var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006", "02/01/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"1/2/2006", "1/2/2006 15:04", "1/2/2006 15:04:05", "Jan 2, 2006", "2 Jan 2006",
}

// ParseTime tries the accepted layouts in order.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses plain and locale-formatted numbers. Percent signs are
// dropped; "1,234.5" and "1.234,5" both read as 1234.5.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return 0, false
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
	case cpos >= 0 && dpos >= 0:
		raw = strings.ReplaceAll(raw, ",", "")
	case cpos >= 0:
		// A single comma followed by exactly three digits is a thousands separator.
		if strings.Count(raw, ",") > 1 || len(raw)-cpos-1 == 3 {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.Replace(raw, ",", ".", 1)
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Quantile returns the linearly interpolated q-quantile of sorted values.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median returns the median of the valid values of a numeric column.
func (c *Column) Median() (float64, bool) {
	vals := make([]float64, 0, len(c.Nums))
	for i, v := range c.Nums {
		if c.Valid[i] {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	return Quantile(vals, 0.5), true
}

// Mode returns the most frequent non-null text value. Ties go to the
// lexicographically smallest value.
func (c *Column) Mode() (string, bool) {
	counts := map[string]int{}
	for i, v := range c.Texts {
		if c.Valid[i] {
			counts[v]++
		}
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}

// ParseTimes attempts to read every non-null cell of a text or temporal
// column as a time. ok is false when any non-null cell does not parse.
func (c *Column) ParseTimes() (times []time.Time, ok bool) {
	times = make([]time.Time, c.Len())
	switch c.Kind {
	case KindTemporal:
		copy(times, c.Times)
		return times, true
	case KindText:
		for i, v := range c.Texts {
			if !c.Valid[i] {
				continue
			}
			t, parsed := ParseTime(v)
			if !parsed {
				return nil, false
			}
			times[i] = t
		}
		return times, true
	default:
		return nil, false
	}
}

func sniffDelimiter(path string, head []byte) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
