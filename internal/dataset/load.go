package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the dataset path does not exist.
	ErrNotFound = errors.New("dataset file not found")
	// ErrParse is returned when the file cannot be read as a table.
	ErrParse = errors.New("dataset is not tabular")
)

// Options controls how files are read.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the extension and header line.
	Delimiter rune
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
	// ParseDates infers temporal columns at load time. When false, date-like
	// columns stay text until converted by a fix.
	ParseDates bool
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// LoadFile reads a CSV, TSV or XLSX file into a Dataset.
func LoadFile(path string, opt Options) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrParse, path)
	}
	var header []string
	var records [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		header, records, err = readXLSX(path, opt)
	default:
		header, records, err = readCSV(path, opt)
	}
	if err != nil {
		return nil, err
	}
	return Build(filepath.Base(path), header, records, opt)
}

func readCSV(path string, opt Options) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	br := bufio.NewReader(f)
	head, _ := br.Peek(4096)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, head)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: %s has no header row", ErrParse, filepath.Base(path))
		}
		return nil, nil, fmt.Errorf("%w: read header: %v", ErrParse, err)
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("%w: read row %d: %v", ErrParse, len(records)+1, err)
		}
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// Build infers column kinds from raw string records.
func Build(name string, header []string, records [][]string, opt Options) (*Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: %s has no columns", ErrParse, name)
	}
	seen := map[string]int{}
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := seen[h]; n > 0 {
			seen[h]++
			h = fmt.Sprintf("%s.%d", h, n)
		} else {
			seen[h] = 1
		}
		names[i] = h
	}
	ds := &Dataset{ID: uuid.NewString(), Name: name, Index: make([]int, len(records))}
	for i := range records {
		ds.Index[i] = i
	}
	for j, colName := range names {
		cells := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			}
		}
		ds.Columns = append(ds.Columns, inferColumn(colName, cells, opt.ParseDates))
	}
	return ds, nil
}

func inferColumn(name string, cells []string, parseDates bool) *Column {
	valid := make([]bool, len(cells))
	nonNull := 0
	for i, v := range cells {
		if !IsNullToken(v) {
			valid[i] = true
			nonNull++
		}
	}
	if nonNull > 0 {
		nums := make([]float64, len(cells))
		numeric := true
		for i, v := range cells {
			if !valid[i] {
				continue
			}
			f, ok := ParseNumber(v)
			if !ok {
				numeric = false
				break
			}
			nums[i] = f
		}
		if numeric {
			return &Column{Name: name, Kind: KindNumeric, Nums: nums, Valid: valid}
		}
		if parseDates {
			times := make([]time.Time, len(cells))
			temporal := true
			for i, v := range cells {
				if !valid[i] {
					continue
				}
				t, ok := ParseTime(v)
				if !ok {
					temporal = false
					break
				}
				times[i] = t
			}
			if temporal {
				return &Column{Name: name, Kind: KindTemporal, Times: times, Valid: valid}
			}
		}
	}
	texts := make([]string, len(cells))
	for i, v := range cells {
		if valid[i] {
			texts[i] = v
		}
	}
	return &Column{Name: name, Kind: KindText, Texts: texts, Valid: valid}
}
