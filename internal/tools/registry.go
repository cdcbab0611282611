// Package tools exposes the data-quality operations behind a uniform
// name-and-parameters interface.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/logging"
	"github.com/KaramelBytes/dqagent/internal/metrics"
	"github.com/KaramelBytes/dqagent/internal/quality"
)

// ErrUnknownTool is returned by Invoke for names outside the registry.
var ErrUnknownTool = errors.New("unknown tool")

// Result is the outcome of a tool invocation. Exactly one of Result and
// Error is set.
type Result struct {
	Tool   string         `json:"tool"`
	Status quality.Status `json:"status"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// OK reports whether the tool ran to completion.
func (r Result) OK() bool { return r.Status == quality.StatusSuccess }

func failed(tool string, err error) Result {
	return Result{Tool: tool, Status: quality.StatusError, Error: err.Error()}
}

// Registry runs tools against the dataset held by a Store.
type Registry struct {
	store   *dataset.Store
	metrics *metrics.Metrics
}

// NewRegistry returns a registry over store. m may be nil.
func NewRegistry(store *dataset.Store, m *metrics.Metrics) *Registry {
	return &Registry{store: store, metrics: m}
}

// Store returns the dataset store the registry reads from.
func (r *Registry) Store() *dataset.Store { return r.store }

// Load replaces the live dataset with the file at path.
func (r *Registry) Load(path string) (*dataset.Dataset, error) {
	ds, err := r.store.Load(path)
	rows := 0
	if ds != nil {
		rows = ds.Rows()
	}
	r.metrics.ObserveLoad(rows, err)
	return ds, err
}

// List returns the descriptors of every tool in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, numKinds)
	for _, k := range Kinds() {
		out = append(out, k.Descriptor())
	}
	return out
}

// Invoke runs the named tool. Unknown names fail with ErrUnknownTool and a
// missing dataset with dataset.ErrNoDataset; every other failure, including
// a panic inside the tool, comes back as a Result with StatusError.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]any) (res Result, err error) {
	kind, ok := ParseKind(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ds, err := r.store.Snapshot()
	if err != nil {
		return Result{}, err
	}

	log := logging.New("tools")
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.Error("tool panicked", "tool", name, "panic", p)
			res, err = failed(name, fmt.Errorf("internal error: %v", p)), nil
		}
		r.metrics.ObserveTool(name, string(res.Status), time.Since(start))
		log.Info("tool invoked", "tool", name, "status", res.Status, "duration", time.Since(start))
	}()

	params = kind.withDefaults(params)
	if missing := kind.missingRequired(params); len(missing) > 0 {
		sort.Strings(missing)
		return failed(name, fmt.Errorf("missing required parameter: %s", strings.Join(missing, ", "))), nil
	}

	var out any
	switch kind {
	case KindValidate:
		var p quality.ValidateParams
		if err = decode(params, &p); err == nil {
			out = quality.Validate(ds, p)
		}
	case KindFix:
		var p quality.FixParams
		if err = decode(params, &p); err == nil {
			out, err = r.fix(p)
		}
	case KindAnomalies:
		var p quality.AnomalyParams
		if err = decode(params, &p); err == nil {
			out, err = quality.DetectAnomalies(ds, p)
		}
	case KindCompleteness:
		var p quality.CompletenessParams
		if err = decode(params, &p); err == nil {
			out, err = quality.CheckCompleteness(ds, p)
		}
	case KindInsights:
		var p quality.InsightsParams
		if err = decode(params, &p); err == nil {
			out = quality.Insights(ds, p)
		}
	default:
		panic(fmt.Sprintf("tools: unhandled kind %d", kind))
	}
	if err != nil {
		log.Warn("tool failed", "tool", name, "err", err)
		return failed(name, err), nil
	}
	return Result{Tool: name, Status: quality.StatusSuccess, Result: out}, nil
}

// fix runs quality.Fix on an owned copy and swaps the repaired dataset in.
func (r *Registry) fix(p quality.FixParams) (*quality.FixReport, error) {
	var rep *quality.FixReport
	err := r.store.Update(func(owned *dataset.Dataset) (*dataset.Dataset, error) {
		fixed, fr := quality.Fix(owned, p)
		rep = fr
		return fixed, nil
	})
	if err != nil {
		return nil, err
	}
	if ds, err := r.store.Snapshot(); err == nil {
		r.metrics.SetDatasetRows(ds.Rows())
	}
	return rep, nil
}

// decode copies loosely typed params into a typed struct. Strings such as
// "true" or "10" are accepted for booleans and numbers; unknown keys fail.
func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
