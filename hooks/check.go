// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"fmt"

	"github.com/datacat-dev/datacat/catalog"
	"github.com/datacat-dev/datacat/env"
	"github.com/datacat-dev/datacat/logger"
)

// Verdict is one checker's judgement of one resource. Attempted false
// means the checker does not know how to validate this resource; Problem
// is empty on success and a description otherwise, meaningful only when
// the check was attempted.
type Verdict struct {
	Resource  *catalog.Resource
	Attempted bool
	Problem   string
}

// VerdictStream is a lazy, finite sequence of verdicts. A conforming
// checker yields exactly one verdict per collection resource, in
// collection order; the aggregator enforces this.
type VerdictStream interface {
	// Next returns the next verdict. ok is false once the sequence is
	// exhausted. An error aborts the whole check.
	Next() (v Verdict, ok bool, err error)
}

// Verdicts builds a VerdictStream from a fixed slice, for inline
// checkers that compute their verdicts eagerly.
func Verdicts(vs ...Verdict) VerdictStream {
	return &sliceStream{verdicts: vs}
}

type sliceStream struct {
	verdicts []Verdict
	pos      int
}

func (s *sliceStream) Next() (Verdict, bool, error) {
	if s.pos >= len(s.verdicts) {
		return Verdict{}, false, nil
	}
	v := s.verdicts[s.pos]
	s.pos++
	return v, true, nil
}

// CheckFunc is an inline checker. It must not mutate the collection.
type CheckFunc func(col *catalog.Collection, args ...string) (VerdictStream, error)

// Checker references one checker: an inline function, a hook script
// dispatched at its "check" entry point, or a script with an explicit
// entry point and arguments.
type Checker struct {
	fn    CheckFunc
	path  string
	entry string
	args  []string
	label string
}

// CheckerFunc references an inline checker under the given label.
func CheckerFunc(label string, fn CheckFunc) Checker {
	return Checker{fn: fn, label: label}
}

// CheckerPath references a hook script's "check" entry point.
func CheckerPath(path string) Checker {
	return Checker{path: path, entry: EntryCheck}
}

// CheckerEntry references a named entry point of a hook script, with
// arguments passed through to the step expressions.
func CheckerEntry(path, entry string, args ...string) Checker {
	return Checker{path: path, entry: entry, args: args}
}

// Label names the checker in reports and alignment errors.
func (c Checker) Label() string {
	if c.label != "" {
		return c.label
	}
	if c.path == "" {
		return "<inline checker>"
	}
	if c.entry == EntryCheck {
		return c.path
	}
	return fmt.Sprintf("%s:%s", c.path, c.entry)
}

func (c Checker) stream(col *catalog.Collection) (VerdictStream, error) {
	if c.fn != nil {
		return c.fn(col, c.args...)
	}
	s, err := loadScript(c.path)
	if err != nil {
		return nil, err
	}
	ep, err := s.entry(c.entry)
	if err != nil {
		return nil, err
	}
	if ep.kind != kindCheck {
		return nil, fmt.Errorf("%w: %s: entry point %q holds transform steps; dispatch it as a transform",
			ErrScript, s.path, c.entry)
	}
	return ep.stream(col, c.args), nil
}

// CheckOption configures a Check invocation.
type CheckOption func(*checkOptions)

type checkOptions struct {
	envReader env.Reader
}

// WithEnvironmentCheckers appends the checkers listed in the
// DATACAT_CHECKERS environment variable, in listed order, after the
// explicitly supplied ones.
func WithEnvironmentCheckers(reader env.Reader) CheckOption {
	return func(o *checkOptions) {
		o.envReader = reader
	}
}

// Result is one checker's verdict of the row's resource, labeled.
type Result struct {
	Checker   string
	Attempted bool
	Problem   string
}

// Row is the aggregate of every checker's verdict for one resource.
type Row struct {
	Resource *catalog.Resource
	Results  []Result
}

// Passed reports whether every checker attempted the resource and found
// no problem.
func (r *Row) Passed() bool {
	for _, res := range r.Results {
		if !res.Attempted || res.Problem != "" {
			return false
		}
	}
	return true
}

// Report pulls every checker's verdict stream in lockstep, one resource
// per Next call, in collection order.
type Report struct {
	resources []*catalog.Resource
	labels    []string
	streams   []VerdictStream
	pos       int
	done      bool
}

// Check resolves the checker list and starts every checker against the
// collection. The returned report is lazy: verdicts are pulled as the
// caller iterates it with Next.
func Check(col *catalog.Collection, checkers []Checker, opts ...CheckOption) (*Report, error) {
	var cfg checkOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	all := append([]Checker(nil), checkers...)
	if cfg.envReader != nil {
		for _, path := range env.SplitList(cfg.envReader.Getenv(env.CheckersVar)) {
			all = append(all, CheckerPath(path))
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: supply checkers or set %s", ErrNoCheckers, env.CheckersVar)
	}

	report := &Report{
		resources: col.Resources(),
		labels:    make([]string, len(all)),
		streams:   make([]VerdictStream, len(all)),
	}
	for i, c := range all {
		report.labels[i] = c.Label()
		stream, err := c.stream(col)
		if err != nil {
			return nil, fmt.Errorf("checker %d (%s): %w", i, c.Label(), err)
		}
		report.streams[i] = stream
	}
	logger.Debugw("checking collection", "checkers", len(all), "resources", col.Len())
	return report, nil
}

// Labels returns the checker labels in checker order.
func (r *Report) Labels() []string {
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// Next aggregates the next resource's verdicts. Each checker must report
// the collection's resource at this position; any skip, reorder,
// shortfall or excess fails with an AlignmentError before a partial row
// is yielded. ok is false once every resource has been reported and
// every stream is verified exhausted.
func (r *Report) Next() (*Row, bool, error) {
	if r.done {
		return nil, false, nil
	}

	if r.pos >= len(r.resources) {
		// Every stream must be exhausted exactly here.
		for i, stream := range r.streams {
			v, ok, err := stream.Next()
			if err != nil {
				return nil, false, err
			}
			if ok {
				return nil, false, &AlignmentError{
					Checker:  r.labels[i],
					Index:    i,
					Position: r.pos,
					Got:      v.Resource.Name(),
				}
			}
		}
		r.done = true
		return nil, false, nil
	}

	expected := r.resources[r.pos]
	row := &Row{Resource: expected, Results: make([]Result, len(r.streams))}
	for i, stream := range r.streams {
		v, ok, err := stream.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, &AlignmentError{
				Checker:  r.labels[i],
				Index:    i,
				Position: r.pos,
				Want:     expected.Name(),
			}
		}
		if v.Resource != expected {
			return nil, false, &AlignmentError{
				Checker:  r.labels[i],
				Index:    i,
				Position: r.pos,
				Want:     expected.Name(),
				Got:      v.Resource.Name(),
			}
		}
		row.Results[i] = Result{Checker: r.labels[i], Attempted: v.Attempted, Problem: v.Problem}
	}
	r.pos++
	return row, true, nil
}

// All drains the report, verifying full alignment, and returns every row.
func (r *Report) All() ([]*Row, error) {
	var rows []*Row
	for {
		row, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}
