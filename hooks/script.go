// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/datacat-dev/datacat/catalog"
	"github.com/datacat-dev/datacat/expr"
)

// Entry point names used by the high-level operations.
const (
	EntryTransform = "transform"
	EntryCheck     = "check"
)

type stepKind int

const (
	kindTransform stepKind = iota
	kindCheck
)

// script is a parsed hook file: a mapping of entry point names to step
// lists, plus the directory the file lives in.
type script struct {
	path    string
	dir     string
	entries map[string]*entryPoint
}

type entryPoint struct {
	name       string
	kind       stepKind
	transforms []transformStep
	checks     []checkStep
}

// assignment is one "attribute: expression" pair of a set block, in
// document order.
type assignment struct {
	key    string
	source string
}

type transformStep struct {
	match  string
	set    []assignment
	rename string
	tag    []string
	untag  []string
}

type checkStep struct {
	match   string
	assert  string
	problem string
}

// loadScript reads and parses a hook file. Every step is validated here
// so that execution never encounters a malformed step.
func loadScript(path string) (*script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hook script: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving hook script path: %w", err)
	}
	s, err := parseScript(data, path)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(abs)
	return s, nil
}

func parseScript(data []byte, path string) (*script, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrScript, path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: %s: empty document", ErrScript, path)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s:%d: top level must be a mapping of entry points", ErrScript, path, root.Line)
	}

	s := &script{path: path, entries: make(map[string]*entryPoint)}
	for i := 0; i < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if _, dup := s.entries[key.Value]; dup {
			return nil, fmt.Errorf("%w: %s:%d: duplicate entry point %q", ErrScript, path, key.Line, key.Value)
		}
		ep, err := parseEntry(key.Value, value, path)
		if err != nil {
			return nil, err
		}
		s.entries[key.Value] = ep
	}
	return s, nil
}

func parseEntry(name string, node *yaml.Node, path string) (*entryPoint, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: %s:%d: entry point %q must be a list of steps", ErrScript, path, node.Line, name)
	}
	ep := &entryPoint{name: name}
	for i, stepNode := range node.Content {
		ts, cs, kind, err := parseStep(stepNode, path)
		if err != nil {
			return nil, fmt.Errorf("entry point %q step %d: %w", name, i+1, err)
		}
		if i > 0 && kind != ep.kind {
			return nil, fmt.Errorf("%w: %s:%d: entry point %q mixes transform and checker steps",
				ErrScript, path, stepNode.Line, name)
		}
		ep.kind = kind
		if kind == kindTransform {
			ep.transforms = append(ep.transforms, ts)
		} else {
			ep.checks = append(ep.checks, cs)
		}
	}
	return ep, nil
}

func parseStep(node *yaml.Node, path string) (transformStep, checkStep, stepKind, error) {
	var (
		ts transformStep
		cs checkStep
	)
	fail := func(line int, format string, args ...any) (transformStep, checkStep, stepKind, error) {
		prefix := fmt.Sprintf("%s:%d: ", path, line)
		return ts, cs, kindTransform, fmt.Errorf("%w: %s", ErrScript, prefix+fmt.Sprintf(format, args...))
	}

	if node.Kind != yaml.MappingNode {
		return fail(node.Line, "step must be a mapping")
	}

	hasTransform, hasCheck := false, false
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "match":
			if value.Kind != yaml.ScalarNode {
				return fail(value.Line, "match must be an expression string")
			}
			ts.match, cs.match = value.Value, value.Value
		case "set":
			if value.Kind != yaml.MappingNode {
				return fail(value.Line, "set must be a mapping of attribute to expression")
			}
			for j := 0; j < len(value.Content); j += 2 {
				k, v := value.Content[j], value.Content[j+1]
				if v.Kind != yaml.ScalarNode {
					return fail(v.Line, "set expression for %q must be a string", k.Value)
				}
				ts.set = append(ts.set, assignment{key: k.Value, source: v.Value})
			}
			hasTransform = true
		case "rename":
			if value.Kind != yaml.ScalarNode {
				return fail(value.Line, "rename must be an expression string")
			}
			ts.rename = value.Value
			hasTransform = true
		case "tag", "untag":
			list, err := stringList(value)
			if err != nil {
				return fail(value.Line, "%s: %v", key.Value, err)
			}
			if key.Value == "tag" {
				for _, tag := range list {
					if err := catalog.CheckTag(tag); err != nil {
						return fail(value.Line, "tag: %v", err)
					}
				}
				ts.tag = list
			} else {
				ts.untag = list
			}
			hasTransform = true
		case "assert":
			if value.Kind != yaml.ScalarNode {
				return fail(value.Line, "assert must be an expression string")
			}
			cs.assert = value.Value
			hasCheck = true
		case "problem":
			if value.Kind != yaml.ScalarNode {
				return fail(value.Line, "problem must be an expression string")
			}
			cs.problem = value.Value
			hasCheck = true
		default:
			return fail(key.Line, "unknown step key %q", key.Value)
		}
	}

	switch {
	case hasTransform && hasCheck:
		return fail(node.Line, "step mixes transform and checker actions")
	case hasCheck && cs.assert == "":
		return fail(node.Line, "problem without assert")
	case hasCheck:
		return ts, cs, kindCheck, nil
	case hasTransform:
		return ts, cs, kindTransform, nil
	default:
		return fail(node.Line, "step has no action")
	}
}

func stringList(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, elem := range node.Content {
			if elem.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("expected a string, got a nested structure")
			}
			out = append(out, elem.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or list of strings")
	}
}

// entry looks an entry point up, failing with a ResolutionError when the
// script does not define it.
func (s *script) entry(name string) (*entryPoint, error) {
	ep, ok := s.entries[name]
	if !ok {
		return nil, &ResolutionError{Path: s.path, Entry: name}
	}
	return ep, nil
}

// runTransform applies the entry point's steps to every resource, in
// collection order, steps in document order. A later step sees the
// mutations of earlier ones.
func (ep *entryPoint) runTransform(col *catalog.Collection, args []string) error {
	opts := stepEvalOptions(col, args)
	for _, r := range col.Resources() {
		for i, step := range ep.transforms {
			matched, err := stepMatches(r, step.match, opts)
			if err != nil {
				return fmt.Errorf("entry point %q step %d: %w", ep.name, i+1, err)
			}
			if !matched {
				continue
			}
			if err := step.apply(r, opts); err != nil {
				return fmt.Errorf("entry point %q step %d: %w", ep.name, i+1, err)
			}
		}
	}
	return nil
}

func (st transformStep) apply(r *catalog.Resource, opts []catalog.EvalOption) error {
	for _, a := range st.set {
		v, err := r.Evaluate(catalog.QExact(a.source), opts...)
		if err != nil {
			return err
		}
		if err := r.Set(a.key, v); err != nil {
			return err
		}
	}
	if st.rename != "" {
		v, err := r.Evaluate(catalog.QExact(st.rename), opts...)
		if err != nil {
			return err
		}
		name, ok := v.(string)
		if !ok || name == "" {
			return fmt.Errorf("%w: rename expression %q produced %v, want a non-empty string",
				ErrScript, st.rename, v)
		}
		if err := r.Set("name", name); err != nil {
			return err
		}
	}
	tags := r.Tags()
	for _, tag := range st.tag {
		if err := tags.Add(tag); err != nil {
			return err
		}
	}
	for _, tag := range st.untag {
		tags.Remove(tag)
	}
	return nil
}

// stream produces the entry point's verdicts lazily, one per collection
// resource in order. Step expressions are evaluated at the point each
// verdict is pulled.
func (ep *entryPoint) stream(col *catalog.Collection, args []string) VerdictStream {
	return &scriptStream{
		entry:     ep,
		resources: col.Resources(),
		opts:      stepEvalOptions(col, args),
	}
}

type scriptStream struct {
	entry     *entryPoint
	resources []*catalog.Resource
	opts      []catalog.EvalOption
	pos       int
}

func (s *scriptStream) Next() (Verdict, bool, error) {
	if s.pos >= len(s.resources) {
		return Verdict{}, false, nil
	}
	r := s.resources[s.pos]
	s.pos++

	verdict := Verdict{Resource: r}
	for i, step := range s.entry.checks {
		matched, err := stepMatches(r, step.match, s.opts)
		if err != nil {
			return Verdict{}, false, fmt.Errorf("entry point %q step %d: %w", s.entry.name, i+1, err)
		}
		if !matched {
			continue
		}
		verdict.Attempted = true

		out, err := r.Evaluate(catalog.QExact(step.assert), s.opts...)
		if err != nil {
			return Verdict{}, false, fmt.Errorf("entry point %q step %d: %w", s.entry.name, i+1, err)
		}
		if expr.Truthy(out) {
			continue
		}

		problem := fmt.Sprintf("assertion failed: %s", step.assert)
		if step.problem != "" {
			msg, err := r.Evaluate(catalog.QExact(step.problem), s.opts...)
			if err != nil {
				return Verdict{}, false, fmt.Errorf("entry point %q step %d: %w", s.entry.name, i+1, err)
			}
			problem = fmt.Sprintf("%v", msg)
		}
		if verdict.Problem == "" {
			verdict.Problem = problem
		}
	}
	return verdict, true, nil
}

// stepEvalOptions binds the collection's attribute union as null defaults
// and the hook invocation arguments under "args".
func stepEvalOptions(col *catalog.Collection, args []string) []catalog.EvalOption {
	argValues := make([]any, len(args))
	for i, a := range args {
		argValues[i] = a
	}
	return []catalog.EvalOption{
		catalog.WithDefaults(col.Attributes()),
		catalog.WithVars(map[string]any{"args": argValues}),
	}
}

func stepMatches(r *catalog.Resource, match string, opts []catalog.EvalOption) (bool, error) {
	if match == "" {
		return true, nil
	}
	out, err := r.Evaluate(catalog.QExact(match), opts...)
	if err != nil {
		return false, err
	}
	return expr.Truthy(out), nil
}
