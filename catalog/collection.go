// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/datacat-dev/datacat/expr"
)

// NoFile is the provenance of a collection not loaded from a file.
const NoFile = "<no file>"

// Collection is an ordered sequence of resources with names unique at any
// point in time, plus a provenance string. Iteration order is insertion
// order. Filtered sub-collections share resource instances with their
// parent; they are views, not copies.
type Collection struct {
	resources []*Resource
	index     map[string]*Resource
	filename  string
}

// NewCollection constructs a collection from a list of resources. Names
// must be unique at construction time.
func NewCollection(resources []*Resource, filename string) (*Collection, error) {
	if filename == "" {
		filename = NoFile
	}
	c := &Collection{
		resources: append([]*Resource(nil), resources...),
		filename:  filename,
	}
	if err := c.reindex(); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of resources in the collection.
func (c *Collection) Len() int {
	return len(c.resources)
}

// At returns the resource at position i, in insertion order.
func (c *Collection) At(i int) *Resource {
	return c.resources[i]
}

// Resources returns the resources in insertion order. The slice is a
// copy; the resources are shared.
func (c *Collection) Resources() []*Resource {
	out := make([]*Resource, len(c.resources))
	copy(out, c.resources)
	return out
}

// Provenance returns the source filename, or "<no file>".
func (c *Collection) Provenance() string {
	return c.filename
}

// Names returns the current names in insertion order.
func (c *Collection) Names() []string {
	out := make([]string, len(c.resources))
	for i, r := range c.resources {
		out[i] = r.Name()
	}
	return out
}

// Get looks a resource up by its current name. Hooks may rename resources
// in place at any time, so a lookup that misses, or hits an index entry
// whose resource no longer carries that name, rebuilds the index first.
// A rename that introduced a duplicate name surfaces here as a
// validation error.
func (c *Collection) Get(name string) (*Resource, error) {
	if r, ok := c.index[name]; ok && r.Name() == name {
		return r, nil
	}
	if err := c.reindex(); err != nil {
		return nil, err
	}
	if r, ok := c.index[name]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrNotFound, name, c.filename)
}

// reindex rebuilds the name index from the resources' current names.
func (c *Collection) reindex() error {
	index := make(map[string]*Resource, len(c.resources))
	for _, r := range c.resources {
		name := r.Name()
		if name == "" {
			return fmt.Errorf("%w: resource with empty name in %s", ErrValidation, c.filename)
		}
		if _, dup := index[name]; dup {
			return fmt.Errorf("%w: duplicate resource name %q in %s", ErrValidation, name, c.filename)
		}
		index[name] = r
	}
	c.index = index
	return nil
}

// Tags returns the union of every resource's tag set.
func (c *Collection) Tags() Tags {
	union, _ := NewTags()
	for _, r := range c.resources {
		union = union.Union(r.Tags())
	}
	return union
}

// Attributes returns the union of attribute names appearing on any
// resource, in first-seen order. Collection queries bind these names to
// null on resources that lack them, so heterogeneous collections can be
// filtered and selected on attributes that only some resources carry.
func (c *Collection) Attributes() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, r := range c.resources {
		for _, key := range r.keys {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				names = append(names, key)
			}
		}
	}
	return names
}

// Filter evaluates the query against every resource in order and returns
// a new collection holding, in original relative order, exactly the
// resources for which the result was truthy. The returned collection
// shares resource instances with the receiver. Evaluation failures
// propagate unless the expression armed a fallback.
func (c *Collection) Filter(e Expr) (*Collection, error) {
	cfg := evalOptions{defaults: c.Attributes()}

	var compiled *expr.Compiled
	if e.fn == nil {
		var err error
		compiled, err = engine.Compile(e.source)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
	}

	var matched []*Resource
	for _, r := range c.resources {
		var (
			out any
			err error
		)
		if e.fn != nil {
			out, err = e.fn(r)
			if err != nil {
				err = newEvaluationError(e.describe(), r.Name(), err)
			}
		} else {
			out, err = r.evalCompiled(compiled, cfg)
		}
		if err != nil {
			return nil, err
		}
		if expr.Truthy(out) {
			matched = append(matched, r)
		}
	}
	return NewCollection(matched, c.filename)
}

// Select evaluates each query against every resource, producing a
// columnar table: one row per resource in collection order, one column
// per query in argument order, keyed by label. The onError policy
// governs evaluation failures: OnErrorRaise propagates the first one,
// OnErrorSkip drops the whole row for a resource on which any query
// fails, and OnErrorNull fills the failing cell with nil (pre-arming the
// expression fallback with null).
func (c *Collection) Select(onError OnError, exprs ...Expr) (*Table, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("%w: select requires at least one expression", ErrValidation)
	}

	labels := make([]string, len(exprs))
	compiled := make([]*expr.Compiled, len(exprs))
	used := make(map[string]int, len(exprs))
	for i, e := range exprs {
		labels[i] = e.Label()
		if labels[i] == "" {
			labels[i] = fmt.Sprintf("column-%d", i+1)
		}
		if n := used[labels[i]]; n > 0 {
			used[labels[i]] = n + 1
			labels[i] = fmt.Sprintf("%s-%d", labels[i], n+1)
		}
		used[labels[i]]++
		if e.fn == nil {
			ce, err := engine.Compile(e.source)
			if err != nil {
				return nil, fmt.Errorf("select %q: %w", labels[i], err)
			}
			compiled[i] = ce
		}
	}

	table := newTable(labels)
	cfg := evalOptions{
		defaults:     c.Attributes(),
		nullFallback: onError == OnErrorNull,
	}

	for _, r := range c.resources {
		row := make([]any, len(exprs))
		skip := false
		for i, e := range exprs {
			var (
				out any
				err error
			)
			if e.fn != nil {
				out, err = e.fn(r)
				if err != nil {
					err = newEvaluationError(e.describe(), r.Name(), err)
				}
			} else {
				out, err = r.evalCompiled(compiled[i], cfg)
			}
			if err != nil {
				switch onError {
				case OnErrorRaise:
					return nil, err
				case OnErrorSkip:
					skip = true
				case OnErrorNull:
					// Inline functions bypass the expression fallback;
					// substitute the null directly.
					out = nil
				}
			}
			if skip {
				break
			}
			row[i] = out
		}
		if !skip {
			table.appendRow(row)
		}
	}
	return table, nil
}

// Singleton returns the collection's sole resource, failing when the
// collection holds zero resources or more than one.
func (c *Collection) Singleton() (*Resource, error) {
	if len(c.resources) != 1 {
		return nil, fmt.Errorf("%w: expected exactly 1 resource, not %d", ErrCardinality, len(c.resources))
	}
	return c.resources[0], nil
}

// First returns the first resource, failing only on an empty collection.
func (c *Collection) First() (*Resource, error) {
	if len(c.resources) == 0 {
		return nil, fmt.Errorf("%w: expected at least 1 resource", ErrCardinality)
	}
	return c.resources[0], nil
}

// MarshalJSON serializes the collection as a JSON object mapping resource
// names to their PlainForm, preserving collection order.
func (c *Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range c.resources {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Name())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := r.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Equal reports structural equality: the same name set with structurally
// equal resources. Provenance is not compared.
func (c *Collection) Equal(other *Collection) bool {
	if other == nil || len(c.resources) != len(other.resources) {
		return false
	}
	for _, r := range c.resources {
		or, err := other.Get(r.Name())
		if err != nil || !r.Equal(or) {
			return false
		}
	}
	return true
}

func (c *Collection) String() string {
	return fmt.Sprintf("<Collection: %d resources from %s>", len(c.resources), c.filename)
}
