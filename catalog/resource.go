// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/datacat-dev/datacat/expr"
)

// identifierPattern is the rule every attribute name must match.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// resourceBinding is the reserved expression binding holding the whole
// resource as a map.
const resourceBinding = "resource"

// engine is the shared expression engine. It carries no evaluation state,
// only a lazily-built environment cache.
var engine = expr.NewEngine()

// Attr is one ordered attribute of a resource.
type Attr struct {
	Key   string
	Value any
}

// A is shorthand for constructing an Attr.
func A(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Resource is one named, attributed record in a catalog. Attributes keep
// their insertion order; the "name" attribute is always first and the
// "tags" attribute is always present and always a Tags value.
type Resource struct {
	keys  []string
	attrs map[string]any
}

// New constructs a resource with the given name and attributes. The tags
// attribute, if present, is coerced to a validated tag set; an empty set
// is supplied otherwise. Attribute names must be valid identifiers.
func New(name string, attrs ...Attr) (*Resource, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: resource name must not be empty", ErrValidation)
	}
	r := &Resource{attrs: make(map[string]any, len(attrs)+2)}
	r.keys = append(r.keys, "name")
	r.attrs["name"] = name

	var tagsValue any
	for _, attr := range attrs {
		switch attr.Key {
		case "name":
			// The name argument wins; a name attribute is only allowed
			// when it agrees.
			if s, ok := attr.Value.(string); !ok || s != name {
				return nil, fmt.Errorf("%w: conflicting name attribute %v for resource %q",
					ErrValidation, attr.Value, name)
			}
		case "tags":
			tagsValue = attr.Value
		default:
			if !identifierPattern.MatchString(attr.Key) {
				return nil, fmt.Errorf("%w: invalid attribute name %q", ErrValidation, attr.Key)
			}
			if _, dup := r.attrs[attr.Key]; dup {
				return nil, fmt.Errorf("%w: duplicate attribute %q on resource %q",
					ErrValidation, attr.Key, name)
			}
			r.keys = append(r.keys, attr.Key)
			r.attrs[attr.Key] = attr.Value
		}
	}

	tags, err := coerceTags(tagsValue)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", name, err)
	}
	r.keys = append(r.keys[:1], append([]string{"tags"}, r.keys[1:]...)...)
	r.attrs["tags"] = tags
	return r, nil
}

// NewAutoNamed constructs a resource like New, drawing a generated name
// from the sequence when the attributes do not carry one.
func NewAutoNamed(seq *NameSequence, attrs ...Attr) (*Resource, error) {
	for _, attr := range attrs {
		if attr.Key == "name" {
			if s, ok := attr.Value.(string); ok && s != "" {
				rest := make([]Attr, 0, len(attrs)-1)
				for _, a := range attrs {
					if a.Key != "name" {
						rest = append(rest, a)
					}
				}
				return New(s, rest...)
			}
			return nil, fmt.Errorf("%w: name attribute must be a non-empty string", ErrValidation)
		}
	}
	return New(seq.Next(), attrs...)
}

// Name returns the resource's current name.
func (r *Resource) Name() string {
	name, _ := r.attrs["name"].(string)
	return name
}

// Tags returns the resource's tag set.
func (r *Resource) Tags() Tags {
	tags, _ := r.attrs["tags"].(Tags)
	return tags
}

// Keys returns the attribute names in stored order.
func (r *Resource) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value of an attribute and whether it exists.
func (r *Resource) Get(key string) (any, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// Set adds or overwrites an attribute. Setting "tags" coerces and
// validates the value as a tag set; a non-coercible value fails without
// modifying the resource. Setting "name" renames the resource; the
// owning collection picks the rename up on its next lookup.
func (r *Resource) Set(key string, value any) error {
	if !identifierPattern.MatchString(key) {
		return fmt.Errorf("%w: invalid attribute name %q", ErrValidation, key)
	}
	switch key {
	case "name":
		s, ok := value.(string)
		if !ok || s == "" {
			return fmt.Errorf("%w: resource name must be a non-empty string, got %T", ErrValidation, value)
		}
		r.attrs["name"] = s
		return nil
	case "tags":
		tags, err := coerceTags(value)
		if err != nil {
			return fmt.Errorf("resource %q: %w", r.Name(), err)
		}
		r.attrs["tags"] = tags
		return nil
	default:
		if _, exists := r.attrs[key]; !exists {
			r.keys = append(r.keys, key)
		}
		r.attrs[key] = value
		return nil
	}
}

// Delete removes an attribute. The name cannot be deleted; deleting tags
// resets them to the empty set.
func (r *Resource) Delete(key string) error {
	switch key {
	case "name":
		return fmt.Errorf("%w: the name attribute cannot be deleted", ErrValidation)
	case "tags":
		empty, _ := NewTags()
		r.attrs["tags"] = empty
		return nil
	default:
		if _, exists := r.attrs[key]; !exists {
			return nil
		}
		delete(r.attrs, key)
		for i, k := range r.keys {
			if k == key {
				r.keys = append(r.keys[:i], r.keys[i+1:]...)
				break
			}
		}
		return nil
	}
}

// EvalOption configures a single evaluation.
type EvalOption func(*evalOptions)

type evalOptions struct {
	defaults     []string
	vars         map[string]any
	nullFallback bool
}

// WithDefaults binds the given attribute names to null before the
// resource's own attributes are layered on top. Collections use this so
// expressions referencing attributes absent on some resources read null
// instead of failing.
func WithDefaults(names []string) EvalOption {
	return func(o *evalOptions) {
		o.defaults = names
	}
}

// WithVars layers extra read-only bindings into the namespace, below the
// resource's own attributes. Hook dispatch uses this to expose invocation
// arguments to step expressions.
func WithVars(vars map[string]any) EvalOption {
	return func(o *evalOptions) {
		o.vars = vars
	}
}

// WithNullFallback pre-arms the evaluation's fallback with null; any
// failure then yields nil instead of an error.
func WithNullFallback() EvalOption {
	return func(o *evalOptions) {
		o.nullFallback = true
	}
}

// Evaluate runs a query against the resource. Inline functions are
// invoked with the resource; expression strings are evaluated in a
// read-only namespace holding every attribute, the resource under the
// "resource" binding, and the expr package's utility functions.
//
// Failures are reported as an EvaluationError carrying the expression
// text and the resource's name, unless the expression armed a fallback
// via on_error, in which case the fallback is the result.
func (r *Resource) Evaluate(e Expr, opts ...EvalOption) (any, error) {
	var cfg evalOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	if e.fn != nil {
		out, err := e.fn(r)
		if err != nil {
			return nil, newEvaluationError(e.describe(), r.Name(), err)
		}
		return out, nil
	}

	compiled, err := engine.Compile(e.source)
	if err != nil {
		return nil, newEvaluationError(e.source, r.Name(), err)
	}
	return r.evalCompiled(compiled, cfg)
}

// evalCompiled evaluates a pre-compiled expression, used by collection
// queries to compile once and evaluate per resource.
func (r *Resource) evalCompiled(compiled *expr.Compiled, cfg evalOptions) (any, error) {
	var evalOpts []expr.EvalOption
	if cfg.nullFallback {
		evalOpts = append(evalOpts, expr.WithNullFallback())
	}
	out, err := compiled.Evaluate(r.namespace(cfg), evalOpts...)
	if err != nil {
		return nil, newEvaluationError(compiled.Source(), r.Name(), err)
	}
	return out, nil
}

// namespace builds the read-only evaluation namespace for the resource.
// The resource's own attributes shadow extra vars and null defaults.
func (r *Resource) namespace(cfg evalOptions) map[string]any {
	ns := make(map[string]any, len(r.keys)+len(cfg.defaults)+len(cfg.vars)+1)
	for name, v := range cfg.vars {
		ns[name] = v
	}
	for _, name := range cfg.defaults {
		ns[name] = nil
	}
	self := make(map[string]any, len(r.keys))
	for _, key := range r.keys {
		v := exprValue(r.attrs[key])
		ns[key] = v
		self[key] = v
	}
	ns[resourceBinding] = self
	return ns
}

// exprValue converts a stored attribute value into its expression-side
// representation. Tag sets become the expr package's custom value so
// truthy membership lookup works; containers are converted recursively.
func exprValue(v any) any {
	switch t := v.(type) {
	case Tags:
		return expr.NewTagSet(t.Sorted())
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = exprValue(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = exprValue(elem)
		}
		return out
	default:
		return v
	}
}

// PlainForm returns the canonical serialization order: tags first (as a
// sorted string slice), then every other attribute in stored order. The
// name is excluded; it is the resource's key in the enclosing document.
func (r *Resource) PlainForm() []Attr {
	out := make([]Attr, 0, len(r.keys))
	out = append(out, Attr{Key: "tags", Value: r.Tags().Sorted()})
	for _, key := range r.keys {
		if key == "name" || key == "tags" {
			continue
		}
		out = append(out, Attr{Key: key, Value: r.attrs[key]})
	}
	return out
}

// MarshalJSON serializes the resource as a JSON object in PlainForm order.
func (r *Resource) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range r.PlainForm() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(attr.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(attr.Value)
		if err != nil {
			return nil, fmt.Errorf("resource %q: attribute %q: %w", r.Name(), attr.Key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Equal reports structural equality: same name, same attribute names, and
// deeply equal attribute values (tag sets compare as sets).
func (r *Resource) Equal(other *Resource) bool {
	if other == nil || len(r.keys) != len(other.keys) {
		return false
	}
	for key, v := range r.attrs {
		ov, ok := other.attrs[key]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(normalize(v), normalize(ov)) {
			return false
		}
	}
	return true
}

// normalize maps values to a comparable shape: tag sets become sorted
// slices and numbers widen to float64 so JSON round-trips compare equal.
func normalize(v any) any {
	switch t := v.(type) {
	case Tags:
		return t.Sorted()
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = normalize(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = normalize(elem)
		}
		return out
	default:
		return v
	}
}

func (r *Resource) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<Resource %s", r.Name())
	if tags := r.Tags().Sorted(); len(tags) > 0 {
		fmt.Fprintf(&b, " tags=%s", strings.Join(tags, ","))
	}
	b.WriteByte('>')
	return b.String()
}
