// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package expr

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// TagSetType is the CEL runtime type of a tag set value.
var TagSetType = types.NewObjectType("datacat.TagSet",
	traits.ContainerType|traits.IndexerType|traits.IterableType|traits.SizerType)

// TagSet is a CEL value representing a resource's tag set. Selecting a tag
// as an attribute (tags.foo) or indexing (tags["foo"]) yields a boolean
// membership test that is false, never an error, for absent tags. The value
// also supports "foo" in tags, iteration, and size().
type TagSet struct {
	elems  map[string]struct{}
	sorted []string
}

var (
	_ ref.Val       = (*TagSet)(nil)
	_ traits.Mapper = (*TagSet)(nil)
)

// NewTagSet creates a TagSet value from a list of tag strings.
func NewTagSet(tags []string) *TagSet {
	elems := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		elems[t] = struct{}{}
	}
	sorted := make([]string, 0, len(elems))
	for t := range elems {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)
	return &TagSet{elems: elems, sorted: sorted}
}

// Contains implements traits.Container: "foo" in tags.
func (ts *TagSet) Contains(value ref.Val) ref.Val {
	s, ok := value.Value().(string)
	if !ok {
		return types.MaybeNoSuchOverloadErr(value)
	}
	_, present := ts.elems[s]
	return types.Bool(present)
}

// Get implements traits.Indexer: tags["foo"] is a membership test.
func (ts *TagSet) Get(index ref.Val) ref.Val {
	v, found := ts.Find(index)
	if !found {
		return v
	}
	return v
}

// Find implements traits.Mapper. Every string key "exists" with a boolean
// membership value, which is what makes tags.foo truthy lookup total.
func (ts *TagSet) Find(key ref.Val) (ref.Val, bool) {
	s, ok := key.Value().(string)
	if !ok {
		return types.MaybeNoSuchOverloadErr(key), false
	}
	_, present := ts.elems[s]
	return types.Bool(present), true
}

// Iterator implements traits.Iterable, yielding tags in sorted order.
func (ts *TagSet) Iterator() traits.Iterator {
	return &tagIterator{tags: ts.sorted}
}

// Size implements traits.Sizer.
func (ts *TagSet) Size() ref.Val {
	return types.Int(len(ts.sorted))
}

// ConvertToNative implements ref.Val.
func (ts *TagSet) ConvertToNative(typeDesc reflect.Type) (any, error) {
	switch typeDesc.Kind() {
	case reflect.Slice:
		if typeDesc.Elem().Kind() == reflect.String {
			return ts.List(), nil
		}
		if typeDesc.Elem().Kind() == reflect.Interface {
			out := make([]any, len(ts.sorted))
			for i, t := range ts.sorted {
				out[i] = t
			}
			return out, nil
		}
	case reflect.Interface:
		return ts.List(), nil
	}
	return nil, fmt.Errorf("unsupported native conversion from tag set to %v", typeDesc)
}

// ConvertToType implements ref.Val.
func (ts *TagSet) ConvertToType(typeVal ref.Type) ref.Val {
	switch typeVal {
	case types.ListType:
		return types.DefaultTypeAdapter.NativeToValue(ts.List())
	case types.StringType:
		return types.String(strings.Join(ts.sorted, " "))
	case types.TypeType:
		return TagSetType
	}
	return types.NewErr("type conversion error from %q to %q", TagSetType.TypeName(), typeVal.TypeName())
}

// Equal implements ref.Val: two tag sets are equal when they hold the same tags.
func (ts *TagSet) Equal(other ref.Val) ref.Val {
	o, ok := other.(*TagSet)
	if !ok {
		return types.False
	}
	if len(ts.elems) != len(o.elems) {
		return types.False
	}
	for t := range ts.elems {
		if _, present := o.elems[t]; !present {
			return types.False
		}
	}
	return types.True
}

// Type implements ref.Val.
func (*TagSet) Type() ref.Type {
	return TagSetType
}

// Value implements ref.Val, returning the tags as a sorted string slice.
func (ts *TagSet) Value() any {
	return ts.List()
}

// List returns the tags as a sorted string slice copy.
func (ts *TagSet) List() []string {
	out := make([]string, len(ts.sorted))
	copy(out, ts.sorted)
	return out
}

func (ts *TagSet) String() string {
	return "<TagSet: " + strings.Join(ts.sorted, " ") + ">"
}

// tagIterator iterates a TagSet's tags in sorted order.
type tagIterator struct {
	tags []string
	pos  int
}

var _ traits.Iterator = (*tagIterator)(nil)

func (it *tagIterator) HasNext() ref.Val {
	return types.Bool(it.pos < len(it.tags))
}

func (it *tagIterator) Next() ref.Val {
	if it.pos >= len(it.tags) {
		return types.NewErr("iterator exhausted")
	}
	tag := it.tags[it.pos]
	it.pos++
	return types.String(tag)
}

func (*tagIterator) ConvertToNative(typeDesc reflect.Type) (any, error) {
	return nil, fmt.Errorf("unsupported native conversion from tag iterator to %v", typeDesc)
}

func (it *tagIterator) ConvertToType(typeVal ref.Type) ref.Val {
	return types.NewErr("type conversion error from tag iterator to %q", typeVal.TypeName())
}

func (it *tagIterator) Equal(ref.Val) ref.Val {
	return types.False
}

func (*tagIterator) Type() ref.Type {
	return TagSetType
}

func (it *tagIterator) Value() any {
	return it.tags[it.pos:]
}
