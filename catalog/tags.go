// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// tagPattern is the rule every tag must match.
var tagPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// reservedTagNames are the (lowercased) method names of Tags. Tags may not
// collide with them, so that attribute-style membership testing in
// expressions stays unambiguous.
var reservedTagNames = map[string]struct{}{
	"add":         {},
	"contains":    {},
	"equal":       {},
	"len":         {},
	"marshaljson": {},
	"remove":      {},
	"sorted":      {},
	"string":      {},
	"union":       {},
}

// CheckTag validates a single tag against the tag-name rule.
func CheckTag(tag string) error {
	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("%w: invalid tag %q", ErrValidation, tag)
	}
	if _, reserved := reservedTagNames[strings.ToLower(tag)]; reserved {
		return fmt.Errorf("%w: invalid tag %q (collides with a tag set method)", ErrValidation, tag)
	}
	return nil
}

// Tags is a set of validated string labels carried by every resource.
// The zero value is not usable; construct with NewTags.
type Tags struct {
	elems map[string]struct{}
}

// NewTags creates a tag set, validating every tag.
func NewTags(tags ...string) (Tags, error) {
	elems := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if err := CheckTag(tag); err != nil {
			return Tags{}, err
		}
		elems[tag] = struct{}{}
	}
	return Tags{elems: elems}, nil
}

// MustTags creates a tag set and panics on an invalid tag. Intended for
// fixtures and tests with known-good tags.
func MustTags(tags ...string) Tags {
	t, err := NewTags(tags...)
	if err != nil {
		panic(err)
	}
	return t
}

// Contains reports tag membership. It never fails: unknown strings are
// simply not members.
func (t Tags) Contains(tag string) bool {
	_, present := t.elems[tag]
	return present
}

// Add inserts a tag, validating it first.
func (t Tags) Add(tag string) error {
	if err := CheckTag(tag); err != nil {
		return err
	}
	t.elems[tag] = struct{}{}
	return nil
}

// Remove deletes a tag. Removing an absent tag is a no-op.
func (t Tags) Remove(tag string) {
	delete(t.elems, tag)
}

// Sorted returns the tags as a sorted slice.
func (t Tags) Sorted() []string {
	out := make([]string, 0, len(t.elems))
	for tag := range t.elems {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of tags in the set.
func (t Tags) Len() int {
	return len(t.elems)
}

// Union returns a new tag set holding every tag from both sets.
func (t Tags) Union(other Tags) Tags {
	elems := make(map[string]struct{}, len(t.elems)+len(other.elems))
	for tag := range t.elems {
		elems[tag] = struct{}{}
	}
	for tag := range other.elems {
		elems[tag] = struct{}{}
	}
	return Tags{elems: elems}
}

// Equal reports whether both sets hold exactly the same tags.
func (t Tags) Equal(other Tags) bool {
	if len(t.elems) != len(other.elems) {
		return false
	}
	for tag := range t.elems {
		if _, present := other.elems[tag]; !present {
			return false
		}
	}
	return true
}

// MarshalJSON serializes the set as a sorted JSON array of strings.
func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Sorted())
}

func (t Tags) String() string {
	return "<Tags: " + strings.Join(t.Sorted(), " ") + ">"
}

// coerceTags converts a raw attribute value into a validated tag set.
// Accepted shapes: nil, Tags, []string, and []any holding strings.
func coerceTags(value any) (Tags, error) {
	switch v := value.(type) {
	case nil:
		return NewTags()
	case Tags:
		// Already validated at construction.
		return v, nil
	case []string:
		return NewTags(v...)
	case []any:
		tags := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return Tags{}, fmt.Errorf("%w: tags must be strings, got %T", ErrValidation, elem)
			}
			tags = append(tags, s)
		}
		return NewTags(tags...)
	default:
		return Tags{}, fmt.Errorf("%w: tags must be a list of strings, got %T", ErrValidation, value)
	}
}
