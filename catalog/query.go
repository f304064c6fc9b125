// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"regexp"
)

// labelPattern matches the "label: expression" syntax accepted by Q.
// The label must be an identifier immediately followed by a colon, which
// keeps ternaries and map literals from being mistaken for labels.
var labelPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(\S.*)$`)

// Expr is a query against a single resource: either an expression string
// evaluated in the resource's namespace, or an inline Go function invoked
// with the resource. The two forms are interchangeable everywhere a query
// is accepted (Filter, Select, Evaluate).
type Expr struct {
	source string
	label  string
	fn     func(*Resource) (any, error)
}

// Q creates a query from an expression string. An optional label may be
// given with the "label: expression" syntax; unlabeled expressions use
// their own source text as the label.
func Q(source string) Expr {
	if m := labelPattern.FindStringSubmatch(source); m != nil {
		return Expr{source: m[2], label: m[1]}
	}
	return Expr{source: source}
}

// QExact creates a query from an expression string taken verbatim, with
// no label parsing. Hook scripts use this so an expression that happens
// to start with "identifier:" is not mistaken for a labeled query.
func QExact(source string) Expr {
	return Expr{source: source}
}

// QFunc creates a query from an inline function. The query is unlabeled;
// Select assigns a positional label unless one is set with WithLabel.
func QFunc(fn func(*Resource) (any, error)) Expr {
	return Expr{fn: fn}
}

// WithLabel returns a copy of the query with an explicit label.
func (e Expr) WithLabel(label string) Expr {
	e.label = label
	return e
}

// Label returns the query's label: the explicit label if set, the source
// text for unlabeled expression strings, and "" for unlabeled functions.
func (e Expr) Label() string {
	if e.label != "" {
		return e.label
	}
	return e.source
}

// Source returns the expression source text ("" for inline functions).
func (e Expr) Source() string {
	return e.source
}

// IsFunc reports whether the query is an inline function.
func (e Expr) IsFunc() bool {
	return e.fn != nil
}

// describe names the query in diagnostics.
func (e Expr) describe() string {
	if e.fn != nil {
		if e.label != "" {
			return e.label
		}
		return "<inline function>"
	}
	return e.source
}

// OnError selects the per-call recovery policy used by Select.
type OnError int

const (
	// OnErrorRaise propagates the first evaluation failure.
	OnErrorRaise OnError = iota
	// OnErrorSkip drops the entire row for any resource on which any
	// expression fails, and continues with the remaining resources.
	OnErrorSkip
	// OnErrorNull substitutes null for a failing cell and continues.
	OnErrorNull
)

// String returns the policy name as accepted on the command line.
func (o OnError) String() string {
	switch o {
	case OnErrorRaise:
		return "raise"
	case OnErrorSkip:
		return "skip"
	case OnErrorNull:
		return "none"
	default:
		return "unknown"
	}
}

// ParseOnError converts a policy name ("raise", "skip", "none") to OnError.
func ParseOnError(s string) (OnError, error) {
	switch s {
	case "raise":
		return OnErrorRaise, nil
	case "skip":
		return OnErrorSkip, nil
	case "none":
		return OnErrorNull, nil
	default:
		return OnErrorRaise, fmt.Errorf("%w: unknown on-error policy %q (want raise, skip, or none)", ErrValidation, s)
	}
}
