// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations.
var (
	// ErrValidation is returned for invalid tags, attribute names, or
	// duplicate resource names.
	ErrValidation = errors.New("validation failed")

	// ErrEvaluation is returned when an expression fails to evaluate
	// against a resource and no fallback was armed.
	ErrEvaluation = errors.New("expression evaluation failed")

	// ErrCardinality is returned by Singleton and First when the
	// collection does not hold the expected number of resources.
	ErrCardinality = errors.New("unexpected resource count")

	// ErrNotFound is returned when a resource name is not present in a
	// collection.
	ErrNotFound = errors.New("resource not found")
)

// EvaluationError reports an expression evaluation failure, carrying the
// expression text and the name of the resource it was evaluated against.
type EvaluationError struct {
	// Expression is the source text (or label, for inline functions) of
	// the failed expression.
	Expression string
	// Resource is the name of the resource the expression was evaluated
	// against.
	Resource string

	original error
}

// Error implements the error interface.
func (ee *EvaluationError) Error() string {
	return fmt.Sprintf("error evaluating %q on resource %q: %v",
		ee.Expression, ee.Resource, ee.original)
}

// Unwrap returns the underlying evaluation error.
func (ee *EvaluationError) Unwrap() error {
	return ee.original
}

// Is reports ErrEvaluation so callers can match with errors.Is.
func (*EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

func newEvaluationError(expression, resource string, err error) error {
	return &EvaluationError{
		Expression: expression,
		Resource:   resource,
		original:   err,
	}
}
