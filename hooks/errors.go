// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"errors"
	"fmt"
)

var (
	// ErrScript indicates a hook script that could not be parsed or that
	// violates the step rules (unknown keys, mixed transform and checker
	// steps, steps without an action).
	ErrScript = errors.New("invalid hook script")

	// ErrHookResolution indicates a named entry point missing from a
	// loaded hook script.
	ErrHookResolution = errors.New("hook entry point not found")

	// ErrNoCheckers indicates a check invocation whose final checker list
	// was empty. This is distinct from "all checks passed".
	ErrNoCheckers = errors.New("no checkers to run")

	// ErrCheckerAlignment indicates a checker whose verdict sequence did
	// not line up one-to-one, in order, with the collection. It is always
	// fatal; the report cannot be safely continued past it.
	ErrCheckerAlignment = errors.New("checker output misaligned with collection")
)

// ResolutionError reports a missing entry point, naming the script and
// the entry point that was looked up.
type ResolutionError struct {
	Path  string
	Entry string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("hook script %s has no entry point %q", e.Path, e.Entry)
}

// Is makes ResolutionError match ErrHookResolution.
func (*ResolutionError) Is(target error) bool {
	return target == ErrHookResolution
}

// AlignmentError reports a checker contract violation: at some position
// the checker's verdict named a different resource than the collection
// holds there, or the checker's sequence ran short or long.
type AlignmentError struct {
	// Checker is the offending checker's label; Index its position in
	// the checker list.
	Checker string
	Index   int

	// Position is the collection position being aggregated.
	Position int

	// Want is the resource the collection holds at Position. Got is the
	// resource the checker reported; empty when the checker's sequence
	// was exhausted, and Want is empty when the checker produced extra
	// verdicts past the end of the collection.
	Want string
	Got  string
}

func (e *AlignmentError) Error() string {
	switch {
	case e.Got == "":
		return fmt.Sprintf("checker %d (%s) ran out of verdicts at position %d (expected resource %q)",
			e.Index, e.Checker, e.Position, e.Want)
	case e.Want == "":
		return fmt.Sprintf("checker %d (%s) produced an extra verdict for resource %q past the end of the collection",
			e.Index, e.Checker, e.Got)
	default:
		return fmt.Sprintf("checker %d (%s) reported resource %q at position %d, where the collection holds %q",
			e.Index, e.Checker, e.Got, e.Position, e.Want)
	}
}

// Is makes AlignmentError match ErrCheckerAlignment.
func (*AlignmentError) Is(target error) bool {
	return target == ErrCheckerAlignment
}
