// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package hooks dispatches user-supplied code against a collection.

Two hook kinds share one mechanism: transforms mutate resources in place
and return nothing, checkers report a per-resource verdict without
mutating. A hook is referenced either as an inline Go function or as the
path of an external YAML hook script whose top-level keys are entry
points.

# Hook scripts

Each entry point is a list of steps. Transform steps carry an optional
"match" guard plus any of "set" (attribute to expression), "rename"
(name expression), "tag" and "untag" (tag lists). Checker steps carry an
optional "match" (controls whether the check was attempted), a required
"assert" expression and an optional "problem" message expression:

	transform:
	  - match: tags.gamma
	    set:
	      audited: "true"
	    tag: [reviewed]
	check:
	  - match: tags.gamma
	    assert: size(info) > 0
	    problem: name + " is missing its info attribute"

An entry point mixing transform and checker steps is rejected when the
script is parsed.

# Checking

Each checker produces a VerdictStream: a lazy, finite sequence with
exactly one verdict per collection resource, in collection order. Check
aggregates the streams of every checker into a Report whose Next method
pulls one verdict per checker per resource in lockstep, failing with a
CheckerAlignmentError as soon as any checker skips, reorders, or runs
short or long.

Dispatching an external hook switches the process working directory to
the script's directory for the duration of the call. That switch is
process-global state, so dispatch of external hooks is serialized.
*/
package hooks
