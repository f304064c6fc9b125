// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package expr provides the embedded expression engine used to query datacat
resources. Expressions are written in CEL and evaluated against a dynamic
per-resource namespace: every attribute of a resource is directly
referenceable by name, tag sets support truthy membership selection
(tags.foo is false, never an error, when the tag is absent), and a small
set of utility functions (basename, dirname, ext, to_json, plus the CEL
standard library) is always available.

Expressions are parsed but deliberately not type-checked: the set of
identifiers in scope varies from resource to resource, so unknown
identifiers surface as evaluation errors rather than compile errors.

# Fallback values

The on_error function arms a fallback for the current evaluation:

	on_error(-17) || a_b

records -17 and returns false, so evaluation proceeds to a_b. If the rest
of the expression fails (for example because a_b is not an attribute of
the resource), the recorded fallback becomes the evaluation result instead
of an error. If evaluation succeeds the recorded value is discarded.

# Concurrency

An Engine and its compiled expressions may be shared; each call to
Evaluate builds an isolated program so fallback state is never shared
between evaluations.
*/
package expr
