// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package catalog contains the core datacat data model: resources, tag sets,
and collections.

A Resource is a named record with an ordered set of attributes and a
validated tag set. A Collection is an ordered, name-unique sequence of
resources with a provenance string, supporting expression-based queries:

	rc, _ := catalog.NewCollection(resources, "catalog.json")
	matched, _ := rc.Filter(catalog.Q(`tags.gamma && tags.sigma`))
	table, _ := rc.Select(catalog.OnErrorRaise,
		catalog.Q("name"),
		catalog.Q(`file: basename(path)`),
	)

Expressions are evaluated per resource in a read-only namespace holding
every attribute of that resource, the resource itself under the reserved
"resource" binding, and the utility functions provided by the expr
package. Attributes that exist on some resources in a collection but not
others are bound to null rather than left undefined, so collection-level
queries never fail with a name-not-found error for known attribute names.

Resources are mutable: hooks may add, remove, or overwrite attributes,
including the name itself. Collections tolerate in-place renames by
rebuilding their name index when a lookup misses or hits a stale entry.
Filtered sub-collections share resource instances with their parent, so
mutations are visible through every view.
*/
package catalog
