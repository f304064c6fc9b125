// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package loading instantiates collections from files, URLs, or raw bytes.

A collection document is a JSON or YAML mapping of resource name to
attribute mapping, in document order:

	{
	  "dataset1": {"tags": ["alpha", "beta"], "path": "/data/1.csv"},
	  "dataset2": {"tags": ["gamma"], "path": "/data/2.bam"}
	}

Keys starting with "#" are comments and are dropped at every level.

Load accepts a file path, "-" for stdin, or a file://, http:// or
https:// URL. The URL fragment is a query string of operations applied
in order after the document is decoded:

	catalog.json#filter=tags.gamma&transform=/hooks/normalize.yaml

Valid fragment keys are filter (an expression), transform (a hook script
path), format ("json" or "yaml"), and environment_transforms ("true" or
"false"). Transforms listed in the DATACAT_TRANSFORM environment
variable run last, unless disabled by the fragment or an option.
*/
package loading
