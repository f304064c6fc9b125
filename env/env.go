// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"os"
	"strings"
)

// Environment variables consulted by loading and hook dispatch.
const (
	// CollectionVar names the default collection path used when a load
	// call does not name one explicitly.
	CollectionVar = "DATACAT_COLLECTION"

	// TransformVar holds a colon-separated list of transform hooks
	// applied to every loaded collection unless disabled.
	TransformVar = "DATACAT_TRANSFORM"

	// CheckersVar holds a colon-separated list of checker hooks run
	// when a check is invoked without explicit checkers.
	CheckersVar = "DATACAT_CHECKERS"
)

// Reader defines an interface for environment variable access
type Reader interface {
	Getenv(key string) string
}

// OSReader implements Reader using the standard os package
type OSReader struct{}

// Getenv returns the value of the environment variable named by the key
func (*OSReader) Getenv(key string) string {
	return os.Getenv(key)
}

// MapReader implements Reader from a fixed map, for tests and for
// callers that want hermetic behavior regardless of the process
// environment.
type MapReader map[string]string

// Getenv returns the mapped value, or "" when the key is absent.
func (m MapReader) Getenv(key string) string {
	return m[key]
}

// SplitList splits a colon-separated hook list as read from TransformVar
// or CheckersVar. Empty elements are dropped, so a trailing or doubled
// colon is harmless.
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, elem := range strings.Split(value, ":") {
		if elem != "" {
			out = append(out, elem)
		}
	}
	return out
}
