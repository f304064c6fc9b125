// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package loading

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/datacat-dev/datacat/env"
)

// CatalogPath returns the default catalog location within the given
// config home directory. This is the injectable, testable form; for the
// standard XDG location use DefaultPath.
func CatalogPath(configHome string) string {
	return filepath.Join(configHome, "datacat", "catalog.json")
}

// DefaultPath returns the collection path used when a load call does not
// name one: the DATACAT_COLLECTION environment variable when set,
// otherwise the catalog under the XDG config home.
func DefaultPath(reader env.Reader) string {
	if path := reader.Getenv(env.CollectionVar); path != "" {
		return path
	}
	return CatalogPath(xdg.ConfigHome)
}
