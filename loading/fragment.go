// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package loading

import (
	"fmt"
	"net/url"
	"strings"
)

// operation is one fragment-specified step, applied in fragment order.
type operation struct {
	kind  string // "filter" or "transform"
	value string
}

// fragmentSettings is the outcome of parsing a URL fragment: ordered
// filter/transform operations plus format and environment-transform
// settings, which explicit options override.
type fragmentSettings struct {
	operations    []operation
	format        Format
	envTransforms *bool
}

// parseFragment parses a URL fragment as a strict query string. Pair
// order is preserved because operations apply in order; a leading "&" is
// ignored; a pair without "=" or an unknown key is an error.
func parseFragment(fragment string) (*fragmentSettings, error) {
	settings := &fragmentSettings{}
	trimmed := strings.TrimPrefix(fragment, "&")
	if trimmed == "" {
		return settings, nil
	}

	for _, pair := range strings.Split(trimmed, "&") {
		key, rawValue, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: couldn't parse fragment %q: bad field %q", ErrBadSource, fragment, pair)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: couldn't parse fragment %q: %v", ErrBadSource, fragment, err)
		}

		switch strings.ToLower(key) {
		case "filter", "transform":
			settings.operations = append(settings.operations, operation{kind: strings.ToLower(key), value: value})
		case "format":
			format, err := ParseFormat(value)
			if err != nil {
				return nil, fmt.Errorf("fragment %q: %w", fragment, err)
			}
			if settings.format == FormatUnknown {
				settings.format = format
			}
		case "environment_transforms":
			if settings.envTransforms != nil {
				continue
			}
			switch strings.ToLower(value) {
			case "true":
				settings.envTransforms = boolPtr(true)
			case "false":
				settings.envTransforms = boolPtr(false)
			default:
				return nil, fmt.Errorf("%w: expected environment_transforms to be \"true\" or \"false\", not %q",
					ErrBadSource, value)
			}
		default:
			return nil, fmt.Errorf("%w: unsupported fragment operation %q", ErrBadSource, key)
		}
	}
	return settings, nil
}

func boolPtr(b bool) *bool {
	return &b
}
