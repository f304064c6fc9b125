// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package loading

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/datacat-dev/datacat/catalog"
	"github.com/datacat-dev/datacat/env"
	"github.com/datacat-dev/datacat/hooks"
	"github.com/datacat-dev/datacat/logger"
)

var (
	// ErrBadSource indicates a source string that could not be
	// interpreted: an unparsable URL or fragment, an unsupported scheme,
	// or a failed fetch.
	ErrBadSource = errors.New("unusable collection source")

	// ErrBadDocument indicates document content that is not a valid
	// collection: wrong top-level shape, malformed JSON or YAML, or a
	// resource that fails validation.
	ErrBadDocument = errors.New("invalid collection document")
)

// Format identifies a collection document format.
type Format int

const (
	// FormatUnknown means the format is decided by the URL fragment, the
	// filename extension, or a content sniff, in that order.
	FormatUnknown Format = iota
	// FormatJSON is a JSON object of resource name to attribute object.
	FormatJSON
	// FormatYAML is a YAML mapping of resource name to attribute mapping.
	FormatYAML
)

// ParseFormat converts a format name as written in URL fragments and CLI
// flags.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: unsupported format %q (want json or yaml)", ErrBadSource, s)
	}
}

// Option configures a Load or Loads call.
type Option func(*options)

type options struct {
	format        Format
	filters       []catalog.Expr
	transforms    []hooks.Ref
	envTransforms *bool
	validate      bool
	reader        env.Reader
	stdin         io.Reader
	client        *http.Client
}

// WithFormat overrides format detection, including any format set in the
// URL fragment.
func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithFilters appends filters applied, in order, after any fragment
// operations.
func WithFilters(filters ...catalog.Expr) Option {
	return func(o *options) { o.filters = append(o.filters, filters...) }
}

// WithTransforms appends transforms applied, in order, after any
// fragment operations and option filters.
func WithTransforms(refs ...hooks.Ref) Option {
	return func(o *options) { o.transforms = append(o.transforms, refs...) }
}

// WithEnvironmentTransforms overrides whether the DATACAT_TRANSFORM list
// runs. It wins over the fragment setting; the default is true.
func WithEnvironmentTransforms(run bool) Option {
	return func(o *options) { o.envTransforms = boolPtr(run) }
}

// WithSchemaValidation validates JSON documents against the embedded
// collection schema before decoding.
func WithSchemaValidation() Option {
	return func(o *options) { o.validate = true }
}

// WithEnv supplies the environment reader consulted for environment
// transforms. The default reads the process environment.
func WithEnv(reader env.Reader) Option {
	return func(o *options) { o.reader = reader }
}

// WithStdin supplies the reader behind the "-" source. The default is
// os.Stdin.
func WithStdin(r io.Reader) Option {
	return func(o *options) { o.stdin = r }
}

// WithHTTPClient supplies the client used for http(s) sources.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

func newOptions(opts []Option) *options {
	o := &options{reader: &env.OSReader{}, stdin: os.Stdin, client: http.DefaultClient}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load reads a collection from a file path, "-" for stdin, or a file://,
// http:// or https:// URL, applies the fragment operations in order,
// then the option filters and transforms, and finally the environment
// transforms unless disabled.
func Load(source string, opts ...Option) (*catalog.Collection, error) {
	o := newOptions(opts)

	parsed, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadSource, source, err)
	}

	settings, err := parseFragment(parsed.EscapedFragment())
	if err != nil {
		return nil, err
	}

	format := o.format
	if format == FormatUnknown {
		format = settings.format
	}
	if format == FormatUnknown {
		format = formatFromExtension(parsed.Path)
	}

	data, filename, err := fetch(parsed, o)
	if err != nil {
		return nil, err
	}

	rc, err := loads(data, filename, format, o)
	if err != nil {
		return nil, err
	}

	for _, op := range settings.operations {
		switch op.kind {
		case "filter":
			rc, err = rc.Filter(catalog.Q(op.value))
		case "transform":
			err = hooks.Transform(rc, hooks.External(op.value))
		}
		if err != nil {
			return nil, fmt.Errorf("fragment %s %q: %w", op.kind, op.value, err)
		}
	}

	for _, filter := range o.filters {
		if rc, err = rc.Filter(filter); err != nil {
			return nil, err
		}
	}
	for _, transform := range o.transforms {
		if err := hooks.Transform(rc, transform); err != nil {
			return nil, err
		}
	}

	envTransforms := settings.envTransforms
	if o.envTransforms != nil {
		envTransforms = o.envTransforms
	}
	if envTransforms == nil || *envTransforms {
		if err := hooks.TransformFromEnvironment(rc, o.reader); err != nil {
			return nil, err
		}
	}

	logger.Debugw("loaded collection", "source", source, "resources", rc.Len())
	return rc, nil
}

// Loads parses a collection from raw bytes. Filters, transforms, and
// environment transforms given as options are applied the same way Load
// applies them; there is no fragment.
func Loads(data []byte, filename string, opts ...Option) (*catalog.Collection, error) {
	o := newOptions(opts)

	rc, err := loads(data, filename, o.format, o)
	if err != nil {
		return nil, err
	}
	for _, filter := range o.filters {
		if rc, err = rc.Filter(filter); err != nil {
			return nil, err
		}
	}
	for _, transform := range o.transforms {
		if err := hooks.Transform(rc, transform); err != nil {
			return nil, err
		}
	}
	if o.envTransforms == nil || *o.envTransforms {
		if err := hooks.TransformFromEnvironment(rc, o.reader); err != nil {
			return nil, err
		}
	}
	return rc, nil
}

func loads(data []byte, filename string, format Format, o *options) (*catalog.Collection, error) {
	if format == FormatUnknown {
		format = sniffFormat(data)
	}
	if o.validate && format == FormatJSON {
		if err := ValidateDocument(data); err != nil {
			return nil, fmt.Errorf("%s: %w", displayName(filename), err)
		}
	}
	resources, err := decode(data, format, displayName(filename))
	if err != nil {
		return nil, err
	}
	return catalog.NewCollection(resources, filename)
}

func displayName(filename string) string {
	if filename == "" {
		return catalog.NoFile
	}
	return filename
}

// fetch reads the source's bytes. Local paths are made absolute so the
// provenance is stable regardless of the working directory.
func fetch(parsed *url.URL, o *options) (data []byte, filename string, err error) {
	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "", "file":
		if parsed.Path == "-" {
			data, err := io.ReadAll(o.stdin)
			return data, "", err
		}
		abs, err := filepath.Abs(parsed.Path)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %q: %v", ErrBadSource, parsed.Path, err)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, "", err
		}
		return data, abs, nil
	case "http", "https":
		withoutFragment := *parsed
		withoutFragment.Fragment = ""
		target := withoutFragment.String()

		resp, err := o.client.Get(target)
		if err != nil {
			return nil, "", fmt.Errorf("%w: fetching %s: %v", ErrBadSource, target, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("%w: fetching %s: %s", ErrBadSource, target, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", fmt.Errorf("%w: fetching %s: %v", ErrBadSource, target, err)
		}
		return data, target, nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported scheme %q", ErrBadSource, parsed.Scheme)
	}
}

func formatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}
