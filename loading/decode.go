// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package loading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/datacat-dev/datacat/catalog"
)

// decode parses a collection document into resources, preserving both
// resource order and per-resource attribute order.
func decode(data []byte, format Format, filename string) ([]*catalog.Resource, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data, filename)
	case FormatYAML:
		return decodeYAML(data, filename)
	default:
		return nil, fmt.Errorf("%w: unsupported format for %s", ErrBadDocument, filename)
	}
}

// decodeJSON walks the document with a token decoder so object key order
// survives; encoding/json's map decoding would lose it.
func decodeJSON(data []byte, filename string) ([]*catalog.Resource, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("%w: %s: top level must be an object of resources: %v", ErrBadDocument, filename, err)
	}

	var resources []*catalog.Resource
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadDocument, filename, err)
		}
		name := tok.(string)

		attrs, err := decodeAttrs(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: resource %q: %v", ErrBadDocument, filename, name, err)
		}
		if strings.HasPrefix(name, "#") {
			continue
		}

		r, err := catalog.New(name, attrs...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		resources = append(resources, r)
	}
	// Consume the closing brace and reject trailing content.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadDocument, filename, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: %s: trailing content after the collection object", ErrBadDocument, filename)
	}
	return resources, nil
}

// decodeAttrs reads one resource's attribute object, keeping key order.
func decodeAttrs(dec *json.Decoder) ([]catalog.Attr, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("resource body must be an object: %w", err)
	}
	var attrs []catalog.Attr
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := tok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
		if strings.HasPrefix(key, "#") {
			continue
		}
		attrs = append(attrs, catalog.A(key, stripComments(value)))
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return attrs, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// decodeYAML parses a YAML collection document through yaml.Node so
// mapping order is preserved.
func decodeYAML(data []byte, filename string) ([]*catalog.Resource, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadDocument, filename, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: top level must be a mapping of resources", ErrBadDocument, filename)
	}

	var resources []*catalog.Resource
	for i := 0; i < len(root.Content); i += 2 {
		key, body := root.Content[i], root.Content[i+1]
		if strings.HasPrefix(key.Value, "#") {
			continue
		}
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %s: resource %q body must be a mapping", ErrBadDocument, filename, key.Value)
		}
		var attrs []catalog.Attr
		for j := 0; j < len(body.Content); j += 2 {
			attrKey, attrValue := body.Content[j], body.Content[j+1]
			if strings.HasPrefix(attrKey.Value, "#") {
				continue
			}
			var value any
			if err := attrValue.Decode(&value); err != nil {
				return nil, fmt.Errorf("%w: %s: resource %q attribute %q: %v",
					ErrBadDocument, filename, key.Value, attrKey.Value, err)
			}
			attrs = append(attrs, catalog.A(attrKey.Value, stripComments(value)))
		}
		r, err := catalog.New(key.Value, attrs...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		resources = append(resources, r)
	}
	return resources, nil
}

// stripComments removes "#"-prefixed keys from nested mappings.
func stripComments(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			if strings.HasPrefix(k, "#") {
				continue
			}
			out[k] = stripComments(elem)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = stripComments(elem)
		}
		return out
	default:
		return v
	}
}

// sniffFormat guesses the document format from its content: a document
// whose first non-whitespace byte is '{' is JSON, anything else YAML.
func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}
