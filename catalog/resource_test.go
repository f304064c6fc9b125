// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacat-dev/datacat/catalog"
)

func newResource(t *testing.T, name string, attrs ...catalog.Attr) *catalog.Resource {
	t.Helper()
	r, err := catalog.New(name, attrs...)
	require.NoError(t, err)
	return r
}

func TestNew_CoercesTags(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1",
		catalog.A("path", "/path/to/file1.csv"),
		catalog.A("tags", []any{"alpha", "beta"}),
	)

	assert.Equal(t, "dataset1", r.Name())
	assert.True(t, r.Tags().Contains("alpha"))
	assert.False(t, r.Tags().Contains("gamma"))
}

func TestNew_DefaultsToEmptyTags(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1")
	assert.Equal(t, 0, r.Tags().Len())
	assert.Equal(t, []string{"name", "tags"}, r.Keys())
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rname string
		attrs []catalog.Attr
	}{
		{
			name:  "empty name",
			rname: "",
		},
		{
			name:  "invalid tag",
			rname: "r",
			attrs: []catalog.Attr{catalog.A("tags", []string{"not a tag"})},
		},
		{
			name:  "non-coercible tags",
			rname: "r",
			attrs: []catalog.Attr{catalog.A("tags", 42)},
		},
		{
			name:  "invalid attribute name",
			rname: "r",
			attrs: []catalog.Attr{catalog.A("not-an-identifier", 1)},
		},
		{
			name:  "duplicate attribute",
			rname: "r",
			attrs: []catalog.Attr{catalog.A("x", 1), catalog.A("x", 2)},
		},
		{
			name:  "conflicting name attribute",
			rname: "r",
			attrs: []catalog.Attr{catalog.A("name", "other")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := catalog.New(tt.rname, tt.attrs...)
			require.Error(t, err)
			assert.ErrorIs(t, err, catalog.ErrValidation)
		})
	}
}

func TestNewAutoNamed(t *testing.T) {
	t.Parallel()

	seq := catalog.NewNameSequence()

	r1, err := catalog.NewAutoNamed(seq)
	require.NoError(t, err)
	r2, err := catalog.NewAutoNamed(seq)
	require.NoError(t, err)
	named, err := catalog.NewAutoNamed(seq, catalog.A("name", "explicit"))
	require.NoError(t, err)
	r3, err := catalog.NewAutoNamed(seq)
	require.NoError(t, err)

	assert.Equal(t, "resource-1", r1.Name())
	assert.Equal(t, "resource-2", r2.Name())
	assert.Equal(t, "explicit", named.Name())
	// Numbers are never reused, even when a named resource intervenes.
	assert.Equal(t, "resource-3", r3.Name())
}

func TestResource_SetAndDelete(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1", catalog.A("path", "/p"))

	require.NoError(t, r.Set("info", "description"))
	v, ok := r.Get("info")
	require.True(t, ok)
	assert.Equal(t, "description", v)
	assert.Equal(t, []string{"name", "tags", "path", "info"}, r.Keys())

	// Overwrite keeps position.
	require.NoError(t, r.Set("path", "/q"))
	assert.Equal(t, []string{"name", "tags", "path", "info"}, r.Keys())

	require.NoError(t, r.Delete("info"))
	_, ok = r.Get("info")
	assert.False(t, ok)

	// Deleting an absent attribute is a no-op.
	require.NoError(t, r.Delete("info"))

	require.Error(t, r.Delete("name"))

	require.NoError(t, r.Delete("tags"))
	assert.Equal(t, 0, r.Tags().Len())
}

func TestResource_SetTags_NeverSilentlyCoerces(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1", catalog.A("tags", []string{"alpha"}))

	err := r.Set("tags", "not-a-list")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrValidation)
	// The failed write must not have touched the stored tags.
	assert.True(t, r.Tags().Contains("alpha"))

	err = r.Set("tags", []any{"ok", 42})
	require.Error(t, err)
	assert.True(t, r.Tags().Contains("alpha"))

	require.NoError(t, r.Set("tags", []string{"beta"}))
	assert.False(t, r.Tags().Contains("alpha"))
	assert.True(t, r.Tags().Contains("beta"))
}

func TestResource_Rename(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1")
	require.NoError(t, r.Set("name", "bar-dataset1"))
	assert.Equal(t, "bar-dataset1", r.Name())

	require.Error(t, r.Set("name", ""))
	require.Error(t, r.Set("name", 42))
}

func TestResource_Evaluate(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1",
		catalog.A("path", "/path/to/file1.csv"),
		catalog.A("tags", []string{"alpha", "beta"}),
		catalog.A("foo", "zzz"),
	)

	tests := []struct {
		name string
		expr string
		want any
	}{
		{name: "attribute", expr: "foo", want: "zzz"},
		{name: "name binding", expr: "name", want: "dataset1"},
		{name: "tag truthy lookup", expr: "tags.alpha", want: true},
		{name: "absent tag", expr: "tags.gamma", want: false},
		{name: "reserved resource binding", expr: `resource.foo`, want: "zzz"},
		{name: "utility helper", expr: "basename(path)", want: "file1.csv"},
		{name: "fallback", expr: "on_error(-17) || a_b", want: int64(-17)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Evaluate(catalog.Q(tt.expr))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResource_Evaluate_ErrorCarriesContext(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1")

	_, err := r.Evaluate(catalog.Q("a_b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrEvaluation)

	var evalErr *catalog.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "a_b", evalErr.Expression)
	assert.Equal(t, "dataset1", evalErr.Resource)
}

func TestResource_Evaluate_InlineFunction(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1", catalog.A("foo", "zzz"))

	got, err := r.Evaluate(catalog.QFunc(func(res *catalog.Resource) (any, error) {
		v, _ := res.Get("foo")
		return v, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "zzz", got)

	_, err = r.Evaluate(catalog.QFunc(func(*catalog.Resource) (any, error) {
		return nil, assert.AnError
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrEvaluation)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResource_Evaluate_NamespaceIsReadOnly(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1", catalog.A("nested", map[string]any{"k": "v"}))

	// Expressions receive converted copies; mutating through the
	// namespace is impossible, so the stored value must be unchanged
	// after evaluation.
	_, err := r.Evaluate(catalog.Q(`resource.nested.k`))
	require.NoError(t, err)

	v, _ := r.Get("nested")
	assert.Equal(t, map[string]any{"k": "v"}, v)
}

func TestResource_PlainFormAndJSON(t *testing.T) {
	t.Parallel()

	r := newResource(t, "dataset1",
		catalog.A("path", "/p"),
		catalog.A("tags", []string{"beta", "alpha"}),
		catalog.A("foo", "zzz"),
	)

	form := r.PlainForm()
	require.Len(t, form, 3)
	assert.Equal(t, "tags", form[0].Key)
	assert.Equal(t, []string{"alpha", "beta"}, form[0].Value)
	assert.Equal(t, "path", form[1].Key)
	assert.Equal(t, "foo", form[2].Key)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"tags":["alpha","beta"],"path":"/p","foo":"zzz"}`, string(data))
}

func TestResource_Equal(t *testing.T) {
	t.Parallel()

	a := newResource(t, "d", catalog.A("x", 1.0), catalog.A("tags", []string{"t1"}))
	b := newResource(t, "d", catalog.A("tags", []string{"t1"}), catalog.A("x", int64(1)))
	c := newResource(t, "d", catalog.A("x", 2.0), catalog.A("tags", []string{"t1"}))

	assert.True(t, a.Equal(b), "attribute order and numeric width must not matter")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}
