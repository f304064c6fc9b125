// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package expr_test

import (
	"reflect"
	"testing"

	"github.com/google/cel-go/common/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacat-dev/datacat/expr"
)

func TestTagSet_Membership(t *testing.T) {
	t.Parallel()

	ts := expr.NewTagSet([]string{"gamma", "alpha", "beta"})

	tests := []struct {
		name string
		tag  string
		want bool
	}{
		{name: "present", tag: "alpha", want: true},
		{name: "also present", tag: "gamma", want: true},
		{name: "absent", tag: "delta", want: false},
		{name: "empty string", tag: "", want: false},
		{name: "near miss", tag: "alph", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found := ts.Find(types.String(tt.tag))
			require.True(t, found, "every string key must resolve")
			assert.Equal(t, types.Bool(tt.want), got)

			assert.Equal(t, types.Bool(tt.want), ts.Contains(types.String(tt.tag)))
			assert.Equal(t, types.Bool(tt.want), ts.Get(types.String(tt.tag)))
		})
	}
}

func TestTagSet_List_SortedAndDeduplicated(t *testing.T) {
	t.Parallel()

	ts := expr.NewTagSet([]string{"gamma", "alpha", "gamma", "beta"})
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, ts.List())
	assert.Equal(t, types.Int(3), ts.Size())
}

func TestTagSet_Equal(t *testing.T) {
	t.Parallel()

	a := expr.NewTagSet([]string{"x", "y"})
	b := expr.NewTagSet([]string{"y", "x"})
	c := expr.NewTagSet([]string{"x"})

	assert.Equal(t, types.True, a.Equal(b))
	assert.Equal(t, types.False, a.Equal(c))
	assert.Equal(t, types.False, a.Equal(types.String("x")))
}

func TestTagSet_Iterator(t *testing.T) {
	t.Parallel()

	ts := expr.NewTagSet([]string{"b", "a"})
	it := ts.Iterator()

	var seen []string
	for it.HasNext() == types.True {
		seen = append(seen, string(it.Next().(types.String)))
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestTagSet_ConvertToNative(t *testing.T) {
	t.Parallel()

	ts := expr.NewTagSet([]string{"b", "a"})

	native, err := ts.ConvertToNative(reflect.TypeOf([]string{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, native)

	_, err = ts.ConvertToNative(reflect.TypeOf(0))
	require.Error(t, err)
}
