// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package hooks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacat-dev/datacat/catalog"
	"github.com/datacat-dev/datacat/env"
	"github.com/datacat-dev/datacat/hooks"
)

// passingChecker attempts every resource and reports no problems.
func passingChecker(label string) hooks.Checker {
	return hooks.CheckerFunc(label, func(col *catalog.Collection, _ ...string) (hooks.VerdictStream, error) {
		var vs []hooks.Verdict
		for _, r := range col.Resources() {
			vs = append(vs, hooks.Verdict{Resource: r, Attempted: true})
		}
		return hooks.Verdicts(vs...), nil
	})
}

func TestCheck_NoCheckers(t *testing.T) {
	t.Parallel()

	rc := newCollection(t)
	_, err := hooks.Check(rc, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, hooks.ErrNoCheckers)
}

func TestCheck_AllPassing(t *testing.T) {
	t.Parallel()

	rc := newCollection(t)
	report, err := hooks.Check(rc, []hooks.Checker{passingChecker("a"), passingChecker("b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, report.Labels())

	rows, err := report.All()
	require.NoError(t, err)
	require.Len(t, rows, rc.Len())
	for i, row := range rows {
		assert.Equal(t, rc.At(i), row.Resource)
		assert.True(t, row.Passed())
		require.Len(t, row.Results, 2)
		assert.Equal(t, "a", row.Results[0].Checker)
	}
}

func TestCheck_ReportIsLazy(t *testing.T) {
	t.Parallel()

	rc := newCollection(t)
	pulled := 0
	lazy := hooks.CheckerFunc("lazy", func(col *catalog.Collection, _ ...string) (hooks.VerdictStream, error) {
		resources := col.Resources()
		return verdictFunc(func() (hooks.Verdict, bool, error) {
			if pulled >= len(resources) {
				return hooks.Verdict{}, false, nil
			}
			v := hooks.Verdict{Resource: resources[pulled], Attempted: true}
			pulled++
			return v, true, nil
		}), nil
	})

	report, err := hooks.Check(rc, []hooks.Checker{lazy})
	require.NoError(t, err)
	assert.Equal(t, 0, pulled)

	_, ok, err := report.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, pulled)
}

// verdictFunc adapts a closure to VerdictStream.
type verdictFunc func() (hooks.Verdict, bool, error)

func (f verdictFunc) Next() (hooks.Verdict, bool, error) { return f() }

func TestCheck_ProblemsReported(t *testing.T) {
	t.Parallel()

	rc := newCollection(t)
	fussy := hooks.CheckerFunc("fussy", func(col *catalog.Collection, _ ...string) (hooks.VerdictStream, error) {
		var vs []hooks.Verdict
		for _, r := range col.Resources() {
			v := hooks.Verdict{Resource: r, Attempted: true}
			if !r.Tags().Contains("gamma") {
				v.Problem = r.Name() + " is not tagged gamma"
			}
			vs = append(vs, v)
		}
		return hooks.Verdicts(vs...), nil
	})

	report, err := hooks.Check(rc, []hooks.Checker{fussy})
	require.NoError(t, err)
	rows, err := report.All()
	require.NoError(t, err)

	assert.False(t, rows[0].Passed())
	assert.Equal(t, "dataset1 is not tagged gamma", rows[0].Results[0].Problem)
	for _, row := range rows[1:] {
		assert.True(t, row.Passed())
	}
}

func TestCheck_UnattemptedFailsRow(t *testing.T) {
	t.Parallel()

	rc := newCollection(t)
	partial := hooks.CheckerFunc("partial", func(col *catalog.Collection, _ ...string) (hooks.VerdictStream, error) {
		var vs []hooks.Verdict
		for _, r := range col.Resources() {
			vs = append(vs, hooks.Verdict{Resource: r, Attempted: r.Tags().Contains("gamma")})
		}
		return hooks.Verdicts(vs...), nil
	})

	report, err := hooks.Check(rc, []hooks.Checker{partial})
	require.NoError(t, err)
	rows, err := report.All()
	require.NoError(t, err)

	assert.False(t, rows[0].Passed(), "unattempted resources do not pass")
	assert.True(t, rows[1].Passed())
}

func TestCheck_Alignment(t *testing.T) {
	t.Parallel()

	mkChecker := func(label string, pick func([]*catalog.Resource) []hooks.Verdict) hooks.Checker {
		return hooks.CheckerFunc(label, func(col *catalog.Collection, _ ...string) (hooks.VerdictStream, error) {
			return hooks.Verdicts(pick(col.Resources())...), nil
		})
	}
	attempted := func(rs ...*catalog.Resource) []hooks.Verdict {
		var vs []hooks.Verdict
		for _, r := range rs {
			vs = append(vs, hooks.Verdict{Resource: r, Attempted: true})
		}
		return vs
	}

	t.Run("short sequence", func(t *testing.T) {
		t.Parallel()
		rc := newCollection(t)
		short := mkChecker("short", func(rs []*catalog.Resource) []hooks.Verdict {
			return attempted(rs[:2]...)
		})

		report, err := hooks.Check(rc, []hooks.Checker{passingChecker("ok"), short})
		require.NoError(t, err)

		rows, err := report.All()
		require.Error(t, err)
		assert.Nil(t, rows, "no partial report on alignment failure")
		assert.ErrorIs(t, err, hooks.ErrCheckerAlignment)

		var alignErr *hooks.AlignmentError
		require.ErrorAs(t, err, &alignErr)
		assert.Equal(t, 1, alignErr.Index)
		assert.Equal(t, "short", alignErr.Checker)
		assert.Equal(t, 2, alignErr.Position)
		assert.Equal(t, "dataset3", alignErr.Want)
		assert.Equal(t, "", alignErr.Got)
	})

	t.Run("reordered sequence", func(t *testing.T) {
		t.Parallel()
		rc := newCollection(t)
		reordered := mkChecker("reordered", func(rs []*catalog.Resource) []hooks.Verdict {
			swapped := []*catalog.Resource{rs[1], rs[0], rs[2], rs[3]}
			return attempted(swapped...)
		})

		report, err := hooks.Check(rc, []hooks.Checker{reordered})
		require.NoError(t, err)

		_, _, err = report.Next()
		require.Error(t, err)

		var alignErr *hooks.AlignmentError
		require.ErrorAs(t, err, &alignErr)
		assert.Equal(t, 0, alignErr.Position)
		assert.Equal(t, "dataset1", alignErr.Want)
		assert.Equal(t, "dataset2", alignErr.Got)
	})

	t.Run("extra verdicts", func(t *testing.T) {
		t.Parallel()
		rc := newCollection(t)
		extra := mkChecker("extra", func(rs []*catalog.Resource) []hooks.Verdict {
			return attempted(append(append([]*catalog.Resource(nil), rs...), rs[0])...)
		})

		report, err := hooks.Check(rc, []hooks.Checker{extra})
		require.NoError(t, err)

		// All real rows aggregate fine; the excess surfaces at the end.
		for i := 0; i < rc.Len(); i++ {
			_, ok, err := report.Next()
			require.NoError(t, err)
			require.True(t, ok)
		}
		_, _, err = report.Next()
		require.Error(t, err)

		var alignErr *hooks.AlignmentError
		require.ErrorAs(t, err, &alignErr)
		assert.Equal(t, "", alignErr.Want)
		assert.Equal(t, "dataset1", alignErr.Got)
	})
}

func TestCheck_ScriptChecker(t *testing.T) { //nolint:paralleltest // External hooks switch the working directory
	rc := newCollection(t)
	path := writeScript(t, `
check:
  - match: tags.gamma
    assert: info != null
  - match: tags.sigma
    assert: foo == 'zzz'
    problem: name + ' has no zzz foo'
`)

	report, err := hooks.Check(rc, []hooks.Checker{hooks.CheckerPath(path)})
	require.NoError(t, err)
	rows, err := report.All()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// dataset1 matches no step: not attempted.
	assert.False(t, rows[0].Results[0].Attempted)
	// dataset2 matches the first step only and passes it.
	assert.True(t, rows[1].Results[0].Attempted)
	assert.Equal(t, "", rows[1].Results[0].Problem)
	// dataset3 and dataset4 match the second step and fail it.
	assert.Equal(t, "dataset3 has no zzz foo", rows[2].Results[0].Problem)
	assert.Equal(t, "dataset4 has no zzz foo", rows[3].Results[0].Problem)
}

func TestCheck_EnvironmentCheckers(t *testing.T) { //nolint:paralleltest // External hooks switch the working directory
	rc := newCollection(t)
	path := writeScript(t, "check:\n  - assert: \"true\"\n")
	reader := env.MapReader{env.CheckersVar: path}

	// Environment checkers come after the explicit ones.
	report, err := hooks.Check(rc, []hooks.Checker{passingChecker("explicit")},
		hooks.WithEnvironmentCheckers(reader))
	require.NoError(t, err)
	assert.Equal(t, []string{"explicit", path}, report.Labels())

	rows, err := report.All()
	require.NoError(t, err)
	for _, row := range rows {
		assert.True(t, row.Passed())
	}
}

func TestCheck_CheckerEntryLabel(t *testing.T) {
	t.Parallel()

	c := hooks.CheckerEntry("/hooks/a.yaml", "audit")
	assert.Equal(t, "/hooks/a.yaml:audit", c.Label())
	assert.Equal(t, "/hooks/a.yaml", hooks.CheckerPath("/hooks/a.yaml").Label())
}

func TestCheck_TransformEntryRejected(t *testing.T) { //nolint:paralleltest // External hooks switch the working directory
	rc := newCollection(t)
	path := writeScript(t, "transform:\n  - rename: name\n")

	_, err := hooks.Check(rc, []hooks.Checker{hooks.CheckerEntry(path, "transform")})
	require.Error(t, err)
	assert.ErrorIs(t, err, hooks.ErrScript)
}
