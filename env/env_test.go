// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOSReader_Getenv(t *testing.T) { //nolint:paralleltest // Modifies environment variables
	// Cannot run in parallel because it modifies environment variables
	testKey := "TEST_ENV_VARIABLE_FOR_TESTING"
	testValue := "test_value_123"

	originalValue, wasSet := os.LookupEnv(testKey)
	os.Setenv(testKey, testValue)
	t.Cleanup(func() {
		if wasSet {
			os.Setenv(testKey, originalValue)
		} else {
			os.Unsetenv(testKey)
		}
	})

	reader := &OSReader{}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{
			name: "existing environment variable",
			key:  testKey,
			want: testValue,
		},
		{
			name: "non-existing environment variable",
			key:  "NONEXISTENT_ENV_VAR_TESTING_12345",
			want: "",
		},
		{
			name: "empty key",
			key:  "",
			want: "",
		},
	}

	for _, tt := range tests { //nolint:paralleltest // Test modifies environment variables
		t.Run(tt.name, func(t *testing.T) {
			got := reader.Getenv(tt.key)
			if got != tt.want {
				t.Errorf("OSReader.Getenv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapReader_Getenv(t *testing.T) {
	t.Parallel()

	reader := MapReader{TransformVar: "/hooks/a.yaml:/hooks/b.yaml"}
	assert.Equal(t, "/hooks/a.yaml:/hooks/b.yaml", reader.Getenv(TransformVar))
	assert.Equal(t, "", reader.Getenv(CheckersVar))
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "empty", value: "", want: nil},
		{name: "single", value: "/hooks/a.yaml", want: []string{"/hooks/a.yaml"}},
		{name: "multiple", value: "/a.yaml:/b.yaml", want: []string{"/a.yaml", "/b.yaml"}},
		{name: "trailing colon", value: "/a.yaml:", want: []string{"/a.yaml"}},
		{name: "doubled colon", value: "/a.yaml::/b.yaml", want: []string{"/a.yaml", "/b.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SplitList(tt.value))
		})
	}
}

// TestReader_InterfaceCompliance ensures both implementations satisfy Reader
func TestReader_InterfaceCompliance(t *testing.T) {
	t.Parallel()
	var _ Reader = &OSReader{}
	var _ Reader = MapReader{}
}
