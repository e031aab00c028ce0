package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name     string
		base     map[string]interface{}
		override map[string]interface{}
		expected map[string]interface{}
	}{
		{
			name:     "empty override",
			base:     map[string]interface{}{"a": 1.0},
			override: nil,
			expected: map[string]interface{}{"a": 1.0},
		},
		{
			name:     "scalar replaces",
			base:     map[string]interface{}{"a": 1.0, "b": 2.0},
			override: map[string]interface{}{"b": 3.0},
			expected: map[string]interface{}{"a": 1.0, "b": 3.0},
		},
		{
			name: "nested maps merge",
			base: map[string]interface{}{
				"type": "Outer",
				"inner": map[string]interface{}{"type": "Inner", "x": 1.0, "y": 2.0},
			},
			override: map[string]interface{}{
				"inner": map[string]interface{}{"y": 5.0},
			},
			expected: map[string]interface{}{
				"type":  "Outer",
				"inner": map[string]interface{}{"type": "Inner", "x": 1.0, "y": 5.0},
			},
		},
		{
			name: "type change replaces the level",
			base: map[string]interface{}{
				"inner": map[string]interface{}{"type": "A", "x": 1.0},
			},
			override: map[string]interface{}{
				"inner": map[string]interface{}{"type": "B", "z": 2.0},
			},
			expected: map[string]interface{}{
				"inner": map[string]interface{}{"type": "B", "z": 2.0},
			},
		},
		{
			name:     "same type merges",
			base:     map[string]interface{}{"type": "A", "x": 1.0, "y": 1.0},
			override: map[string]interface{}{"type": "A", "y": 2.0},
			expected: map[string]interface{}{"type": "A", "x": 1.0, "y": 2.0},
		},
		{
			name:     "lists replace",
			base:     map[string]interface{}{"l": []interface{}{1.0, 2.0}},
			override: map[string]interface{}{"l": []interface{}{3.0}},
			expected: map[string]interface{}{"l": []interface{}{3.0}},
		},
		{
			name:     "map replaces scalar",
			base:     map[string]interface{}{"a": 1.0},
			override: map[string]interface{}{"a": map[string]interface{}{"b": true}},
			expected: map[string]interface{}{"a": map[string]interface{}{"b": true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeepMerge(tt.base, tt.override))
		})
	}
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]interface{}{"inner": map[string]interface{}{"x": 1.0}}
	override := map[string]interface{}{"inner": map[string]interface{}{"x": 2.0}}

	merged := DeepMerge(base, override)
	merged["inner"].(map[string]interface{})["x"] = 9.0

	assert.Equal(t, 1.0, base["inner"].(map[string]interface{})["x"])
	assert.Equal(t, 2.0, override["inner"].(map[string]interface{})["x"])
}

func TestMergeVariants(t *testing.T) {
	defaults := func(typ string) (map[string]interface{}, bool) {
		if typ != "B" {
			return nil, false
		}
		return map[string]interface{}{"type": "B", "z": 1.0, "w": 4.0}, true
	}

	tests := []struct {
		name     string
		override map[string]interface{}
		expected map[string]interface{}
	}{
		{
			name:     "known variant merges onto its default",
			override: map[string]interface{}{"inner": map[string]interface{}{"type": "B", "z": 2.0}},
			expected: map[string]interface{}{"inner": map[string]interface{}{"type": "B", "z": 2.0, "w": 4.0}},
		},
		{
			name:     "unknown variant replaces",
			override: map[string]interface{}{"inner": map[string]interface{}{"type": "C", "z": 2.0}},
			expected: map[string]interface{}{"inner": map[string]interface{}{"type": "C", "z": 2.0}},
		},
		{
			name:     "same variant merges onto the base",
			override: map[string]interface{}{"inner": map[string]interface{}{"x": 3.0}},
			expected: map[string]interface{}{"inner": map[string]interface{}{"type": "A", "x": 3.0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := map[string]interface{}{"inner": map[string]interface{}{"type": "A", "x": 1.0}}
			assert.Equal(t, tt.expected, MergeVariants(base, tt.override, defaults))
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	type target struct {
		A int `json:"a"`
	}

	var v target
	require.NoError(t, DecodeStrict(map[string]interface{}{"a": 3.0}, &v))
	assert.Equal(t, 3, v.A)

	err := DecodeStrict(map[string]interface{}{"a": 1.0, "b": 2.0}, &v)
	assert.Error(t, err)
}

func TestHintsNoisyDefault(t *testing.T) {
	assert.True(t, Hints{}.Noisy())
	assert.True(t, Hints{NoisyObservations: Bool(true)}.Noisy())
	assert.False(t, Hints{NoisyObservations: Bool(false)}.Noisy())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(InvariantTargetCount, "pareto objectives need at least %d targets", 2).
		WithField("objective.targets")

	assert.Equal(t,
		"validation failed: objective-target-count (objective.targets): pareto objectives need at least 2 targets",
		err.Error())

	ve, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, InvariantTargetCount, ve.Invariant)

	_, ok = IsValidationError(assert.AnError)
	assert.False(t, ok)
	assert.Nil(t, WrapValidationError(nil, InvariantOverride, "x"))
}
