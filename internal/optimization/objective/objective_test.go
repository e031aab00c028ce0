package objective

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		objective Descriptor
		invariant string
	}{
		{name: "single", objective: Single("yield", ModeMax)},
		{name: "pareto", objective: Pareto(Target{Name: "yield", Mode: ModeMax}, Target{Name: "cost", Mode: ModeMin})},
		{
			name:      "single with two targets",
			objective: Descriptor{Kind: KindSingle, Targets: []Target{{Name: "a", Mode: ModeMax}, {Name: "b", Mode: ModeMax}}},
			invariant: optimization.InvariantTargetCount,
		},
		{
			name:      "pareto with one target",
			objective: Pareto(Target{Name: "a", Mode: ModeMax}),
			invariant: optimization.InvariantTargetCount,
		},
		{
			name:      "unknown kind",
			objective: Descriptor{Kind: "Mystery", Targets: []Target{{Name: "a", Mode: ModeMax}}},
			invariant: optimization.InvariantTargetCount,
		},
		{
			name:      "repeated target",
			objective: Pareto(Target{Name: "a", Mode: ModeMax}, Target{Name: "a", Mode: ModeMin}),
			invariant: optimization.InvariantUniqueTargetName,
		},
		{
			name:      "match without bounds",
			objective: Single("ph", ModeMatch),
			invariant: optimization.InvariantMatchBounds,
		},
		{
			name: "match with bounds",
			objective: Descriptor{Kind: KindSingle, Targets: []Target{
				{Name: "ph", Mode: ModeMatch, Bounds: &searchspace.Bounds{Lower: 6.5, Upper: 7.5}},
			}},
		},
		{
			name:      "unknown mode",
			objective: Single("a", "UP"),
			invariant: optimization.InvariantTargetMode,
		},
		{
			name: "negative weight",
			objective: Descriptor{Kind: KindPareto, Targets: []Target{
				{Name: "a", Mode: ModeMax, Weight: 1}, {Name: "b", Mode: ModeMin, Weight: -1},
			}},
			invariant: optimization.InvariantTargetWeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.objective.Validate()
			if tt.invariant == "" {
				assert.NoError(t, err)
				return
			}
			ve, ok := optimization.IsValidationError(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Equal(t, tt.invariant, ve.Invariant)
		})
	}
}

func TestWeights(t *testing.T) {
	assert.Nil(t, Single("a", ModeMax).Weights())

	p := Pareto(Target{Name: "a", Mode: ModeMax}, Target{Name: "b", Mode: ModeMin, Weight: 3})
	assert.Equal(t, []float64{1, 3}, p.Weights())
	assert.True(t, p.IsPareto())
}
