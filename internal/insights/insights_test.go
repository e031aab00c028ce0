package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
	"github.com/silviu20/Web-App-sub001/internal/store"
)

func measurement(id int64, x float64, values map[string]float64) store.Measurement {
	return store.Measurement{ID: id, Parameters: map[string]interface{}{"x": x}, TargetValues: values}
}

func TestSummarizeSingleTarget(t *testing.T) {
	ms := []store.Measurement{
		measurement(1, 0.1, map[string]float64{"y": 2}),
		measurement(2, 0.2, map[string]float64{"y": 4}),
		measurement(3, 0.3, map[string]float64{"y": 9}),
		measurement(4, 0.4, map[string]float64{}),
	}

	tests := []struct {
		name     string
		target   objective.Target
		expected int64
	}{
		{"max", objective.Target{Name: "y", Mode: objective.ModeMax}, 3},
		{"min", objective.Target{Name: "y", Mode: objective.ModeMin}, 1},
		{"match", objective.Target{Name: "y", Mode: objective.ModeMatch, Bounds: &searchspace.Bounds{Lower: 3, Upper: 6}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := objective.Descriptor{Kind: objective.KindSingle, Targets: []objective.Target{tt.target}}
			r := Summarize(obj, ms)

			assert.Equal(t, 4, r.Measurements)
			require.Len(t, r.Targets, 1)
			s := r.Targets[0]
			assert.Equal(t, 3, s.Count)
			assert.InDelta(t, 5.0, s.Mean, 1e-9)
			assert.InDelta(t, 3.605551, s.StdDev, 1e-6)
			assert.Equal(t, 2.0, s.Min)
			assert.Equal(t, 9.0, s.Max)

			require.NotNil(t, r.Best)
			assert.Equal(t, tt.expected, r.Best.MeasurementID)
			assert.Nil(t, r.ParetoFront)
		})
	}
}

func TestSummarizeEmpty(t *testing.T) {
	r := Summarize(objective.Single("y", objective.ModeMax), nil)
	assert.Zero(t, r.Measurements)
	require.Len(t, r.Targets, 1)
	assert.Zero(t, r.Targets[0].Count)
	assert.Nil(t, r.Best)
}

func TestSummarizeSingleMeasurementHasZeroDeviation(t *testing.T) {
	r := Summarize(objective.Single("y", objective.ModeMax), []store.Measurement{
		measurement(1, 0.5, map[string]float64{"y": 3}),
	})
	assert.Zero(t, r.Targets[0].StdDev)
}

func TestSummarizeParetoFront(t *testing.T) {
	obj := objective.Pareto(
		objective.Target{Name: "yield", Mode: objective.ModeMax},
		objective.Target{Name: "cost", Mode: objective.ModeMin},
	)
	ms := []store.Measurement{
		measurement(1, 0.1, map[string]float64{"yield": 10, "cost": 5}),
		measurement(2, 0.2, map[string]float64{"yield": 8, "cost": 2}),
		measurement(3, 0.3, map[string]float64{"yield": 7, "cost": 6}), // dominated by 1 and 2
		measurement(4, 0.4, map[string]float64{"yield": 12, "cost": 9}),
		measurement(5, 0.5, map[string]float64{"yield": 8, "cost": 2}), // ties 2
		measurement(6, 0.6, map[string]float64{"yield": 20}),           // incomplete
	}

	r := Summarize(obj, ms)
	assert.Nil(t, r.Best)

	ids := make([]int64, 0, len(r.ParetoFront))
	for _, e := range r.ParetoFront {
		ids = append(ids, e.MeasurementID)
	}
	assert.Equal(t, []int64{1, 2, 4, 5}, ids)
	assert.Equal(t, 6, r.Targets[0].Count)
	assert.Equal(t, 5, r.Targets[1].Count)
}

func TestDominates(t *testing.T) {
	assert.True(t, dominates([]float64{2, 2}, []float64{1, 2}))
	assert.False(t, dominates([]float64{2, 2}, []float64{2, 2}))
	assert.False(t, dominates([]float64{3, 1}, []float64{1, 3}))
}
