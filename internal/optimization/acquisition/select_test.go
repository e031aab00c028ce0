package acquisition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/recommender"
)

var (
	single = objective.Single("yield", objective.ModeMax)
	pareto = objective.Pareto(
		objective.Target{Name: "yield", Mode: objective.ModeMax},
		objective.Target{Name: "cost", Mode: objective.ModeMin},
	)
	singleOutput = &recommender.ModelBased{Surrogate: recommender.SurrogateSingleOutput, RestartCount: 10, RawSampleCount: 64}
	multiOutputR = &recommender.ModelBased{Surrogate: recommender.SurrogateMultiOutput, RestartCount: 10, RawSampleCount: 128}
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name        string
		objective   objective.Descriptor
		recommender recommender.Config
		hints       optimization.Hints
		rule        Rule
		expected    Config
	}{
		{
			name:        "pareto gpu",
			objective:   pareto,
			recommender: multiOutputR,
			hints:       optimization.Hints{GPUAvailable: true},
			rule:        RulePareto,
			expected:    &HypervolumeImprovement{FantasyCount: 64, Alpha: 0.05},
		},
		{
			name:        "pareto cpu",
			objective:   pareto,
			recommender: multiOutputR,
			rule:        RulePareto,
			expected:    &HypervolumeImprovement{FantasyCount: 32, Alpha: 0.05},
		},
		{
			name:        "pareto ignores the noisy flag",
			objective:   pareto,
			recommender: multiOutputR,
			hints:       optimization.Hints{NoisyObservations: optimization.Bool(false)},
			rule:        RulePareto,
			expected:    &HypervolumeImprovement{FantasyCount: 32, Alpha: 0.05},
		},
		{
			name:        "noisy by default",
			objective:   single,
			recommender: singleOutput,
			rule:        RuleNoisy,
			expected:    &NoisyExpectedImprovement{FantasyCount: 32, PruneBaseline: true},
		},
		{
			name:        "noisy gpu",
			objective:   single,
			recommender: singleOutput,
			hints:       optimization.Hints{GPUAvailable: true, NoisyObservations: optimization.Bool(true)},
			rule:        RuleNoisy,
			expected:    &NoisyExpectedImprovement{FantasyCount: 64, PruneBaseline: true},
		},
		{
			name:        "noise free",
			objective:   single,
			recommender: singleOutput,
			hints:       optimization.Hints{NoisyObservations: optimization.Bool(false)},
			rule:        RuleDefault,
			expected:    &ExpectedImprovement{},
		},
		{
			name:      "two-phase follows its model-based phase",
			objective: single,
			recommender: &recommender.TwoPhase{
				Initial:     &recommender.SpaceFilling{},
				Recommender: multiOutputR,
			},
			rule:     RulePareto,
			expected: &HypervolumeImprovement{FantasyCount: 32, Alpha: 0.05},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, rule := SelectWithRule(tt.objective, tt.recommender, tt.hints)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestSelectNoiseFreeHasNoFantasyField(t *testing.T) {
	cfg := Select(single, singleOutput, optimization.Hints{NoisyObservations: optimization.Bool(false)})

	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "EI"}`, string(b))
	assert.NotContains(t, string(b), "num_fantasies")
}

func TestSelectOverride(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]interface{}
		expected Config
	}{
		{
			name:     "field merges onto the noisy default",
			override: map[string]interface{}{"prune_baseline": false},
			expected: &NoisyExpectedImprovement{FantasyCount: 64, PruneBaseline: false},
		},
		{
			name:     "family change drops the other family's fields",
			override: map[string]interface{}{"type": "EI"},
			expected: &ExpectedImprovement{},
		},
		{
			name:     "family change keeps computed defaults",
			override: map[string]interface{}{"type": "qNEHVI", "num_fantasies": 16},
			expected: &HypervolumeImprovement{FantasyCount: 16, Alpha: HypervolumeAlpha},
		},
		{
			name:     "family change alone",
			override: map[string]interface{}{"type": "qNEHVI"},
			expected: &HypervolumeImprovement{FantasyCount: 64, Alpha: 0.05},
		},
		{
			name:     "hypervolume with explicit fields",
			override: map[string]interface{}{"type": "qNEHVI", "num_fantasies": 16, "alpha": 0.1},
			expected: &HypervolumeImprovement{FantasyCount: 16, Alpha: 0.1},
		},
		{
			name:     "invalid falls back",
			override: map[string]interface{}{"num_fantasies": "many"},
			expected: &NoisyExpectedImprovement{FantasyCount: 64, PruneBaseline: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := optimization.Hints{
				GPUAvailable: true,
				UserOverride: &optimization.Override{Acquisition: tt.override},
			}
			cfg, rule := SelectWithRule(pareto, multiOutputR, h)
			assert.Equal(t, RuleOverride, rule)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestValidateOverride(t *testing.T) {
	assert.NoError(t, ValidateOverride(optimization.Hints{}))
	assert.NoError(t, ValidateOverride(optimization.Hints{UserOverride: &optimization.Override{
		Acquisition: map[string]interface{}{"num_fantasies": 8},
	}}))

	for name, ov := range map[string]map[string]interface{}{
		"unknown key":        {"beta": 0.2},
		"unknown family":     {"type": "UCB"},
		"zero fantasies":     {"num_fantasies": 0},
		"alpha out of range": {"type": "qNEHVI", "num_fantasies": 4, "alpha": 1.5},
		"extra field on EI":  {"type": "EI", "num_fantasies": 4},
	} {
		t.Run(name, func(t *testing.T) {
			err := ValidateOverride(optimization.Hints{UserOverride: &optimization.Override{Acquisition: ov}})
			ve, ok := optimization.IsValidationError(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Equal(t, optimization.InvariantOverride, ve.Invariant)
		})
	}
}

func TestCheckCompatible(t *testing.T) {
	hv := &HypervolumeImprovement{FantasyCount: 32, Alpha: 0.05}
	nei := &NoisyExpectedImprovement{FantasyCount: 32, PruneBaseline: true}

	assert.NoError(t, CheckCompatible(multiOutputR, hv))
	assert.NoError(t, CheckCompatible(singleOutput, nei))
	assert.NoError(t, CheckCompatible(singleOutput, &ExpectedImprovement{}))
	assert.NoError(t, CheckCompatible(&recommender.SpaceFilling{}, hv))

	for _, pair := range []struct {
		rec recommender.Config
		acq Config
	}{
		{singleOutput, hv},
		{multiOutputR, nei},
		{&recommender.TwoPhase{Initial: &recommender.SpaceFilling{}, Recommender: multiOutputR}, &ExpectedImprovement{}},
	} {
		err := CheckCompatible(pair.rec, pair.acq)
		ve, ok := optimization.IsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, optimization.InvariantCompatibility, ve.Invariant)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, cfg := range []Config{
		&HypervolumeImprovement{FantasyCount: 64, Alpha: 0.05},
		&NoisyExpectedImprovement{FantasyCount: 32, PruneBaseline: true},
		&ExpectedImprovement{},
	} {
		m, err := optimization.ToMap(cfg)
		require.NoError(t, err)
		decoded, err := Decode(m)
		require.NoError(t, err)
		assert.Equal(t, cfg, decoded)
	}
}
