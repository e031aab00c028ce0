package recommender

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
)

var (
	single = objective.Single("yield", objective.ModeMax)
	pareto = objective.Pareto(
		objective.Target{Name: "yield", Mode: objective.ModeMax},
		objective.Target{Name: "cost", Mode: objective.ModeMin},
	)
	continuous3 = searchspace.Classification{Dimensionality: 3, HasContinuous: true}
	hybrid3     = searchspace.Classification{Dimensionality: 3, HasDiscrete: true, HasContinuous: true, IsHybrid: true}
)

func continuousParameters(n int) []searchspace.Parameter {
	out := make([]searchspace.Parameter, n)
	for i := range out {
		out[i] = searchspace.Continuous(string(rune('a'+i)), 0, 1)
	}
	return out
}

func TestSelectNoDataIsAlwaysTwoPhase(t *testing.T) {
	for _, c := range []searchspace.Classification{{}, continuous3, hybrid3, {Dimensionality: 20, HasDiscrete: true}} {
		for _, o := range []objective.Descriptor{single, pareto} {
			for _, gpu := range []bool{false, true} {
				cfg, rule := SelectWithRule(c, o, optimization.Hints{GPUAvailable: gpu})

				require.IsType(t, &TwoPhase{}, cfg)
				tp := cfg.(*TwoPhase)
				assert.Equal(t, RuleNoData, rule)
				assert.Equal(t, 0, tp.SwitchAfterMeasurementCount)
				assert.True(t, tp.RemainSwitchedOnceTriggered)
				assert.IsType(t, &SpaceFilling{}, tp.Initial)
				assert.IsType(t, &ModelBased{}, tp.Recommender)
			}
		}
	}
}

func TestSelectModelBased(t *testing.T) {
	tests := []struct {
		name           string
		classification searchspace.Classification
		objective      objective.Descriptor
		gpu            bool
		rule           Rule
		expected       *ModelBased
	}{
		{
			name:           "default cpu",
			classification: continuous3,
			objective:      single,
			rule:           RuleDefault,
			expected:       &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 10, RawSampleCount: 64},
		},
		{
			name:           "default gpu",
			classification: continuous3,
			objective:      single,
			gpu:            true,
			rule:           RuleDefault,
			expected:       &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 20, RawSampleCount: 128},
		},
		{
			name:           "hybrid",
			classification: hybrid3,
			objective:      single,
			rule:           RuleHybrid,
			expected: &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 10, RawSampleCount: 64,
				HybridSpaceHandler: HybridSpaceHandlerAuto},
		},
		{
			name:           "pareto cpu",
			classification: continuous3,
			objective:      pareto,
			rule:           RulePareto,
			expected:       &ModelBased{Surrogate: SurrogateMultiOutput, RestartCount: 10, RawSampleCount: 128},
		},
		{
			name:           "hybrid pareto keeps the multi-output surrogate",
			classification: hybrid3,
			objective:      pareto,
			gpu:            true,
			rule:           RuleHybrid,
			expected: &ModelBased{Surrogate: SurrogateMultiOutput, RestartCount: 20, RawSampleCount: 256,
				HybridSpaceHandler: HybridSpaceHandlerAuto},
		},
		{
			name:           "high dimensional single cpu",
			classification: searchspace.Classification{Dimensionality: 11, HasContinuous: true},
			objective:      single,
			rule:           RuleDefault,
			expected:       &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 10, RawSampleCount: 128},
		},
		{
			name:           "dimensionality of exactly ten is not doubled",
			classification: searchspace.Classification{Dimensionality: 10, HasContinuous: true},
			objective:      single,
			rule:           RuleDefault,
			expected:       &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 10, RawSampleCount: 64},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, rule := SelectWithRule(tt.classification, tt.objective,
				optimization.Hints{GPUAvailable: tt.gpu, PriorMeasurementCount: 5})
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

// Dimensionality above ten, a Pareto objective and a GPU each double the base
// sample count, and the doublings compound.
func TestSelectHighDimensionalParetoGPU(t *testing.T) {
	c := searchspace.Classify(continuousParameters(12))
	cfg := Select(c, pareto, optimization.Hints{GPUAvailable: true, PriorMeasurementCount: 5})

	require.IsType(t, &ModelBased{}, cfg)
	mb := cfg.(*ModelBased)
	assert.False(t, c.IsHybrid)
	assert.Empty(t, mb.HybridSpaceHandler)
	assert.Equal(t, 20, mb.RestartCount)
	assert.Equal(t, 128*2*2, mb.RawSampleCount)
	assert.Equal(t, SurrogateMultiOutput, mb.Surrogate)
}

func TestSelectHybridNoDataScenario(t *testing.T) {
	c := searchspace.Classify([]searchspace.Parameter{
		searchspace.Discrete("n", 1, 2, 3),
		searchspace.Continuous("x", 0, 1),
		searchspace.Continuous("y", 0, 1),
	})
	cfg := Select(c, single, optimization.Hints{})

	require.IsType(t, &TwoPhase{}, cfg)
	tp := cfg.(*TwoPhase)
	assert.Equal(t, StrategySpaceFilling, tp.Initial.Strategy())
	assert.Equal(t, 0, tp.SwitchAfterMeasurementCount)
	assert.Equal(t, &ModelBased{
		Surrogate:          SurrogateSingleOutput,
		RestartCount:       10,
		RawSampleCount:     64,
		HybridSpaceHandler: HybridSpaceHandlerAuto,
	}, tp.Recommender)
}

func TestSelectOverride(t *testing.T) {
	tests := []struct {
		name     string
		hints    optimization.Hints
		expected Config
	}{
		{
			name: "nested field merges",
			hints: optimization.Hints{
				PriorMeasurementCount: 5,
				UserOverride: &optimization.Override{Recommender: map[string]interface{}{
					"recommender": map[string]interface{}{"n_restarts": 3},
				}},
			},
			expected: &TwoPhase{
				Initial:                     &SpaceFilling{},
				Recommender:                 &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 3, RawSampleCount: 64},
				SwitchAfterMeasurementCount: 0,
				RemainSwitchedOnceTriggered: true,
			},
		},
		{
			name: "phase control merges",
			hints: optimization.Hints{
				GPUAvailable: true,
				UserOverride: &optimization.Override{Recommender: map[string]interface{}{
					"switch_after":    10,
					"remain_switched": false,
				}},
			},
			expected: &TwoPhase{
				Initial:                     &SpaceFilling{},
				Recommender:                 &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 20, RawSampleCount: 128},
				SwitchAfterMeasurementCount: 10,
				RemainSwitchedOnceTriggered: false,
			},
		},
		{
			name: "strategy change keeps computed defaults",
			hints: optimization.Hints{
				GPUAvailable:          true,
				PriorMeasurementCount: 5,
				UserOverride: &optimization.Override{Recommender: map[string]interface{}{
					"type":       "BotorchRecommender",
					"n_restarts": 4,
				}},
			},
			expected: &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 4, RawSampleCount: 128},
		},
		{
			name: "nested strategy change",
			hints: optimization.Hints{
				UserOverride: &optimization.Override{Recommender: map[string]interface{}{
					"initial_recommender": map[string]interface{}{"type": "BotorchRecommender", "n_raw_samples": 32},
				}},
			},
			expected: &TwoPhase{
				Initial:                     &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 10, RawSampleCount: 32},
				Recommender:                 &ModelBased{Surrogate: SurrogateSingleOutput, RestartCount: 10, RawSampleCount: 64},
				SwitchAfterMeasurementCount: 0,
				RemainSwitchedOnceTriggered: true,
			},
		},
		{
			name: "invalid override falls back to the default",
			hints: optimization.Hints{
				UserOverride: &optimization.Override{Recommender: map[string]interface{}{"bogus": true}},
			},
			expected: Default(continuous3, single, optimization.Hints{}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, rule := SelectWithRule(continuous3, single, tt.hints)
			assert.Equal(t, RuleOverride, rule)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestValidateOverride(t *testing.T) {
	valid := optimization.Hints{UserOverride: &optimization.Override{
		Recommender: map[string]interface{}{"switch_after": 2},
	}}
	assert.NoError(t, ValidateOverride(continuous3, single, valid))
	assert.NoError(t, ValidateOverride(continuous3, single, optimization.Hints{}))

	for name, ov := range map[string]map[string]interface{}{
		"unknown key":       {"bogus": true},
		"unknown type":      {"type": "MysteryRecommender"},
		"bad surrogate":     {"recommender": map[string]interface{}{"surrogate_model": "Forest"}},
		"fractional count":  {"recommender": map[string]interface{}{"n_restarts": 2.5}},
		"non-positive":      {"recommender": map[string]interface{}{"n_raw_samples": 0}},
		"negative switch":   {"switch_after": -1},
		"wrong nested type": {"initial_recommender": "FPSRecommender"},
	} {
		t.Run(name, func(t *testing.T) {
			err := ValidateOverride(continuous3, single, optimization.Hints{
				UserOverride: &optimization.Override{Recommender: ov},
			})
			ve, ok := optimization.IsValidationError(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			assert.Equal(t, optimization.InvariantOverride, ve.Invariant)
		})
	}
}

func TestWireFormat(t *testing.T) {
	cfg := Default(hybrid3, pareto, optimization.Hints{GPUAvailable: true})

	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "TwoPhaseMetaRecommender",
		"initial_recommender": {"type": "FPSRecommender"},
		"recommender": {
			"type": "BotorchRecommender",
			"surrogate_model": "MultiOutputGaussianProcessSurrogate",
			"n_restarts": 20,
			"n_raw_samples": 256,
			"hybrid_sampler": "auto"
		},
		"switch_after": 0,
		"remain_switched": true
	}`, string(b))

	m, err := optimization.ToMap(cfg)
	require.NoError(t, err)
	decoded, err := Decode(m)
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)
}

func TestModelBasedOf(t *testing.T) {
	mb := &ModelBased{Surrogate: SurrogateMultiOutput, RestartCount: 1, RawSampleCount: 1}

	assert.Nil(t, ModelBasedOf(&SpaceFilling{}))
	assert.Same(t, mb, ModelBasedOf(mb))
	assert.Same(t, mb, ModelBasedOf(&TwoPhase{Initial: &SpaceFilling{}, Recommender: mb}))
	assert.Nil(t, ModelBasedOf(&TwoPhase{Initial: &SpaceFilling{}, Recommender: &SpaceFilling{}}))
}

func TestSelectIsDeterministic(t *testing.T) {
	h := optimization.Hints{GPUAvailable: true, PriorMeasurementCount: 0}
	a, err := json.Marshal(Select(hybrid3, pareto, h))
	require.NoError(t, err)
	b, err := json.Marshal(Select(hybrid3, pareto, h))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
