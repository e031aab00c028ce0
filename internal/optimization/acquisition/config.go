// Package acquisition selects the scoring rule a model-based recommender uses
// to rank candidate points.
package acquisition

import (
	"encoding/json"
	"fmt"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
)

// Family is the wire tag of an acquisition function variant.
type Family string

const (
	// FamilyHypervolumeImprovement is the multi-objective criterion.
	FamilyHypervolumeImprovement Family = "qNEHVI"
	// FamilyNoisyExpectedImprovement averages out observation noise with
	// fantasy samples.
	FamilyNoisyExpectedImprovement Family = "qNEI"
	// FamilyExpectedImprovement is the analytic criterion for noise-free
	// observations.
	FamilyExpectedImprovement Family = "EI"
)

// Config is a synthesized acquisition function configuration. It is one of
// *HypervolumeImprovement, *NoisyExpectedImprovement or *ExpectedImprovement.
type Config interface {
	Family() Family
	isConfig()
}

// HypervolumeImprovement scores the expected gain in dominated volume of the
// Pareto frontier.
type HypervolumeImprovement struct {
	FantasyCount int
	// Alpha is the risk level of the hypervolume truncation.
	Alpha float64
}

func (*HypervolumeImprovement) Family() Family { return FamilyHypervolumeImprovement }
func (*HypervolumeImprovement) isConfig()      {}

// MarshalJSON implements json.Marshaler.
func (a *HypervolumeImprovement) MarshalJSON() ([]byte, error) {
	return json.Marshal(hypervolumeWire{Type: FamilyHypervolumeImprovement, FantasyCount: a.FantasyCount, Alpha: a.Alpha})
}

// NoisyExpectedImprovement is expected improvement under noisy observations.
type NoisyExpectedImprovement struct {
	FantasyCount int
	// PruneBaseline drops dominated historical points from the fantasy
	// computation.
	PruneBaseline bool
}

func (*NoisyExpectedImprovement) Family() Family { return FamilyNoisyExpectedImprovement }
func (*NoisyExpectedImprovement) isConfig()      {}

// MarshalJSON implements json.Marshaler.
func (a *NoisyExpectedImprovement) MarshalJSON() ([]byte, error) {
	return json.Marshal(noisyWire{Type: FamilyNoisyExpectedImprovement, FantasyCount: a.FantasyCount, PruneBaseline: a.PruneBaseline})
}

// ExpectedImprovement has no hyperparameters and no fantasy sampling.
type ExpectedImprovement struct{}

func (*ExpectedImprovement) Family() Family { return FamilyExpectedImprovement }
func (*ExpectedImprovement) isConfig()      {}

// MarshalJSON implements json.Marshaler.
func (*ExpectedImprovement) MarshalJSON() ([]byte, error) {
	return json.Marshal(plainWire{Type: FamilyExpectedImprovement})
}

type hypervolumeWire struct {
	Type         Family  `json:"type"`
	FantasyCount int     `json:"num_fantasies"`
	Alpha        float64 `json:"alpha"`
}

type noisyWire struct {
	Type          Family `json:"type"`
	FantasyCount  int    `json:"num_fantasies"`
	PruneBaseline bool   `json:"prune_baseline"`
}

type plainWire struct {
	Type Family `json:"type"`
}

// Decode builds a Config from its wire form. Unknown keys and unknown
// families are rejected.
func Decode(m map[string]interface{}) (Config, error) {
	tag, _ := m[optimization.TypeKey].(string)
	switch Family(tag) {
	case FamilyHypervolumeImprovement:
		var w hypervolumeWire
		if err := optimization.DecodeStrict(m, &w); err != nil {
			return nil, err
		}
		if w.FantasyCount < 1 {
			return nil, fmt.Errorf("num_fantasies must be positive")
		}
		if w.Alpha < 0 || w.Alpha >= 1 {
			return nil, fmt.Errorf("alpha must be in [0, 1), got %g", w.Alpha)
		}
		return &HypervolumeImprovement{FantasyCount: w.FantasyCount, Alpha: w.Alpha}, nil

	case FamilyNoisyExpectedImprovement:
		var w noisyWire
		if err := optimization.DecodeStrict(m, &w); err != nil {
			return nil, err
		}
		if w.FantasyCount < 1 {
			return nil, fmt.Errorf("num_fantasies must be positive")
		}
		return &NoisyExpectedImprovement{FantasyCount: w.FantasyCount, PruneBaseline: w.PruneBaseline}, nil

	case FamilyExpectedImprovement:
		var w plainWire
		if err := optimization.DecodeStrict(m, &w); err != nil {
			return nil, err
		}
		return &ExpectedImprovement{}, nil

	default:
		return nil, fmt.Errorf("unknown acquisition function type %q", tag)
	}
}
