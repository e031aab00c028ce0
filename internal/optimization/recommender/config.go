// Package recommender selects and parameterizes the strategy the optimization
// engine uses to propose new experiments.
package recommender

import (
	"encoding/json"
	"fmt"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
)

// Strategy is the wire tag of a recommender variant.
type Strategy string

const (
	// StrategySpaceFilling samples the search space without a model.
	StrategySpaceFilling Strategy = "FPSRecommender"
	// StrategyModelBased fits a surrogate and optimizes an acquisition function.
	StrategyModelBased Strategy = "BotorchRecommender"
	// StrategyTwoPhase starts with one recommender and switches to another.
	StrategyTwoPhase Strategy = "TwoPhaseMetaRecommender"
)

// Surrogate is the statistical model a model-based recommender fits.
type Surrogate string

const (
	SurrogateSingleOutput Surrogate = "GaussianProcessSurrogate"
	SurrogateMultiOutput  Surrogate = "MultiOutputGaussianProcessSurrogate"
)

// Config is a synthesized recommender configuration. It is one of
// *SpaceFilling, *ModelBased or *TwoPhase; values are never mutated after
// construction.
type Config interface {
	Strategy() Strategy
	isConfig()
}

// SpaceFilling is a data-free sampler.
type SpaceFilling struct{}

func (*SpaceFilling) Strategy() Strategy { return StrategySpaceFilling }
func (*SpaceFilling) isConfig()          {}

// MarshalJSON implements json.Marshaler.
func (*SpaceFilling) MarshalJSON() ([]byte, error) {
	return json.Marshal(spaceFillingWire{Type: StrategySpaceFilling})
}

// ModelBased fits a surrogate to prior measurements.
type ModelBased struct {
	Surrogate      Surrogate
	RestartCount   int
	RawSampleCount int
	// HybridSpaceHandler lets the engine pick a joint discrete/continuous
	// optimizer. Empty for non-hybrid spaces.
	HybridSpaceHandler string
}

func (*ModelBased) Strategy() Strategy { return StrategyModelBased }
func (*ModelBased) isConfig()          {}

// MarshalJSON implements json.Marshaler.
func (m *ModelBased) MarshalJSON() ([]byte, error) {
	return json.Marshal(modelBasedWire{
		Type:               StrategyModelBased,
		Surrogate:          m.Surrogate,
		RestartCount:       m.RestartCount,
		RawSampleCount:     m.RawSampleCount,
		HybridSpaceHandler: m.HybridSpaceHandler,
	})
}

// TwoPhase runs Initial until SwitchAfterMeasurementCount measurements
// exist, then Recommender.
type TwoPhase struct {
	Initial                     Config
	Recommender                 Config
	SwitchAfterMeasurementCount int
	// RemainSwitchedOnceTriggered keeps Recommender active even if
	// measurements are later removed.
	RemainSwitchedOnceTriggered bool
}

func (*TwoPhase) Strategy() Strategy { return StrategyTwoPhase }
func (*TwoPhase) isConfig()          {}

// MarshalJSON implements json.Marshaler.
func (t *TwoPhase) MarshalJSON() ([]byte, error) {
	initial, err := json.Marshal(t.Initial)
	if err != nil {
		return nil, err
	}
	follow, err := json.Marshal(t.Recommender)
	if err != nil {
		return nil, err
	}
	return json.Marshal(twoPhaseWire{
		Type:           StrategyTwoPhase,
		Initial:        initial,
		Recommender:    follow,
		SwitchAfter:    t.SwitchAfterMeasurementCount,
		RemainSwitched: t.RemainSwitchedOnceTriggered,
	})
}

type spaceFillingWire struct {
	Type Strategy `json:"type"`
}

type modelBasedWire struct {
	Type               Strategy  `json:"type"`
	Surrogate          Surrogate `json:"surrogate_model"`
	RestartCount       int       `json:"n_restarts"`
	RawSampleCount     int       `json:"n_raw_samples"`
	HybridSpaceHandler string    `json:"hybrid_sampler,omitempty"`
}

type twoPhaseWire struct {
	Type           Strategy        `json:"type"`
	Initial        json.RawMessage `json:"initial_recommender"`
	Recommender    json.RawMessage `json:"recommender"`
	SwitchAfter    int             `json:"switch_after"`
	RemainSwitched bool            `json:"remain_switched"`
}

// Decode builds a Config from its wire form. Unknown keys and unknown
// strategies are rejected.
func Decode(m map[string]interface{}) (Config, error) {
	tag, _ := m[optimization.TypeKey].(string)
	switch Strategy(tag) {
	case StrategySpaceFilling:
		var w spaceFillingWire
		if err := optimization.DecodeStrict(m, &w); err != nil {
			return nil, err
		}
		return &SpaceFilling{}, nil

	case StrategyModelBased:
		var w modelBasedWire
		if err := optimization.DecodeStrict(m, &w); err != nil {
			return nil, err
		}
		switch w.Surrogate {
		case SurrogateSingleOutput, SurrogateMultiOutput:
		default:
			return nil, fmt.Errorf("unknown surrogate model %q", w.Surrogate)
		}
		if w.RestartCount < 1 || w.RawSampleCount < 1 {
			return nil, fmt.Errorf("n_restarts and n_raw_samples must be positive")
		}
		return &ModelBased{
			Surrogate:          w.Surrogate,
			RestartCount:       w.RestartCount,
			RawSampleCount:     w.RawSampleCount,
			HybridSpaceHandler: w.HybridSpaceHandler,
		}, nil

	case StrategyTwoPhase:
		var w struct {
			Type           Strategy               `json:"type"`
			Initial        map[string]interface{} `json:"initial_recommender"`
			Recommender    map[string]interface{} `json:"recommender"`
			SwitchAfter    int                    `json:"switch_after"`
			RemainSwitched bool                   `json:"remain_switched"`
		}
		if err := optimization.DecodeStrict(m, &w); err != nil {
			return nil, err
		}
		if w.SwitchAfter < 0 {
			return nil, fmt.Errorf("switch_after must not be negative")
		}
		initial, err := Decode(w.Initial)
		if err != nil {
			return nil, fmt.Errorf("initial_recommender: %w", err)
		}
		follow, err := Decode(w.Recommender)
		if err != nil {
			return nil, fmt.Errorf("recommender: %w", err)
		}
		return &TwoPhase{
			Initial:                     initial,
			Recommender:                 follow,
			SwitchAfterMeasurementCount: w.SwitchAfter,
			RemainSwitchedOnceTriggered: w.RemainSwitched,
		}, nil

	default:
		return nil, fmt.Errorf("unknown recommender type %q", tag)
	}
}

// ModelBasedOf returns the model-based recommender that eventually runs under
// cfg, or nil when cfg never fits a model.
func ModelBasedOf(cfg Config) *ModelBased {
	switch c := cfg.(type) {
	case *ModelBased:
		return c
	case *TwoPhase:
		if mb := ModelBasedOf(c.Recommender); mb != nil {
			return mb
		}
		return ModelBasedOf(c.Initial)
	case *SpaceFilling:
		return nil
	default:
		panic(fmt.Sprintf("recommender: unhandled config %T", cfg))
	}
}
