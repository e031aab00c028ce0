// Package synthesis turns declarative experiment inputs into the recommender
// and acquisition function configuration handed to the optimization engine.
package synthesis

import (
	"encoding/json"
	"fmt"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/acquisition"
	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/recommender"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
)

// Request holds everything the synthesizer reads.
type Request struct {
	Parameters []searchspace.Parameter `json:"parameters"`
	Objective  objective.Descriptor    `json:"objective"`
	Hints      optimization.Hints      `json:"hints"`
}

// Result is a synthesized configuration pair.
type Result struct {
	Classification  searchspace.Classification
	Recommender     recommender.Config
	RecommenderRule recommender.Rule
	Acquisition     acquisition.Config
	AcquisitionRule acquisition.Rule
}

// Synthesize classifies the search space, then selects the recommender and
// the acquisition function paired to it. It is pure; equal requests give
// equal results.
func Synthesize(req Request) Result {
	c := searchspace.Classify(req.Parameters)
	rec, recRule := recommender.SelectWithRule(c, req.Objective, req.Hints)
	acq, acqRule := acquisition.SelectWithRule(req.Objective, rec, req.Hints)
	return Result{
		Classification:  c,
		Recommender:     rec,
		RecommenderRule: recRule,
		Acquisition:     acq,
		AcquisitionRule: acqRule,
	}
}

// Validate checks everything Synthesize assumes about its input. Overrides
// are additionally checked for surrogate/acquisition compatibility.
func (req Request) Validate() error {
	if err := searchspace.Validate(req.Parameters); err != nil {
		return err
	}
	if err := req.Objective.Validate(); err != nil {
		return err
	}
	if req.Hints.PriorMeasurementCount < 0 {
		return optimization.NewValidationError(optimization.InvariantMeasurementCount,
			"prior measurement count must not be negative, got %d", req.Hints.PriorMeasurementCount).
			WithField("hints.prior_measurement_count")
	}

	c := searchspace.Classify(req.Parameters)
	if err := recommender.ValidateOverride(c, req.Objective, req.Hints); err != nil {
		return err
	}
	if err := acquisition.ValidateOverride(req.Hints); err != nil {
		return err
	}
	if req.Hints.UserOverride != nil {
		res := Synthesize(req)
		if err := acquisition.CheckCompatible(res.Recommender, res.Acquisition); err != nil {
			return err
		}
	}
	return nil
}

// EngineConfig returns the engine's recommender_config: the recommender in
// wire form with the acquisition function nested into every model-based
// recommender.
func (r Result) EngineConfig() (map[string]interface{}, error) {
	rec, err := optimization.ToMap(r.Recommender)
	if err != nil {
		return nil, fmt.Errorf("encoding recommender: %w", err)
	}
	acq, err := optimization.ToMap(r.Acquisition)
	if err != nil {
		return nil, fmt.Errorf("encoding acquisition function: %w", err)
	}
	nestAcquisition(rec, acq)
	return rec, nil
}

func nestAcquisition(rec, acq map[string]interface{}) {
	switch recommender.Strategy(fmt.Sprint(rec[optimization.TypeKey])) {
	case recommender.StrategyModelBased:
		rec["acquisition_function"] = optimization.DeepMerge(acq, nil)
	case recommender.StrategyTwoPhase:
		for _, key := range []string{"initial_recommender", "recommender"} {
			if inner, ok := rec[key].(map[string]interface{}); ok {
				nestAcquisition(inner, acq)
			}
		}
	}
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Classification  searchspace.Classification `json:"classification"`
		Recommender     recommender.Config         `json:"recommender_config"`
		RecommenderRule recommender.Rule           `json:"recommender_rule"`
		Acquisition     acquisition.Config         `json:"acquisition_function_config"`
		AcquisitionRule acquisition.Rule           `json:"acquisition_rule"`
	}{
		Classification:  r.Classification,
		Recommender:     r.Recommender,
		RecommenderRule: r.RecommenderRule,
		Acquisition:     r.Acquisition,
		AcquisitionRule: r.AcquisitionRule,
	})
}
