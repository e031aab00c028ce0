package service

import (
	"fmt"
	"math"

	"github.com/silviu20/Web-App-sub001/internal/engine"
	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
	"github.com/silviu20/Web-App-sub001/internal/optimization/synthesis"
	"github.com/silviu20/Web-App-sub001/internal/store"
)

// ExperimentInput declares an experiment.
type ExperimentInput struct {
	Name        string                  `json:"name"`
	Parameters  []searchspace.Parameter `json:"parameters"`
	Objective   objective.Descriptor    `json:"objective"`
	Constraints []engine.Constraint     `json:"constraints,omitempty"`

	// NoisyObservations falls back to the service default when unset.
	NoisyObservations *bool                  `json:"noisy_observations,omitempty"`
	Override          *optimization.Override `json:"user_override,omitempty"`

	// GPUAvailable and PriorMeasurementCount only apply to previews.
	GPUAvailable          *bool `json:"gpu_available,omitempty"`
	PriorMeasurementCount int   `json:"prior_measurement_count,omitempty"`
}

// Request pairs the declarations with runtime hints.
func (in ExperimentInput) Request(h optimization.Hints) synthesis.Request {
	return synthesis.Request{Parameters: in.Parameters, Objective: in.Objective, Hints: h}
}

// Validate checks the declarations, the override and the constraints.
func (in ExperimentInput) Validate() error {
	req := in.Request(optimization.Hints{
		PriorMeasurementCount: in.PriorMeasurementCount,
		NoisyObservations:     in.NoisyObservations,
		UserOverride:          in.Override,
	})
	if err := req.Validate(); err != nil {
		return err
	}

	known := parameterNames(in.Parameters)
	for i, c := range in.Constraints {
		field := fmt.Sprintf("constraints[%d]", i)
		if c.Type == "" {
			return optimization.NewValidationError(optimization.InvariantConstraint,
				"constraint type is required").WithField(field + ".type")
		}
		if len(c.Parameters) == 0 {
			return optimization.NewValidationError(optimization.InvariantConstraint,
				"constraint references no parameters").WithField(field + ".parameters")
		}
		for _, name := range c.Parameters {
			if _, ok := known[name]; !ok {
				return optimization.NewValidationError(optimization.InvariantConstraint,
					"constraint references unknown parameter %q", name).WithField(field + ".parameters")
			}
		}
		if len(c.Coefficients) > 0 && len(c.Coefficients) != len(c.Parameters) {
			return optimization.NewValidationError(optimization.InvariantConstraint,
				"constraint has %d coefficients for %d parameters", len(c.Coefficients), len(c.Parameters)).
				WithField(field + ".coefficients")
		}
	}
	return nil
}

// validateMeasurements requires every measurement to assign every declared
// parameter and report a finite value for every target.
func validateMeasurements(o store.Optimization, ms []engine.Measurement) error {
	if len(ms) == 0 {
		return optimization.NewValidationError(optimization.InvariantMeasurement,
			"at least one measurement is required").WithField("measurements")
	}

	known := parameterNames(o.Parameters)
	for i, m := range ms {
		field := fmt.Sprintf("measurements[%d]", i)
		for name := range m.Parameters {
			if _, ok := known[name]; !ok {
				return optimization.NewValidationError(optimization.InvariantMeasurement,
					"unknown parameter %q", name).WithField(field + ".parameters")
			}
		}
		for name := range known {
			if _, ok := m.Parameters[name]; !ok {
				return optimization.NewValidationError(optimization.InvariantMeasurement,
					"missing parameter %q", name).WithField(field + ".parameters")
			}
		}
		for _, t := range o.Objective.Targets {
			v, ok := m.TargetValues[t.Name]
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				return optimization.NewValidationError(optimization.InvariantMeasurement,
					"missing or non-finite value for target %q", t.Name).WithField(field + ".target_values")
			}
		}
	}
	return nil
}

func parameterNames(params []searchspace.Parameter) map[string]struct{} {
	out := make(map[string]struct{}, len(params))
	for _, p := range params {
		out[p.Name] = struct{}{}
	}
	return out
}
