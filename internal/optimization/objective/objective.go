// Package objective describes the optimization goal of an experiment.
package objective

import (
	"fmt"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
)

// Kind distinguishes single-target from multi-target objectives.
type Kind string

const (
	KindSingle Kind = "SingleTargetObjective"
	KindPareto Kind = "ParetoObjective"
)

// Mode is the optimization direction of a target.
type Mode string

const (
	ModeMax   Mode = "MAX"
	ModeMin   Mode = "MIN"
	ModeMatch Mode = "MATCH"
)

// Target is a measured output of an experiment.
type Target struct {
	Name string `json:"name"`
	Mode Mode   `json:"mode"`
	// Bounds are required for MATCH targets and optional otherwise.
	Bounds *searchspace.Bounds `json:"bounds,omitempty"`
	// Weight applies to Pareto objectives only.
	Weight float64 `json:"weight,omitempty"`
	// Transformation names the engine-side transform, e.g. "LINEAR".
	Transformation string `json:"transformation,omitempty"`
}

// Descriptor is the optimization goal.
type Descriptor struct {
	Kind    Kind     `json:"type"`
	Targets []Target `json:"targets"`
}

// Single returns a single-target objective.
func Single(name string, mode Mode) Descriptor {
	return Descriptor{Kind: KindSingle, Targets: []Target{{Name: name, Mode: mode}}}
}

// Pareto returns a multi-target objective with unit weights.
func Pareto(targets ...Target) Descriptor {
	out := make([]Target, len(targets))
	for i, t := range targets {
		if t.Weight == 0 {
			t.Weight = 1
		}
		out[i] = t
	}
	return Descriptor{Kind: KindPareto, Targets: out}
}

// IsPareto reports whether the objective has multiple targets.
func (d Descriptor) IsPareto() bool {
	return d.Kind == KindPareto
}

// Validate checks the structural invariants of the objective.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindSingle:
		if len(d.Targets) != 1 {
			return optimization.NewValidationError(optimization.InvariantTargetCount,
				"single-target objectives need exactly 1 target, got %d", len(d.Targets)).WithField("objective.targets")
		}
	case KindPareto:
		if len(d.Targets) < 2 {
			return optimization.NewValidationError(optimization.InvariantTargetCount,
				"pareto objectives need at least 2 targets, got %d", len(d.Targets)).WithField("objective.targets")
		}
	default:
		return optimization.NewValidationError(optimization.InvariantTargetCount,
			"unknown objective type %q", d.Kind).WithField("objective.type")
	}

	seen := make(map[string]bool, len(d.Targets))
	for i, t := range d.Targets {
		field := fmt.Sprintf("objective.targets[%d]", i)
		if t.Name == "" || seen[t.Name] {
			return optimization.NewValidationError(optimization.InvariantUniqueTargetName,
				"target name %q is empty or repeated", t.Name).WithField(field + ".name")
		}
		seen[t.Name] = true

		switch t.Mode {
		case ModeMax, ModeMin:
		case ModeMatch:
			if t.Bounds == nil || !(t.Bounds.Lower < t.Bounds.Upper) {
				return optimization.NewValidationError(optimization.InvariantMatchBounds,
					"match target %q needs bounds with lower < upper", t.Name).WithField(field + ".bounds")
			}
		default:
			return optimization.NewValidationError(optimization.InvariantTargetMode,
				"target %q has unknown mode %q", t.Name, t.Mode).WithField(field + ".mode")
		}

		if t.Weight < 0 {
			return optimization.NewValidationError(optimization.InvariantTargetWeight,
				"target %q has negative weight %g", t.Name, t.Weight).WithField(field + ".weight")
		}
	}
	return nil
}

// Weights returns the per-target weights of a Pareto objective, or nil.
func (d Descriptor) Weights() []float64 {
	if !d.IsPareto() {
		return nil
	}
	w := make([]float64, len(d.Targets))
	for i, t := range d.Targets {
		w[i] = t.Weight
	}
	return w
}
