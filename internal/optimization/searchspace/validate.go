package searchspace

import (
	"fmt"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
)

// Validate checks the structural invariants of a parameter set. Classify
// does not validate; callers run this first.
func Validate(parameters []Parameter) error {
	seen := make(map[string]int, len(parameters))
	for i, p := range parameters {
		field := fmt.Sprintf("parameters[%d]", i)

		if p.Name == "" {
			return optimization.NewValidationError(optimization.InvariantUniqueParameterName,
				"parameter name must not be empty").WithField(field + ".name")
		}
		if j, ok := seen[p.Name]; ok {
			return optimization.NewValidationError(optimization.InvariantUniqueParameterName,
				"parameter %q is also declared at index %d", p.Name, j).WithField(field + ".name")
		}
		seen[p.Name] = i

		if err := validateParameter(p, field); err != nil {
			return err
		}
	}
	return nil
}

func validateParameter(p Parameter, field string) error {
	switch p.Kind {
	case KindContinuous:
		if p.Bounds == nil {
			return optimization.NewValidationError(optimization.InvariantContinuousBounds,
				"continuous parameter %q has no bounds", p.Name).WithField(field + ".bounds")
		}
		if !(p.Bounds.Lower < p.Bounds.Upper) {
			return optimization.NewValidationError(optimization.InvariantContinuousBounds,
				"continuous parameter %q needs lower < upper, got [%g, %g]", p.Name, p.Bounds.Lower, p.Bounds.Upper).
				WithField(field + ".bounds")
		}
	case KindDiscrete:
		if len(p.Values) == 0 {
			return optimization.NewValidationError(optimization.InvariantNonEmptyValues,
				"discrete parameter %q has no values", p.Name).WithField(field + ".values")
		}
		if p.Tolerance != nil && *p.Tolerance < 0 {
			return optimization.NewValidationError(optimization.InvariantTolerance,
				"discrete parameter %q has negative tolerance %g", p.Name, *p.Tolerance).WithField(field + ".tolerance")
		}
	case KindCategorical:
		if len(p.Categories) == 0 {
			return optimization.NewValidationError(optimization.InvariantNonEmptyValues,
				"categorical parameter %q has no categories", p.Name).WithField(field + ".categories")
		}
	case KindSubstance:
		if len(p.Substances) == 0 {
			return optimization.NewValidationError(optimization.InvariantNonEmptyValues,
				"substance parameter %q has no substances", p.Name).WithField(field + ".data")
		}
	default:
		return optimization.NewValidationError(optimization.InvariantParameterKind,
			"parameter %q has unknown type %q", p.Name, p.Kind).WithField(field + ".type")
	}
	return nil
}
