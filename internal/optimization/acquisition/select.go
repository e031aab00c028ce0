package acquisition

import (
	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/recommender"
)

const (
	FantasyCountCPU = 32
	FantasyCountGPU = 64

	HypervolumeAlpha = 0.05
)

// Rule names the selection rule that produced a configuration.
type Rule string

const (
	RuleOverride Rule = "override"
	RulePareto   Rule = "pareto"
	RuleNoisy    Rule = "noisy"
	RuleDefault  Rule = "default"
)

// Select returns the acquisition function paired to rec. It must be called
// with the same objective and hints that produced rec.
func Select(o objective.Descriptor, rec recommender.Config, h optimization.Hints) Config {
	cfg, _ := SelectWithRule(o, rec, h)
	return cfg
}

// SelectWithRule is Select that also reports which rule matched. The first
// matching rule wins:
//
//  1. a user override is deep-merged onto the noisy default
//  2. Pareto objectives, or recommenders with a multi-output surrogate, get
//     hypervolume improvement
//  3. noisy observations (the default) get noisy expected improvement
//  4. anything else gets plain expected improvement
func SelectWithRule(o objective.Descriptor, rec recommender.Config, h optimization.Hints) (Config, Rule) {
	if ov := h.AcquisitionOverride(); ov != nil {
		cfg, err := applyOverride(NoisyDefault(h), ov, h)
		if err != nil {
			return NoisyDefault(h), RuleOverride
		}
		return cfg, RuleOverride
	}

	if o.IsPareto() || multiOutput(rec) {
		return &HypervolumeImprovement{FantasyCount: fantasyCount(h), Alpha: HypervolumeAlpha}, RulePareto
	}

	if h.Noisy() {
		return NoisyDefault(h), RuleNoisy
	}

	return &ExpectedImprovement{}, RuleDefault
}

// NoisyDefault is the acquisition function overrides are merged onto.
func NoisyDefault(h optimization.Hints) *NoisyExpectedImprovement {
	return &NoisyExpectedImprovement{FantasyCount: fantasyCount(h), PruneBaseline: true}
}

// ValidateOverride reports whether the acquisition override in h merges onto
// NoisyDefault into a well-formed configuration.
func ValidateOverride(h optimization.Hints) error {
	ov := h.AcquisitionOverride()
	if ov == nil {
		return nil
	}
	if _, err := applyOverride(NoisyDefault(h), ov, h); err != nil {
		return optimization.WrapValidationError(err, optimization.InvariantOverride,
			"acquisition override does not describe a valid acquisition function").WithField("hints.user_override.acquisition_function")
	}
	return nil
}

// CheckCompatible reports whether acq can drive the surrogate of rec.
// Hypervolume improvement needs a multi-output surrogate and a multi-output
// surrogate needs hypervolume improvement. Recommenders that never fit a
// model accept anything.
func CheckCompatible(rec recommender.Config, acq Config) error {
	mb := recommender.ModelBasedOf(rec)
	if mb == nil {
		return nil
	}
	hv := acq.Family() == FamilyHypervolumeImprovement
	mo := mb.Surrogate == recommender.SurrogateMultiOutput
	if hv != mo {
		return optimization.NewValidationError(optimization.InvariantCompatibility,
			"acquisition function %s cannot drive surrogate %s", acq.Family(), mb.Surrogate)
	}
	return nil
}

func multiOutput(rec recommender.Config) bool {
	mb := recommender.ModelBasedOf(rec)
	return mb != nil && mb.Surrogate == recommender.SurrogateMultiOutput
}

func fantasyCount(h optimization.Hints) int {
	if h.GPUAvailable {
		return FantasyCountGPU
	}
	return FantasyCountCPU
}

func applyOverride(def Config, override map[string]interface{}, h optimization.Hints) (Config, error) {
	base, err := optimization.ToMap(def)
	if err != nil {
		return nil, err
	}
	return Decode(optimization.MergeVariants(base, override, variantDefaults(h)))
}

// variantDefaults gives each family the parameters selection would compute
// for it, so an override switching family only replaces what it names.
func variantDefaults(h optimization.Hints) optimization.VariantDefaults {
	return func(typ string) (map[string]interface{}, bool) {
		var def Config
		switch Family(typ) {
		case FamilyHypervolumeImprovement:
			def = &HypervolumeImprovement{FantasyCount: fantasyCount(h), Alpha: HypervolumeAlpha}
		case FamilyNoisyExpectedImprovement:
			def = NoisyDefault(h)
		case FamilyExpectedImprovement:
			def = &ExpectedImprovement{}
		default:
			return nil, false
		}
		m, err := optimization.ToMap(def)
		return m, err == nil
	}
}
