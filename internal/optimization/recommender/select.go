package recommender

import (
	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
)

// Model-based hyperparameter policy.
const (
	RestartCountCPU = 10
	RestartCountGPU = 20

	// BaseRawSampleCount is doubled once for each of: GPU available,
	// dimensionality above HighDimensionality, Pareto objective.
	BaseRawSampleCount = 64
	HighDimensionality = 10

	HybridSpaceHandlerAuto = "auto"
)

// Rule names the selection rule that produced a configuration.
type Rule string

const (
	RuleOverride Rule = "override"
	RuleNoData   Rule = "no-data"
	RuleHybrid   Rule = "hybrid"
	RulePareto   Rule = "pareto"
	RuleDefault  Rule = "default"
)

// Select returns the recommender configuration for the given search space,
// objective and hints. It is pure and total.
func Select(c searchspace.Classification, o objective.Descriptor, h optimization.Hints) Config {
	cfg, _ := SelectWithRule(c, o, h)
	return cfg
}

// SelectWithRule is Select that also reports which rule matched. The first
// matching rule wins:
//
//  1. a user override is deep-merged onto Default
//  2. no prior measurements yields Default, a two-phase strategy
//  3. hybrid spaces get a model-based strategy with an automatic hybrid handler
//  4. Pareto objectives get a model-based strategy with a multi-output surrogate
//  5. anything else gets a single-output model-based strategy
//
// The surrogate always follows the objective and the hybrid handler always
// follows the search space, so a hybrid Pareto problem gets both.
func SelectWithRule(c searchspace.Classification, o objective.Descriptor, h optimization.Hints) (Config, Rule) {
	if ov := h.RecommenderOverride(); ov != nil {
		cfg, err := applyOverride(c, o, h, ov)
		if err != nil {
			// Overrides are validated by the caller; an invalid one is ignored.
			return Default(c, o, h), RuleOverride
		}
		return cfg, RuleOverride
	}

	if h.PriorMeasurementCount == 0 {
		return Default(c, o, h), RuleNoData
	}

	rule := RuleDefault
	switch {
	case c.IsHybrid:
		rule = RuleHybrid
	case o.IsPareto():
		rule = RulePareto
	}
	return modelBased(c, o, h), rule
}

// Default is the strategy-agnostic configuration: a space-filling sampler that
// hands over to the model-based strategy appropriate for the search space as
// soon as any measurement exists, and never hands back.
func Default(c searchspace.Classification, o objective.Descriptor, h optimization.Hints) Config {
	return &TwoPhase{
		Initial:                     &SpaceFilling{},
		Recommender:                 modelBased(c, o, h),
		SwitchAfterMeasurementCount: 0,
		RemainSwitchedOnceTriggered: true,
	}
}

// ValidateOverride reports whether the recommender override in h merges onto
// Default into a well-formed configuration.
func ValidateOverride(c searchspace.Classification, o objective.Descriptor, h optimization.Hints) error {
	ov := h.RecommenderOverride()
	if ov == nil {
		return nil
	}
	if _, err := applyOverride(c, o, h, ov); err != nil {
		return optimization.WrapValidationError(err, optimization.InvariantOverride,
			"recommender override does not describe a valid recommender").WithField("hints.user_override.recommender")
	}
	return nil
}

func modelBased(c searchspace.Classification, o objective.Descriptor, h optimization.Hints) *ModelBased {
	mb := &ModelBased{
		Surrogate:      SurrogateSingleOutput,
		RestartCount:   RestartCountCPU,
		RawSampleCount: RawSampleCount(c, o, h),
	}
	if h.GPUAvailable {
		mb.RestartCount = RestartCountGPU
	}
	if o.IsPareto() {
		mb.Surrogate = SurrogateMultiOutput
	}
	if c.IsHybrid {
		mb.HybridSpaceHandler = HybridSpaceHandlerAuto
	}
	return mb
}

// RawSampleCount applies each difficulty adjustment as an independent
// doubling of BaseRawSampleCount.
func RawSampleCount(c searchspace.Classification, o objective.Descriptor, h optimization.Hints) int {
	n := BaseRawSampleCount
	if h.GPUAvailable {
		n *= 2
	}
	if c.Dimensionality > HighDimensionality {
		n *= 2
	}
	if o.IsPareto() {
		n *= 2
	}
	return n
}

func applyOverride(c searchspace.Classification, o objective.Descriptor, h optimization.Hints, override map[string]interface{}) (Config, error) {
	base, err := optimization.ToMap(Default(c, o, h))
	if err != nil {
		return nil, err
	}
	return Decode(optimization.MergeVariants(base, override, variantDefaults(c, o, h)))
}

// variantDefaults gives each strategy the configuration selection would
// compute for it, so an override switching strategy only replaces what it
// names.
func variantDefaults(c searchspace.Classification, o objective.Descriptor, h optimization.Hints) optimization.VariantDefaults {
	return func(typ string) (map[string]interface{}, bool) {
		var def Config
		switch Strategy(typ) {
		case StrategySpaceFilling:
			def = &SpaceFilling{}
		case StrategyModelBased:
			def = modelBased(c, o, h)
		case StrategyTwoPhase:
			def = Default(c, o, h)
		default:
			return nil, false
		}
		m, err := optimization.ToMap(def)
		return m, err == nil
	}
}
