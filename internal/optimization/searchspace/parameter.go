// Package searchspace describes the optimizable inputs of an experiment and
// classifies their structure.
package searchspace

// Kind identifies the kind of a parameter.
type Kind string

const (
	// KindDiscrete is a numeric parameter restricted to a finite value set.
	KindDiscrete Kind = "NumericalDiscreteParameter"
	// KindContinuous is a numeric parameter within closed bounds.
	KindContinuous Kind = "NumericalContinuousParameter"
	// KindCategorical is a parameter drawn from a set of labels.
	KindCategorical Kind = "CategoricalParameter"
	// KindSubstance is a molecular parameter identified by SMILES strings.
	KindSubstance Kind = "SubstanceParameter"
)

// Encoding is the scheme the engine uses to encode categorical values.
type Encoding string

const (
	EncodingOneHot Encoding = "OHE"
	EncodingInt    Encoding = "INT"
)

// Bounds is a closed numeric interval.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Parameter is a declared optimizable input.
type Parameter struct {
	Name string `json:"name"`
	Kind Kind   `json:"type"`

	// Values holds the allowed values of a discrete parameter.
	Values []float64 `json:"values,omitempty"`
	// Tolerance is the accepted deviation when matching discrete values.
	Tolerance *float64 `json:"tolerance,omitempty"`

	// Bounds holds the interval of a continuous parameter.
	Bounds *Bounds `json:"bounds,omitempty"`

	// Categories holds the labels of a categorical parameter.
	Categories []string `json:"categories,omitempty"`
	// Encoding applies to categorical and substance parameters.
	Encoding Encoding `json:"encoding,omitempty"`

	// Substances maps substance labels to SMILES strings.
	Substances map[string]string `json:"data,omitempty"`
}

// IsDiscrete reports whether the parameter takes values from a finite set
// for classification purposes.
func (p Parameter) IsDiscrete() bool {
	return p.Kind == KindDiscrete || p.Kind == KindCategorical
}

// IsContinuous reports whether the parameter is continuous-numeric.
func (p Parameter) IsContinuous() bool {
	return p.Kind == KindContinuous
}

// Discrete declares a discrete numeric parameter.
func Discrete(name string, values ...float64) Parameter {
	return Parameter{Name: name, Kind: KindDiscrete, Values: values}
}

// Continuous declares a continuous numeric parameter.
func Continuous(name string, lower, upper float64) Parameter {
	return Parameter{Name: name, Kind: KindContinuous, Bounds: &Bounds{Lower: lower, Upper: upper}}
}

// Categorical declares a categorical parameter with one-hot encoding.
func Categorical(name string, categories ...string) Parameter {
	return Parameter{Name: name, Kind: KindCategorical, Categories: categories, Encoding: EncodingOneHot}
}
