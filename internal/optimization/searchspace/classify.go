package searchspace

// Classification summarizes the structure of a search space. It is derived
// from the parameters on every call and never cached.
type Classification struct {
	Dimensionality int  `json:"dimensionality"`
	HasDiscrete    bool `json:"has_discrete"`
	HasContinuous  bool `json:"has_continuous"`
	IsHybrid       bool `json:"is_hybrid"`
}

// Classify reports the structural properties of parameters. Substance
// parameters count toward the dimensionality only.
func Classify(parameters []Parameter) Classification {
	c := Classification{Dimensionality: len(parameters)}
	for _, p := range parameters {
		if p.IsDiscrete() {
			c.HasDiscrete = true
		}
		if p.IsContinuous() {
			c.HasContinuous = true
		}
	}
	c.IsHybrid = c.HasDiscrete && c.HasContinuous
	return c
}
