// Package optimization holds the value types shared by the configuration
// synthesizer: runtime hints, user overrides and validation errors.
package optimization

// Hints are caller-supplied facts about the environment an optimization will
// run in. GPU availability and the measurement count are resolved again on
// every synthesis.
type Hints struct {
	// GPUAvailable reports whether the engine advertises GPU usage.
	GPUAvailable bool `json:"gpu_available"`

	// PriorMeasurementCount is the number of measurements already recorded
	// for the optimization.
	PriorMeasurementCount int `json:"prior_measurement_count"`

	// NoisyObservations reports whether target observations are noisy.
	// Nil means noisy.
	NoisyObservations *bool `json:"noisy_observations,omitempty"`

	// UserOverride, when set, takes precedence over every selection rule.
	UserOverride *Override `json:"user_override,omitempty"`
}

// Noisy resolves NoisyObservations, treating an unset flag as true.
func (h Hints) Noisy() bool {
	if h.NoisyObservations == nil {
		return true
	}
	return *h.NoisyObservations
}

// Override is a partial configuration expressed in the engine's wire format.
// Each map is deep-merged onto the corresponding default.
type Override struct {
	Recommender map[string]interface{} `json:"recommender,omitempty"`
	Acquisition map[string]interface{} `json:"acquisition_function,omitempty"`
}

// RecommenderOverride returns the recommender part of the override, or nil.
func (h Hints) RecommenderOverride() map[string]interface{} {
	if h.UserOverride == nil || len(h.UserOverride.Recommender) == 0 {
		return nil
	}
	return h.UserOverride.Recommender
}

// AcquisitionOverride returns the acquisition part of the override, or nil.
func (h Hints) AcquisitionOverride() map[string]interface{} {
	if h.UserOverride == nil || len(h.UserOverride.Acquisition) == 0 {
		return nil
	}
	return h.UserOverride.Acquisition
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
