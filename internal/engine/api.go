// Package engine is the client of the external optimization engine. The
// engine owns suggestion computation, surrogate training and inference; this
// package only moves declarations, configurations and measurements over HTTP.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
)

const (
	endpointHealth     = "/health"
	endpointOptimizers = "/optimizers"
)

// API is the optimization engine's HTTP API.
type API interface {
	// Health never fails: an unreachable or slow engine reports StatusUnavailable.
	Health(ctx context.Context) Health
	CreateOptimizer(ctx context.Context, req CreateRequest) (CreateResponse, error)
	DeleteOptimizer(ctx context.Context, id string) error
	Suggest(ctx context.Context, id string, batchSize int) ([]Point, error)
	AddMeasurement(ctx context.Context, id string, m Measurement) error
	AddMeasurements(ctx context.Context, id string, ms []Measurement) error
	BestPoint(ctx context.Context, id string) (BestPoint, error)
	FeatureImportance(ctx context.Context, id string) (FeatureImportance, error)
	Predict(ctx context.Context, id string, points []Point) ([]Prediction, error)
}

// Health statuses.
const (
	StatusHealthy     = "healthy"
	StatusUnavailable = "unavailable"
)

// Health is the engine's availability report.
type Health struct {
	Status   string `json:"status"`
	UsingGPU bool   `json:"using_gpu"`
	Version  string `json:"version,omitempty"`
}

// Available reports whether the engine answered its health check.
func (h Health) Available() bool {
	return h.Status == StatusHealthy
}

// Point maps parameter names to numeric or categorical values.
type Point map[string]interface{}

// Constraint restricts the search space. Only the fields relevant to Type
// are set.
type Constraint struct {
	Type         string    `json:"type"`
	Parameters   []string  `json:"parameters"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Operator     string    `json:"operator,omitempty"`
	RHS          *float64  `json:"rhs,omitempty"`
}

// TargetConfig is the engine's view of the objective.
type TargetConfig struct {
	Type    objective.Kind     `json:"type"`
	Targets []objective.Target `json:"targets"`
	Weights []float64          `json:"weights,omitempty"`
}

// NewTargetConfig converts an objective into its wire form.
func NewTargetConfig(o objective.Descriptor) TargetConfig {
	return TargetConfig{Type: o.Kind, Targets: o.Targets, Weights: o.Weights()}
}

// CreateRequest is the body of POST /optimizers.
type CreateRequest struct {
	OptimizerID       string                  `json:"optimizer_id"`
	Parameters        []searchspace.Parameter `json:"parameters"`
	TargetConfig      TargetConfig            `json:"target_config"`
	RecommenderConfig map[string]interface{}  `json:"recommender_config"`
	Constraints       []Constraint            `json:"constraints"`
}

// CreateResponse is the engine's answer to POST /optimizers.
type CreateResponse struct {
	OptimizerID string `json:"optimizer_id"`
	Status      string `json:"status,omitempty"`
}

// Measurement is an observed outcome of a suggested point.
type Measurement struct {
	Parameters   Point              `json:"parameters"`
	TargetValues map[string]float64 `json:"target_values"`
}

// BestPoint is the engine's current best estimate.
type BestPoint struct {
	Parameters   Point              `json:"best_parameters"`
	TargetValues map[string]float64 `json:"best_values"`
}

// FeatureImportance maps parameter names to relative importance.
type FeatureImportance struct {
	Importances map[string]float64 `json:"feature_importances"`
}

// Prediction is the surrogate's posterior at one point.
type Prediction struct {
	Mean map[string]float64 `json:"mean"`
	Std  map[string]float64 `json:"std"`
}

// ErrorType classifies engine failures.
type ErrorType string

const (
	ErrOptimizerNotFound ErrorType = "optimizer-not-found"
	ErrOptimizerConflict ErrorType = "optimizer-conflict"
	ErrInvalidRequest    ErrorType = "invalid-request"
	ErrUnavailable       ErrorType = "unavailable"
	ErrUnexpected        ErrorType = "unexpected"
)

// Error represents an engine error response.
type Error struct {
	Type       ErrorType `json:"-"`
	Message    string    `json:"error"`
	StatusCode int       `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return string(e.Type)
}

// IsType reports whether err is an engine error of type t.
func IsType(err error, t ErrorType) bool {
	var eerr *Error
	if errors.As(err, &eerr) {
		return eerr.Type == t
	}
	return false
}

func newError(resp *http.Response, body []byte) *Error {
	e := &Error{StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusNotFound:
		e.Type = ErrOptimizerNotFound
	case http.StatusConflict:
		e.Type = ErrOptimizerConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e.Type = ErrInvalidRequest
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		e.Type = ErrUnavailable
	default:
		e.Type = ErrUnexpected
	}

	var payload struct {
		Error   string          `json:"error"`
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			e.Message = payload.Error
		case payload.Message != "":
			e.Message = payload.Message
		case len(payload.Detail) > 0:
			var s string
			if json.Unmarshal(payload.Detail, &s) == nil {
				e.Message = s
			} else {
				e.Message = string(payload.Detail)
			}
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
