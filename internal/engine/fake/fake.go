// Package fake provides an in-memory engine for tests.
package fake

import (
	"context"
	"sort"
	"sync"

	"github.com/silviu20/Web-App-sub001/internal/engine"
)

var _ engine.API = &API{}

// API records optimizers and measurements in memory. Suggestions cycle
// through the recorded parameter declarations' first admissible values.
type API struct {
	mu         sync.Mutex
	health     engine.Health
	optimizers map[string]engine.CreateRequest
	measured   map[string][]engine.Measurement

	// Err, when set, is returned by every call except Health.
	Err error
}

// NewAPI returns a healthy fake engine.
func NewAPI() *API {
	return &API{
		health:     engine.Health{Status: engine.StatusHealthy},
		optimizers: make(map[string]engine.CreateRequest),
		measured:   make(map[string][]engine.Measurement),
	}
}

// SetHealth replaces the reported health.
func (f *API) SetHealth(h engine.Health) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.health = h
}

// Optimizer returns the create request recorded for id.
func (f *API) Optimizer(id string) (engine.CreateRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.optimizers[id]
	return cr, ok
}

// Measurements returns the measurements recorded for id.
func (f *API) Measurements(id string) []engine.Measurement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Measurement(nil), f.measured[id]...)
}

func (f *API) notFound(id string) error {
	return &engine.Error{Type: engine.ErrOptimizerNotFound, Message: `optimizer "` + id + `" not found`, StatusCode: 404}
}

func (f *API) Health(context.Context) engine.Health {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.health
}

func (f *API) CreateOptimizer(_ context.Context, req engine.CreateRequest) (engine.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return engine.CreateResponse{}, f.Err
	}
	if _, ok := f.optimizers[req.OptimizerID]; ok {
		return engine.CreateResponse{}, &engine.Error{Type: engine.ErrOptimizerConflict, StatusCode: 409}
	}
	f.optimizers[req.OptimizerID] = req
	return engine.CreateResponse{OptimizerID: req.OptimizerID, Status: "created"}, nil
}

func (f *API) DeleteOptimizer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.optimizers[id]; !ok {
		return f.notFound(id)
	}
	delete(f.optimizers, id)
	delete(f.measured, id)
	return nil
}

func (f *API) Suggest(_ context.Context, id string, batchSize int) ([]engine.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	cr, ok := f.optimizers[id]
	if !ok {
		return nil, f.notFound(id)
	}
	if batchSize < 1 {
		batchSize = 1
	}

	out := make([]engine.Point, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		p := engine.Point{}
		for _, prm := range cr.Parameters {
			switch {
			case len(prm.Values) > 0:
				p[prm.Name] = prm.Values[i%len(prm.Values)]
			case len(prm.Categories) > 0:
				p[prm.Name] = prm.Categories[i%len(prm.Categories)]
			case prm.Bounds != nil:
				p[prm.Name] = prm.Bounds.Lower + (prm.Bounds.Upper-prm.Bounds.Lower)*float64(i+1)/float64(batchSize+1)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *API) AddMeasurement(ctx context.Context, id string, m engine.Measurement) error {
	return f.AddMeasurements(ctx, id, []engine.Measurement{m})
}

func (f *API) AddMeasurements(_ context.Context, id string, ms []engine.Measurement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.optimizers[id]; !ok {
		return f.notFound(id)
	}
	f.measured[id] = append(f.measured[id], ms...)
	return nil
}

// BestPoint returns the measurement with the highest value of the first
// target, regardless of mode.
func (f *API) BestPoint(_ context.Context, id string) (engine.BestPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return engine.BestPoint{}, f.Err
	}
	cr, ok := f.optimizers[id]
	if !ok {
		return engine.BestPoint{}, f.notFound(id)
	}
	ms := f.measured[id]
	if len(ms) == 0 || len(cr.TargetConfig.Targets) == 0 {
		return engine.BestPoint{}, nil
	}

	name := cr.TargetConfig.Targets[0].Name
	best := ms[0]
	for _, m := range ms[1:] {
		if m.TargetValues[name] > best.TargetValues[name] {
			best = m
		}
	}
	return engine.BestPoint{Parameters: best.Parameters, TargetValues: best.TargetValues}, nil
}

// FeatureImportance spreads importance evenly over the declared parameters.
func (f *API) FeatureImportance(_ context.Context, id string) (engine.FeatureImportance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return engine.FeatureImportance{}, f.Err
	}
	cr, ok := f.optimizers[id]
	if !ok {
		return engine.FeatureImportance{}, f.notFound(id)
	}

	names := make([]string, 0, len(cr.Parameters))
	for _, p := range cr.Parameters {
		names = append(names, p.Name)
	}
	sort.Strings(names)

	fi := engine.FeatureImportance{Importances: make(map[string]float64, len(names))}
	for _, n := range names {
		fi.Importances[n] = 1 / float64(len(names))
	}
	return fi, nil
}

// Predict returns a zero mean and unit deviation for every target.
func (f *API) Predict(_ context.Context, id string, points []engine.Point) ([]engine.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	cr, ok := f.optimizers[id]
	if !ok {
		return nil, f.notFound(id)
	}

	out := make([]engine.Prediction, len(points))
	for i := range points {
		out[i] = engine.Prediction{Mean: map[string]float64{}, Std: map[string]float64{}}
		for _, t := range cr.TargetConfig.Targets {
			out[i].Mean[t.Name] = 0
			out[i].Std[t.Name] = 1
		}
	}
	return out, nil
}
