// Package service orchestrates configuration synthesis, persistence and the
// optimization engine behind the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/silviu20/Web-App-sub001/internal/engine"
	apperrors "github.com/silviu20/Web-App-sub001/internal/errors"
	"github.com/silviu20/Web-App-sub001/internal/insights"
	"github.com/silviu20/Web-App-sub001/internal/logging"
	"github.com/silviu20/Web-App-sub001/internal/metrics"
	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/synthesis"
	"github.com/silviu20/Web-App-sub001/internal/store"
)

const healthKey = "engine"

// Options tune synthesis defaults.
type Options struct {
	// DefaultNoisy applies when an experiment leaves the noise flag unset.
	DefaultNoisy bool
	// ForceGPU, when set, replaces the GPU availability reported by the engine.
	ForceGPU *bool
	// HealthCacheTTL bounds how long an engine health report is reused.
	HealthCacheTTL time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{DefaultNoisy: true, HealthCacheTTL: 15 * time.Second}
}

// Service implements the experiment operations.
type Service struct {
	repo    store.Repo
	engine  engine.API
	logger  *logging.Logger
	metrics *metrics.Metrics
	opts    Options
	health  *expirable.LRU[string, engine.Health]
}

// New creates a service. A nil logger discards output; nil metrics record
// nothing.
func New(repo store.Repo, api engine.API, logger *logging.Logger, m *metrics.Metrics, opts Options) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	ttl := opts.HealthCacheTTL
	if ttl <= 0 {
		ttl = time.Nanosecond
	}
	return &Service{
		repo:    repo,
		engine:  api,
		logger:  logger.WithField("component", apperrors.ComponentService),
		metrics: m,
		opts:    opts,
		health:  expirable.NewLRU[string, engine.Health](1, nil, ttl),
	}
}

// Preview synthesizes a configuration without persisting anything.
func (s *Service) Preview(ctx context.Context, in ExperimentInput) (synthesis.Result, error) {
	if err := in.Validate(); err != nil {
		return synthesis.Result{}, s.invalid(err)
	}

	h := s.hints(ctx, in.NoisyObservations, in.Override)
	if in.GPUAvailable != nil {
		h.GPUAvailable = *in.GPUAvailable
	}
	h.PriorMeasurementCount = in.PriorMeasurementCount

	return s.synthesize(in.Request(h))
}

// Create validates an experiment, synthesizes its configuration, persists
// it and registers the optimizer with the engine.
func (s *Service) Create(ctx context.Context, userID string, in ExperimentInput) (store.Optimization, synthesis.Result, error) {
	if err := in.Validate(); err != nil {
		return store.Optimization{}, synthesis.Result{}, s.invalid(err)
	}

	res, err := s.synthesize(in.Request(s.hints(ctx, in.NoisyObservations, in.Override)))
	if err != nil {
		return store.Optimization{}, synthesis.Result{}, err
	}
	cfg, err := res.EngineConfig()
	if err != nil {
		return store.Optimization{}, res, apperrors.Op(err, apperrors.ComponentService, "create")
	}
	blob, err := json.Marshal(cfg)
	if err != nil {
		return store.Optimization{}, res, apperrors.Op(err, apperrors.ComponentService, "create")
	}

	o := store.Optimization{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       in.Name,
		Parameters: in.Parameters,
		Objective:  in.Objective,
		Noisy:      in.NoisyObservations,
		Override:   in.Override,
		Config:     blob,
		Status:     store.StatusCreated,
	}
	if len(in.Constraints) > 0 {
		if o.Constraints, err = json.Marshal(in.Constraints); err != nil {
			return store.Optimization{}, res, apperrors.Op(err, apperrors.ComponentService, "create")
		}
	}
	if err := s.repo.CreateOptimization(ctx, o); err != nil {
		return store.Optimization{}, res, apperrors.Op(err, apperrors.ComponentStore, "create_optimization")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"optimization_id": o.ID,
		"user_id":         userID,
	})

	_, err = s.engine.CreateOptimizer(ctx, engine.CreateRequest{
		OptimizerID:       o.ID,
		Parameters:        o.Parameters,
		TargetConfig:      engine.NewTargetConfig(o.Objective),
		RecommenderConfig: cfg,
		Constraints:       in.Constraints,
	})
	if err != nil {
		log.WithError(err).Error("Engine rejected optimizer")
		o.Status = store.StatusFailed
		if uerr := s.repo.UpdateStatus(ctx, o.ID, o.Status); uerr != nil {
			log.WithError(uerr).Warn("Failed to record optimizer failure")
		}
		return o, res, apperrors.Op(err, apperrors.ComponentEngine, "create_optimizer")
	}

	o.Status = store.StatusActive
	if err := s.repo.UpdateStatus(ctx, o.ID, o.Status); err != nil {
		return o, res, apperrors.Op(err, apperrors.ComponentStore, "update_status")
	}
	log.Info("Optimization created", map[string]interface{}{
		"strategy": string(res.Recommender.Strategy()),
		"family":   string(res.Acquisition.Family()),
	})
	return o, res, nil
}

// Get returns an optimization owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (store.Optimization, error) {
	o, err := s.repo.GetOptimization(ctx, userID, id)
	if err != nil {
		return o, apperrors.Op(err, apperrors.ComponentStore, "get_optimization")
	}
	return o, nil
}

// List returns a page of userID's optimizations, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]store.Optimization, error) {
	out, err := s.repo.ListOptimizations(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Op(err, apperrors.ComponentStore, "list_optimizations")
	}
	return out, nil
}

// Delete removes an optimization from the engine and the store. An optimizer
// the engine no longer knows is not an error.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.engine.DeleteOptimizer(ctx, id); err != nil && !engine.IsType(err, engine.ErrOptimizerNotFound) {
		return apperrors.Op(err, apperrors.ComponentEngine, "delete_optimizer")
	}
	if err := s.repo.DeleteOptimization(ctx, userID, id); err != nil {
		return apperrors.Op(err, apperrors.ComponentStore, "delete_optimization")
	}
	s.logger.Info("Optimization deleted", map[string]interface{}{"optimization_id": id})
	return nil
}

// Suggest asks the engine for the next batch of points.
func (s *Service) Suggest(ctx context.Context, userID, id string, batchSize int) ([]engine.Point, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	points, err := s.engine.Suggest(ctx, id, batchSize)
	if err != nil {
		return nil, apperrors.Op(err, apperrors.ComponentEngine, "suggest")
	}
	return points, nil
}

// AddMeasurements forwards measurements to the engine, then records them, so
// the recorded count never exceeds what the engine holds. It returns the
// total number of recorded measurements.
func (s *Service) AddMeasurements(ctx context.Context, userID, id string, ms []engine.Measurement) (int, error) {
	o, err := s.Get(ctx, userID, id)
	if err != nil {
		return 0, err
	}
	if err := validateMeasurements(o, ms); err != nil {
		return 0, s.invalid(err)
	}

	if len(ms) == 1 {
		err = s.engine.AddMeasurement(ctx, id, ms[0])
	} else {
		err = s.engine.AddMeasurements(ctx, id, ms)
	}
	if err != nil {
		return 0, apperrors.Op(err, apperrors.ComponentEngine, "add_measurements")
	}

	records := make([]store.Measurement, len(ms))
	for i, m := range ms {
		records[i] = store.Measurement{Parameters: m.Parameters, TargetValues: m.TargetValues}
	}
	if err := s.repo.AddMeasurements(ctx, id, records); err != nil {
		s.logger.WithError(err).Error("Engine accepted measurements that were not recorded", map[string]interface{}{
			"optimization_id": id,
			"count":           len(ms),
		})
		return 0, apperrors.Op(err, apperrors.ComponentStore, "add_measurements")
	}

	n, err := s.repo.CountMeasurements(ctx, id)
	if err != nil {
		return 0, apperrors.Op(err, apperrors.ComponentStore, "count_measurements")
	}
	s.logger.Debug("Measurements recorded", map[string]interface{}{
		"optimization_id": id,
		"added":           len(ms),
		"total":           n,
	})
	return n, nil
}

// BestPoint returns the engine's current best estimate.
func (s *Service) BestPoint(ctx context.Context, userID, id string) (engine.BestPoint, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return engine.BestPoint{}, err
	}
	bp, err := s.engine.BestPoint(ctx, id)
	if err != nil {
		return bp, apperrors.Op(err, apperrors.ComponentEngine, "best_point")
	}
	return bp, nil
}

// Insights summarizes recorded measurements. Feature importance is included
// when the engine can provide it.
func (s *Service) Insights(ctx context.Context, userID, id string) (insights.Report, error) {
	o, err := s.Get(ctx, userID, id)
	if err != nil {
		return insights.Report{}, err
	}
	ms, err := s.repo.ListMeasurements(ctx, id)
	if err != nil {
		return insights.Report{}, apperrors.Op(err, apperrors.ComponentStore, "list_measurements")
	}

	r := insights.Summarize(o.Objective, ms)
	if len(ms) > 0 {
		fi, err := s.engine.FeatureImportance(ctx, id)
		if err != nil {
			s.logger.WithError(err).Warn("Feature importance unavailable", map[string]interface{}{"optimization_id": id})
		} else {
			r.FeatureImportance = fi.Importances
		}
	}
	return r, nil
}

// Predict returns the surrogate's posterior at points.
func (s *Service) Predict(ctx context.Context, userID, id string, points []engine.Point) ([]engine.Prediction, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	preds, err := s.engine.Predict(ctx, id, points)
	if err != nil {
		return nil, apperrors.Op(err, apperrors.ComponentEngine, "predict")
	}
	return preds, nil
}

// EngineHealth checks the engine, bypassing and refreshing the cache.
func (s *Service) EngineHealth(ctx context.Context) engine.Health {
	h := s.engine.Health(ctx)
	s.health.Add(healthKey, h)
	s.metrics.SetEngineAvailable(h.Available())
	return h
}

// Resynthesize recomputes the configuration of an existing optimization with
// its current measurement count and stores it.
func (s *Service) Resynthesize(ctx context.Context, userID, id string) (synthesis.Result, error) {
	o, err := s.Get(ctx, userID, id)
	if err != nil {
		return synthesis.Result{}, err
	}
	n, err := s.repo.CountMeasurements(ctx, id)
	if err != nil {
		return synthesis.Result{}, apperrors.Op(err, apperrors.ComponentStore, "count_measurements")
	}

	h := s.hints(ctx, o.Noisy, o.Override)
	h.PriorMeasurementCount = n
	req := synthesis.Request{Parameters: o.Parameters, Objective: o.Objective, Hints: h}
	if err := req.Validate(); err != nil {
		return synthesis.Result{}, s.invalid(err)
	}

	res, err := s.synthesize(req)
	if err != nil {
		return res, err
	}
	cfg, err := res.EngineConfig()
	if err != nil {
		return res, apperrors.Op(err, apperrors.ComponentService, "resynthesize")
	}
	blob, err := json.Marshal(cfg)
	if err != nil {
		return res, apperrors.Op(err, apperrors.ComponentService, "resynthesize")
	}
	if err := s.repo.UpdateConfig(ctx, id, blob); err != nil {
		return res, apperrors.Op(err, apperrors.ComponentStore, "update_config")
	}
	return res, nil
}

// hints resolves the runtime hints. The measurement count is left at zero.
func (s *Service) hints(ctx context.Context, noisy *bool, override *optimization.Override) optimization.Hints {
	h := optimization.Hints{
		GPUAvailable:      s.gpuAvailable(ctx),
		NoisyObservations: noisy,
		UserOverride:      override,
	}
	if h.NoisyObservations == nil {
		h.NoisyObservations = optimization.Bool(s.opts.DefaultNoisy)
	}
	return h
}

func (s *Service) gpuAvailable(ctx context.Context) bool {
	if s.opts.ForceGPU != nil {
		return *s.opts.ForceGPU
	}
	h, ok := s.health.Get(healthKey)
	if !ok {
		h = s.EngineHealth(ctx)
	}
	return h.Available() && h.UsingGPU
}

func (s *Service) synthesize(req synthesis.Request) (synthesis.Result, error) {
	res := synthesis.Synthesize(req)
	s.metrics.ObserveSynthesis(
		string(res.Recommender.Strategy()),
		string(res.Acquisition.Family()),
		string(res.RecommenderRule),
		string(res.AcquisitionRule),
	)
	s.logger.Debug("Configuration synthesized", map[string]interface{}{
		"strategy":          string(res.Recommender.Strategy()),
		"family":            string(res.Acquisition.Family()),
		"recommender_rule":  string(res.RecommenderRule),
		"acquisition_rule":  string(res.AcquisitionRule),
		"gpu":               req.Hints.GPUAvailable,
		"prior_measurement": req.Hints.PriorMeasurementCount,
		"dimensionality":    res.Classification.Dimensionality,
		"hybrid":            res.Classification.IsHybrid,
	})
	return res, nil
}

func (s *Service) invalid(err error) error {
	if ve, ok := optimization.IsValidationError(err); ok {
		s.metrics.ObserveValidationFailure(ve.Invariant)
		s.logger.Debug("Rejected invalid input", map[string]interface{}{
			"invariant": ve.Invariant,
			"field":     ve.Field,
		})
	}
	return err
}

// IsNotFound reports whether err means the optimization does not exist for
// the caller, in the store or in the engine.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || engineErrorType(err) == engine.ErrOptimizerNotFound
}

// IsUnavailable reports whether err is an engine failure.
func IsUnavailable(err error) bool {
	switch engineErrorType(err) {
	case engine.ErrUnavailable, engine.ErrUnexpected:
		return true
	}
	return false
}

func engineErrorType(err error) engine.ErrorType {
	var eerr *engine.Error
	if errors.As(err, &eerr) {
		return eerr.Type
	}
	return ""
}
