// Package store persists optimizations and their measurements.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/silviu20/Web-App-sub001/internal/optimization"
	"github.com/silviu20/Web-App-sub001/internal/optimization/objective"
	"github.com/silviu20/Web-App-sub001/internal/optimization/searchspace"
)

var (
	ErrNotFound = errors.New("optimization not found")
	ErrConflict = errors.New("optimization already exists")
)

// Status is the lifecycle state of an optimization.
type Status string

const (
	// StatusCreated is recorded before the engine has accepted the optimizer.
	StatusCreated Status = "created"
	StatusActive  Status = "active"
	StatusFailed  Status = "failed"
)

// Optimization is a persisted experiment with its synthesized configuration.
type Optimization struct {
	ID          string                  `json:"id"`
	UserID      string                  `json:"user_id"`
	Name        string                  `json:"name"`
	Parameters  []searchspace.Parameter `json:"parameters"`
	Objective   objective.Descriptor    `json:"objective"`
	Constraints json.RawMessage         `json:"constraints,omitempty"`
	// Noisy and Override are the user-level hints, kept for re-synthesis.
	Noisy    *bool                  `json:"noisy_observations,omitempty"`
	Override *optimization.Override `json:"user_override,omitempty"`
	// Config is the engine's recommender_config as last synthesized.
	Config    json.RawMessage `json:"config"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Measurement is a recorded observation of an optimization.
type Measurement struct {
	ID             int64                  `json:"id"`
	OptimizationID string                 `json:"optimization_id"`
	Parameters     map[string]interface{} `json:"parameters"`
	TargetValues   map[string]float64     `json:"target_values"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Repo stores optimizations and measurements. Reads of an optimization are
// scoped to its owner; a record owned by another user is ErrNotFound.
type Repo interface {
	CreateOptimization(ctx context.Context, o Optimization) error
	GetOptimization(ctx context.Context, userID, id string) (Optimization, error)
	ListOptimizations(ctx context.Context, userID string, limit, offset int) ([]Optimization, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateConfig(ctx context.Context, id string, config json.RawMessage) error
	DeleteOptimization(ctx context.Context, userID, id string) error

	AddMeasurements(ctx context.Context, optimizationID string, ms []Measurement) error
	ListMeasurements(ctx context.Context, optimizationID string) ([]Measurement, error)
	CountMeasurements(ctx context.Context, optimizationID string) (int, error)
}
