package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryRepo keeps everything in process memory.
type MemoryRepo struct {
	mu            sync.RWMutex
	optimizations map[string]Optimization
	measurements  map[string][]Measurement
	nextID        int64
	now           func() time.Time
}

// NewMemoryRepo returns an empty repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		optimizations: make(map[string]Optimization),
		measurements:  make(map[string][]Measurement),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) CreateOptimization(_ context.Context, o Optimization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.optimizations[o.ID]; ok {
		return ErrConflict
	}
	now := r.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = StatusCreated
	}
	r.optimizations[o.ID] = o
	return nil
}

func (r *MemoryRepo) GetOptimization(_ context.Context, userID, id string) (Optimization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.optimizations[id]
	if !ok || o.UserID != userID {
		return Optimization{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepo) ListOptimizations(_ context.Context, userID string, limit, offset int) ([]Optimization, error) {
	r.mu.RLock()
	out := make([]Optimization, 0)
	for _, o := range r.optimizations {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	return r.update(id, func(o *Optimization) { o.Status = status })
}

func (r *MemoryRepo) UpdateConfig(_ context.Context, id string, config json.RawMessage) error {
	return r.update(id, func(o *Optimization) { o.Config = config })
}

func (r *MemoryRepo) update(id string, fn func(*Optimization)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.optimizations[id]
	if !ok {
		return ErrNotFound
	}
	fn(&o)
	o.UpdatedAt = r.now()
	r.optimizations[id] = o
	return nil
}

func (r *MemoryRepo) DeleteOptimization(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.optimizations[id]
	if !ok || o.UserID != userID {
		return ErrNotFound
	}
	delete(r.optimizations, id)
	delete(r.measurements, id)
	return nil
}

func (r *MemoryRepo) AddMeasurements(_ context.Context, optimizationID string, ms []Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.optimizations[optimizationID]; !ok {
		return ErrNotFound
	}
	now := r.now()
	for _, m := range ms {
		r.nextID++
		m.ID = r.nextID
		m.OptimizationID = optimizationID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		r.measurements[optimizationID] = append(r.measurements[optimizationID], m)
	}
	return nil
}

func (r *MemoryRepo) ListMeasurements(_ context.Context, optimizationID string) ([]Measurement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Measurement{}, r.measurements[optimizationID]...), nil
}

func (r *MemoryRepo) CountMeasurements(_ context.Context, optimizationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.measurements[optimizationID]), nil
}

func page(in []Optimization, limit, offset int) []Optimization {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []Optimization{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
