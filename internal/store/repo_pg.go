package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// PGRepo stores optimizations in PostgreSQL.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) CreateOptimization(ctx context.Context, o Optimization) error {
	const query = `
INSERT INTO optimizations (id, user_id, name, parameters, objective, constraints, noisy, override, config, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`

	params, err := json.Marshal(o.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	obj, err := json.Marshal(o.Objective)
	if err != nil {
		return fmt.Errorf("encode objective: %w", err)
	}
	var override any
	if o.Override != nil {
		b, err := json.Marshal(o.Override)
		if err != nil {
			return fmt.Errorf("encode override: %w", err)
		}
		override = b
	}
	status := o.Status
	if status == "" {
		status = StatusCreated
	}

	_, err = r.DB.ExecContext(ctx, query,
		o.ID,
		o.UserID,
		o.Name,
		params,
		obj,
		nullableJSON(o.Constraints),
		nullableBool(o.Noisy),
		override,
		[]byte(o.Config),
		string(status),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

const selectOptimization = `
SELECT id, user_id, name, parameters, objective, constraints, noisy, override, config, status, created_at, updated_at
FROM optimizations`

func (r *PGRepo) GetOptimization(ctx context.Context, userID, id string) (Optimization, error) {
	row := r.DB.QueryRowContext(ctx, selectOptimization+`
WHERE id = $1 AND user_id = $2
LIMIT 1`, id, userID)
	o, err := scanOptimization(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Optimization{}, ErrNotFound
	}
	return o, err
}

func (r *PGRepo) ListOptimizations(ctx context.Context, userID string, limit, offset int) ([]Optimization, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, selectOptimization+`
WHERE user_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Optimization, 0)
	for rows.Next() {
		o, err := scanOptimization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	return r.exec(ctx, `UPDATE optimizations SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
}

func (r *PGRepo) UpdateConfig(ctx context.Context, id string, config json.RawMessage) error {
	return r.exec(ctx, `UPDATE optimizations SET config = $2, updated_at = now() WHERE id = $1`, id, []byte(config))
}

func (r *PGRepo) DeleteOptimization(ctx context.Context, userID, id string) error {
	return r.exec(ctx, `DELETE FROM optimizations WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) AddMeasurements(ctx context.Context, optimizationID string, ms []Measurement) error {
	const query = `
INSERT INTO measurements (optimization_id, parameters, target_values, created_at)
VALUES ($1, $2, $3, now())`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range ms {
		params, err := json.Marshal(m.Parameters)
		if err != nil {
			return fmt.Errorf("encode measurement parameters: %w", err)
		}
		values, err := json.Marshal(m.TargetValues)
		if err != nil {
			return fmt.Errorf("encode target values: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, optimizationID, params, values); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return ErrNotFound
			}
			return err
		}
	}
	return tx.Commit()
}

func (r *PGRepo) ListMeasurements(ctx context.Context, optimizationID string) ([]Measurement, error) {
	const query = `
SELECT id, optimization_id, parameters, target_values, created_at
FROM measurements
WHERE optimization_id = $1
ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, optimizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Measurement, 0)
	for rows.Next() {
		var m Measurement
		var params, values []byte
		if err := rows.Scan(&m.ID, &m.OptimizationID, &params, &values, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(params, &m.Parameters); err != nil {
			return nil, fmt.Errorf("decode measurement %d parameters: %w", m.ID, err)
		}
		if err := json.Unmarshal(values, &m.TargetValues); err != nil {
			return nil, fmt.Errorf("decode measurement %d target values: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountMeasurements(ctx context.Context, optimizationID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM measurements WHERE optimization_id = $1`, optimizationID).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOptimization(s scanner) (Optimization, error) {
	var o Optimization
	var params, obj, constraints, override, config []byte
	var noisy sql.NullBool
	var status string
	err := s.Scan(
		&o.ID,
		&o.UserID,
		&o.Name,
		&params,
		&obj,
		&constraints,
		&noisy,
		&override,
		&config,
		&status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return Optimization{}, err
	}

	if err := json.Unmarshal(params, &o.Parameters); err != nil {
		return Optimization{}, fmt.Errorf("decode parameters of %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(obj, &o.Objective); err != nil {
		return Optimization{}, fmt.Errorf("decode objective of %s: %w", o.ID, err)
	}
	if len(override) > 0 {
		if err := json.Unmarshal(override, &o.Override); err != nil {
			return Optimization{}, fmt.Errorf("decode override of %s: %w", o.ID, err)
		}
	}
	if len(constraints) > 0 {
		o.Constraints = json.RawMessage(constraints)
	}
	if noisy.Valid {
		v := noisy.Bool
		o.Noisy = &v
	}
	o.Config = json.RawMessage(config)
	o.Status = Status(status)
	return o, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
