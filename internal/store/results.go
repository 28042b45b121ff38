package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertThresholdResult inserts or updates the cached result of one method
func (s *Store) UpsertThresholdResult(ctx context.Context, r *ThresholdResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threshold_results (
			session_id, method, lt1_load, lt1_lactate, lt2_load, lt2_lactate,
			notes, adjusted, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, method) DO UPDATE SET
			lt1_load = excluded.lt1_load,
			lt1_lactate = excluded.lt1_lactate,
			lt2_load = excluded.lt2_load,
			lt2_lactate = excluded.lt2_lactate,
			notes = excluded.notes,
			adjusted = excluded.adjusted,
			computed_at = excluded.computed_at
	`,
		r.SessionID, r.Method, r.LT1Load, r.LT1Lactate, r.LT2Load, r.LT2Lactate,
		r.Notes, boolToInt(r.Adjusted), r.ComputedAt.Format(time.RFC3339),
	)
	return err
}

// GetThresholdResult retrieves the cached result of one method
func (s *Store) GetThresholdResult(ctx context.Context, sessionID, method string) (*ThresholdResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, method, lt1_load, lt1_lactate, lt2_load, lt2_lactate,
			notes, adjusted, computed_at
		FROM threshold_results
		WHERE session_id = ? AND method = ?
	`, sessionID, method)

	r, err := scanThresholdResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	return r, err
}

// GetThresholdResults retrieves every cached result of a session ordered by method
func (s *Store) GetThresholdResults(ctx context.Context, sessionID string) ([]ThresholdResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, method, lt1_load, lt1_lactate, lt2_load, lt2_lactate,
			notes, adjusted, computed_at
		FROM threshold_results
		WHERE session_id = ?
		ORDER BY method
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ThresholdResult
	for rows.Next() {
		r, err := scanThresholdResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// DeleteThresholdResults drops every cached result of a session
func (s *Store) DeleteThresholdResults(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM threshold_results WHERE session_id = ?`, sessionID)
	return err
}

func scanThresholdResult(row scanner) (*ThresholdResult, error) {
	var r ThresholdResult
	var adjusted int
	var computedAt string

	err := row.Scan(
		&r.SessionID, &r.Method, &r.LT1Load, &r.LT1Lactate, &r.LT2Load, &r.LT2Lactate,
		&r.Notes, &adjusted, &computedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Adjusted = adjusted != 0
	r.ComputedAt, err = time.Parse(time.RFC3339, computedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing computed_at %q: %w", computedAt, err)
	}

	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
