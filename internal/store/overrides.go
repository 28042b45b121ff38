package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertOverride inserts or replaces the manual thresholds of a session and subject
func (s *Store) UpsertOverride(ctx context.Context, o *Override) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	}

	var b [4]*float64
	if o.Boundaries != nil {
		for i := range o.Boundaries {
			b[i] = &o.Boundaries[i]
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO threshold_overrides (
			session_id, subject, lt1_load, lt1_lactate, lt2_load, lt2_lactate,
			zone1_upper, zone2_upper, zone3_upper, zone4_upper, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, subject) DO UPDATE SET
			lt1_load = excluded.lt1_load,
			lt1_lactate = excluded.lt1_lactate,
			lt2_load = excluded.lt2_load,
			lt2_lactate = excluded.lt2_lactate,
			zone1_upper = excluded.zone1_upper,
			zone2_upper = excluded.zone2_upper,
			zone3_upper = excluded.zone3_upper,
			zone4_upper = excluded.zone4_upper,
			updated_at = excluded.updated_at
	`,
		o.SessionID, o.Subject, o.LT1Load, o.LT1Lactate, o.LT2Load, o.LT2Lactate,
		b[0], b[1], b[2], b[3], o.UpdatedAt.Format(time.RFC3339),
	)
	return err
}

// GetOverride retrieves the manual thresholds of a session and subject
func (s *Store) GetOverride(ctx context.Context, sessionID, subject string) (*Override, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, subject, lt1_load, lt1_lactate, lt2_load, lt2_lactate,
			zone1_upper, zone2_upper, zone3_upper, zone4_upper, updated_at
		FROM threshold_overrides
		WHERE session_id = ? AND subject = ?
	`, sessionID, subject)

	var o Override
	var b [4]*float64
	var updatedAt string

	err := row.Scan(
		&o.SessionID, &o.Subject, &o.LT1Load, &o.LT1Lactate, &o.LT2Load, &o.LT2Lactate,
		&b[0], &b[1], &b[2], &b[3], &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOverrideNotFound
	}
	if err != nil {
		return nil, err
	}

	if b[0] != nil && b[1] != nil && b[2] != nil && b[3] != nil {
		o.Boundaries = &[4]float64{*b[0], *b[1], *b[2], *b[3]}
	}

	o.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at %q: %w", updatedAt, err)
	}

	return &o, nil
}

// DeleteOverride removes the manual thresholds, returning the session to computed mode
func (s *Store) DeleteOverride(ctx context.Context, sessionID, subject string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM threshold_overrides WHERE session_id = ? AND subject = ?
	`, sessionID, subject)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOverrideNotFound
	}
	return nil
}
