package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession stores a session and its stages in one transaction.
// A new ID is assigned when s.ID is empty; the ID is returned.
func (s *Store) CreateSession(ctx context.Context, sess *Session, stages []Stage) (string, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, subject, tested_at, unit, target_stage_duration, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID, sess.Subject, sess.TestedAt.Format(time.RFC3339), sess.Unit,
		sess.TargetStageDuration, sess.Notes, sess.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}

	for _, st := range stages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stages (session_id, stage, load, lactate, heart_rate, vo2, duration, theoretical_load)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sess.ID, st.Number, st.Load, st.Lactate, st.HeartRate, st.VO2, st.Duration, st.TheoreticalLoad)
		if err != nil {
			return "", fmt.Errorf("inserting stage %d: %w", st.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing session: %w", err)
	}
	return sess.ID, nil
}

// GetSession retrieves a session by ID
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject, tested_at, unit, target_stage_duration, notes, created_at,
			(SELECT COUNT(*) FROM stages WHERE session_id = sessions.id)
		FROM sessions
		WHERE id = ?
	`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return sess, err
}

// ListSessions retrieves sessions, most recent test first.
// An empty subject lists every subject.
func (s *Store) ListSessions(ctx context.Context, subject string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject, tested_at, unit, target_stage_duration, notes, created_at,
			(SELECT COUNT(*) FROM stages WHERE session_id = sessions.id)
		FROM sessions
		WHERE ? = '' OR subject = ?
		ORDER BY tested_at DESC, created_at DESC
	`, subject, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session together with its stages, overrides and results
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetStages retrieves the stages of a session ordered by stage number
func (s *Store) GetStages(ctx context.Context, sessionID string) ([]Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, stage, load, lactate, heart_rate, vo2, duration, theoretical_load
		FROM stages
		WHERE session_id = ?
		ORDER BY stage
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []Stage
	for rows.Next() {
		var st Stage
		if err := rows.Scan(&st.SessionID, &st.Number, &st.Load, &st.Lactate, &st.HeartRate, &st.VO2, &st.Duration, &st.TheoreticalLoad); err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var testedAt, createdAt string

	err := row.Scan(
		&sess.ID, &sess.Subject, &testedAt, &sess.Unit, &sess.TargetStageDuration,
		&sess.Notes, &createdAt, &sess.StageCount,
	)
	if err != nil {
		return nil, err
	}

	if sess.TestedAt, err = time.Parse(time.RFC3339, testedAt); err != nil {
		return nil, fmt.Errorf("parsing tested_at %q: %w", testedAt, err)
	}
	if sess.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}

	return &sess, nil
}
