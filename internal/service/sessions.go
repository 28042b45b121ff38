package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"lactate-lab/internal/ingest"
	"lactate-lab/internal/store"
	"lactate-lab/internal/threshold"
)

// ErrInvalidOverride is returned for manual thresholds that cannot be stored
var ErrInvalidOverride = errors.New("invalid threshold override")

// ImportFile reads a test file and stores it as a new session
func (s *AnalysisService) ImportFile(ctx context.Context, path string) (*store.Session, error) {
	test, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.ImportTest(ctx, test)
}

// ImportTest stores an already parsed test as a new session
func (s *AnalysisService) ImportTest(ctx context.Context, test *ingest.Test) (*store.Session, error) {
	sess := &store.Session{
		Subject:             test.Subject,
		TestedAt:            test.TestedAt.UTC(),
		Unit:                test.Unit,
		TargetStageDuration: test.TargetStageDuration,
		Notes:               test.Notes,
	}
	if sess.Subject == "" {
		sess.Subject = UnknownSubject
	}
	if test.TestedAt.IsZero() {
		sess.TestedAt = s.now().UTC()
	}

	stages := make([]store.Stage, len(test.Stages))
	for i, st := range test.Stages {
		stages[i] = store.Stage{
			Number:    st.Number,
			Load:      st.Load,
			Lactate:   st.Lactate,
			HeartRate: st.HeartRate,
			VO2:       st.VO2,
			Duration:  st.Duration,

			TheoreticalLoad: st.TheoreticalLoad,
		}
	}

	id, err := s.store.CreateSession(ctx, sess, stages)
	if err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"session": id,
		"subject": sess.Subject,
		"stages":  len(stages),
	}).Info("test imported")

	return s.store.GetSession(ctx, id)
}

// ListSessions lists stored sessions, newest first. An empty subject lists all.
func (s *AnalysisService) ListSessions(ctx context.Context, subject string) ([]store.Session, error) {
	return s.store.ListSessions(ctx, subject)
}

// DeleteSession removes a session and everything stored for it
func (s *AnalysisService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.store.DeleteSession(ctx, sessionID)
}

// OverrideInput holds manually chosen thresholds and zone boundaries.
// At least one of LT1, LT2 or Boundaries must be set.
type OverrideInput struct {
	LT1        *threshold.Point
	LT2        *threshold.Point
	Boundaries *[4]float64
}

// SetOverride stores manual thresholds for a session, switching it to adjusted mode
func (s *AnalysisService) SetOverride(ctx context.Context, sessionID string, in OverrideInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	o := &store.Override{
		SessionID:  sessionID,
		Subject:    sess.Subject,
		Boundaries: in.Boundaries,
		UpdatedAt:  s.now().UTC().Truncate(time.Second),
	}
	if in.LT1 != nil {
		o.LT1Load, o.LT1Lactate = &in.LT1.Load, &in.LT1.Lactate
	}
	if in.LT2 != nil {
		o.LT2Load, o.LT2Lactate = &in.LT2.Load, &in.LT2.Lactate
	}

	if err := s.store.UpsertOverride(ctx, o); err != nil {
		return fmt.Errorf("storing override: %w", err)
	}

	s.logger.WithField("session", sessionID).Info("thresholds manually adjusted")
	return nil
}

// ClearOverride removes manual thresholds, returning the session to computed mode
func (s *AnalysisService) ClearOverride(ctx context.Context, sessionID string) error {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if err := s.store.DeleteOverride(ctx, sessionID, sess.Subject); err != nil {
		return err
	}
	return s.store.DeleteThresholdResults(ctx, sessionID)
}

func (in OverrideInput) validate() error {
	if in.LT1 == nil && in.LT2 == nil && in.Boundaries == nil {
		return fmt.Errorf("%w: nothing to override", ErrInvalidOverride)
	}
	for _, p := range []*threshold.Point{in.LT1, in.LT2} {
		if p != nil && (p.Load <= 0 || p.Lactate < 0) {
			return fmt.Errorf("%w: threshold load must be positive and lactate not negative", ErrInvalidOverride)
		}
	}
	if in.LT1 != nil && in.LT2 != nil && in.LT1.Load >= in.LT2.Load {
		return fmt.Errorf("%w: LT1 load %.2f must be below LT2 load %.2f", ErrInvalidOverride, in.LT1.Load, in.LT2.Load)
	}
	if in.Boundaries != nil {
		prev := 0.0
		for i, b := range in.Boundaries {
			if b <= prev {
				return fmt.Errorf("%w: zone boundary %d (%.2f) must be above %.2f", ErrInvalidOverride, i+1, b, prev)
			}
			prev = b
		}
	}
	return nil
}

// ErrAmbiguousID is returned when a session ID prefix matches several sessions
var ErrAmbiguousID = errors.New("ambiguous session id")

// ResolveSessionID expands a unique session ID prefix to the full ID
func (s *AnalysisService) ResolveSessionID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", store.ErrSessionNotFound
	}

	sessions, err := s.store.ListSessions(ctx, "")
	if err != nil {
		return "", err
	}

	var match string
	for _, sess := range sessions {
		if sess.ID == prefix {
			return sess.ID, nil
		}
		if strings.HasPrefix(sess.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %q", ErrAmbiguousID, prefix)
			}
			match = sess.ID
		}
	}

	if match == "" {
		return "", store.ErrSessionNotFound
	}
	return match, nil
}
