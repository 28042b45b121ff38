package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"lactate-lab/internal/config"
	"lactate-lab/internal/monitoring"
	"lactate-lab/internal/store"
	"lactate-lab/internal/threshold"
)

// AnalysisService runs threshold analyses over stored test sessions
type AnalysisService struct {
	store         *store.Store
	defaultMethod threshold.Method
	stageDuration float64 // minutes, used when a session has no target duration
	logger        logrus.FieldLogger
	now           func() time.Time
}

// NewAnalysisService creates a new analysis service. A nil logger discards output.
func NewAnalysisService(st *store.Store, cfg config.EngineConfig, logger logrus.FieldLogger) (*AnalysisService, error) {
	method := threshold.MethodMader
	if cfg.DefaultMethod != "" {
		m, err := threshold.ParseMethod(cfg.DefaultMethod)
		if err != nil {
			return nil, err
		}
		method = m
	}

	duration := cfg.StageDurationMinutes
	if duration <= 0 {
		duration = DefaultStageDurationMinutes
	}

	return &AnalysisService{
		store:         st,
		defaultMethod: method,
		stageDuration: duration,
		logger:        monitoring.OrNop(logger),
		now:           time.Now,
	}, nil
}

// DefaultMethod returns the method used when none is requested
func (s *AnalysisService) DefaultMethod() threshold.Method {
	return s.defaultMethod
}

// Analysis is the outcome of one method over one session
type Analysis struct {
	Session     store.Session
	Method      threshold.Method
	Result      threshold.MethodResult
	Zones       []threshold.TrainingZone
	Points      []threshold.DataPoint // corrected, sorted by load
	Corrections []StageCorrection
	MaxLoad     float64
	Adjusted    bool // thresholds come from a manual override
}

// Analyze runs method over a session. An empty method uses the configured default.
// When the session has a manual override the engine is bypassed and the
// override thresholds and zones are returned instead.
func (s *AnalysisService) Analyze(ctx context.Context, sessionID string, method threshold.Method) (*Analysis, error) {
	if method == "" {
		method = s.defaultMethod
	}
	info, ok := threshold.Lookup(method)
	if !ok {
		return nil, fmt.Errorf("unknown threshold method %q", method)
	}

	in, err := s.loadInput(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Session:     in.session,
		Method:      method,
		Points:      in.points,
		Corrections: in.corrections,
		MaxLoad:     in.maxLoad,
	}

	override, err := s.store.GetOverride(ctx, sessionID, in.session.Subject)
	switch {
	case err == nil:
		s.applyOverride(a, info, override)
	case errors.Is(err, store.ErrOverrideNotFound):
		a.Result = threshold.Calculate(method, in.points, threshold.WithLogger(s.logger))
		a.Zones = threshold.CalculateZones(a.Result.LT1, a.Result.LT2, in.maxLoad)
	default:
		return nil, fmt.Errorf("loading override: %w", err)
	}

	if err := s.cacheResult(ctx, sessionID, a.Result, a.Adjusted); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session":  sessionID,
		"method":   method,
		"adjusted": a.Adjusted,
	}).Debug("analysis complete")

	return a, nil
}

func (s *AnalysisService) applyOverride(a *Analysis, info threshold.Info, o *store.Override) {
	a.Adjusted = true
	a.Result = threshold.MethodResult{
		LT1:        overridePoint(o.LT1Load, o.LT1Lactate),
		LT2:        overridePoint(o.LT2Load, o.LT2Lactate),
		Method:     info.Method,
		MethodName: info.Name,
		Reference:  info.Reference,
		Notes:      NoteAdjusted,
	}

	if o.Boundaries != nil {
		a.Zones = threshold.ZonesFromBoundaries(*o.Boundaries, a.MaxLoad)
		return
	}
	a.Zones = threshold.CalculateZones(a.Result.LT1, a.Result.LT2, a.MaxLoad)
}

func overridePoint(load, lactate *float64) *threshold.Point {
	if load == nil {
		return nil
	}
	p := &threshold.Point{Load: *load}
	if lactate != nil {
		p.Lactate = *lactate
	}
	return p
}

// analysisInput is a session with its corrected engine input
type analysisInput struct {
	session     store.Session
	points      []threshold.DataPoint
	corrections []StageCorrection
	maxLoad     float64
}

func (s *AnalysisService) loadInput(ctx context.Context, sessionID string) (*analysisInput, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	stages, err := s.store.GetStages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading stages: %w", err)
	}

	target := sess.TargetStageDuration
	if target <= 0 {
		target = s.stageDuration
	}

	points, corrections := correctStages(stages, target, s.logger)

	return &analysisInput{
		session:     *sess,
		points:      points,
		corrections: corrections,
		maxLoad:     threshold.MaxLoad(points),
	}, nil
}

func (s *AnalysisService) cacheResult(ctx context.Context, sessionID string, r threshold.MethodResult, adjusted bool) error {
	rec := &store.ThresholdResult{
		SessionID:  sessionID,
		Method:     string(r.Method),
		Notes:      r.Notes,
		Adjusted:   adjusted,
		ComputedAt: s.now().UTC().Truncate(time.Second),
	}
	if r.LT1 != nil {
		rec.LT1Load, rec.LT1Lactate = &r.LT1.Load, &r.LT1.Lactate
	}
	if r.LT2 != nil {
		rec.LT2Load, rec.LT2Lactate = &r.LT2.Load, &r.LT2.Lactate
	}

	if err := s.store.UpsertThresholdResult(ctx, rec); err != nil {
		return fmt.Errorf("caching %s result: %w", r.Method, err)
	}
	return nil
}

// CachedResults returns the last stored result of every analyzed method
func (s *AnalysisService) CachedResults(ctx context.Context, sessionID string) ([]threshold.MethodResult, error) {
	recs, err := s.store.GetThresholdResults(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading cached results: %w", err)
	}

	results := make([]threshold.MethodResult, 0, len(recs))
	for _, rec := range recs {
		m := threshold.Method(rec.Method)
		r := threshold.MethodResult{
			LT1:    overridePoint(rec.LT1Load, rec.LT1Lactate),
			LT2:    overridePoint(rec.LT2Load, rec.LT2Lactate),
			Method: m,
			Notes:  rec.Notes,
		}
		if info, ok := threshold.Lookup(m); ok {
			r.MethodName = info.Name
			r.Reference = info.Reference
		}
		results = append(results, r)
	}
	return results, nil
}
