package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lactate-lab/internal/threshold"
)

// MethodOutcome is one method's result within a comparison
type MethodOutcome struct {
	Result threshold.MethodResult
	Zones  []threshold.TrainingZone
}

// Comparison holds every method's result for one session
type Comparison struct {
	*Analysis
	Outcomes []MethodOutcome // registry order
}

// CompareMethods runs all methods over a session concurrently and caches
// every result. Manual overrides are ignored: the comparison always shows
// what each method computes.
func (s *AnalysisService) CompareMethods(ctx context.Context, sessionID string) (*Comparison, error) {
	in, err := s.loadInput(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	methods := threshold.Methods()
	outcomes := make([]MethodOutcome, len(methods))

	g, gctx := errgroup.WithContext(ctx)
	for i, info := range methods {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := threshold.Calculate(info.Method, in.points, threshold.WithLogger(s.logger))
			outcomes[i] = MethodOutcome{
				Result: r,
				Zones:  threshold.CalculateZones(r.LT1, r.LT2, in.maxLoad),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		if err := s.cacheResult(ctx, sessionID, o.Result, false); err != nil {
			return nil, err
		}
	}

	return &Comparison{
		Analysis: &Analysis{
			Session:     in.session,
			Points:      in.points,
			Corrections: in.corrections,
			MaxLoad:     in.maxLoad,
		},
		Outcomes: outcomes,
	}, nil
}
