// Package ingest turns loosely structured lactate test files into the
// canonical stage records used by the rest of the application.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"lactate-lab/internal/threshold"
)

// ErrInvalidRecord is returned for any stage record that cannot be
// normalized. Records are never partially accepted.
var ErrInvalidRecord = errors.New("invalid stage record")

// Field aliases accepted for each canonical field, in lookup order
var (
	loadAliases            = []string{"load", "power", "watts", "speed"}
	theoreticalLoadAliases = []string{"theoreticalLoad", "theoretical_load"}
	lactateAliases         = []string{"lactate", "la", "lactate_mmol"}
	heartRateAliases       = []string{"heartRate", "heart_rate", "hr"}
	vo2Aliases             = []string{"vo2", "VO2"}
	durationAliases        = []string{"duration", "duration_min"}
	stageAliases           = []string{"stage"}
)

// Stage is one normalized test stage
type Stage struct {
	Number    int
	Load      float64
	Lactate   float64
	HeartRate *float64
	VO2       *float64
	Duration  *float64 // minutes actually completed, nil when not recorded

	// TheoreticalLoad is a fatigue-adjusted load already recorded for an
	// early-terminated final stage. Load stays the measured load.
	TheoreticalLoad *float64
}

// NormalizeRecords maps raw records onto Stage values. Any record with a
// missing load or lactate, a non-numeric or negative value, or two aliases
// disagreeing on the same field fails the whole batch.
func NormalizeRecords(records []map[string]any) ([]Stage, error) {
	stages := make([]Stage, 0, len(records))
	seen := make(map[int]bool, len(records))

	for i, rec := range records {
		s, err := normalizeRecord(rec, i)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidRecord, i, err)
		}
		if seen[s.Number] {
			return nil, fmt.Errorf("%w: record %d: duplicate stage number %d", ErrInvalidRecord, i, s.Number)
		}
		seen[s.Number] = true
		stages = append(stages, s)
	}

	return stages, nil
}

func normalizeRecord(rec map[string]any, index int) (Stage, error) {
	var s Stage

	load, err := lookup(rec, loadAliases)
	if err != nil {
		return s, err
	}
	if load == nil {
		return s, errors.New("missing load")
	}

	lactate, err := lookup(rec, lactateAliases)
	if err != nil {
		return s, err
	}
	if lactate == nil {
		return s, errors.New("missing lactate")
	}

	s.Load = *load
	s.Lactate = *lactate

	if s.HeartRate, err = lookup(rec, heartRateAliases); err != nil {
		return s, err
	}
	if s.VO2, err = lookup(rec, vo2Aliases); err != nil {
		return s, err
	}
	if s.Duration, err = lookup(rec, durationAliases); err != nil {
		return s, err
	}
	if s.TheoreticalLoad, err = lookup(rec, theoreticalLoadAliases); err != nil {
		return s, err
	}

	number, err := lookup(rec, stageAliases)
	if err != nil {
		return s, err
	}
	switch {
	case number == nil:
		s.Number = index + 1
	case *number != math.Trunc(*number) || *number < 1:
		return s, fmt.Errorf("stage number %v is not a positive integer", *number)
	default:
		s.Number = int(*number)
	}

	return s, nil
}

// lookup returns the value of the first alias present, checking that every
// other alias present agrees with it.
func lookup(rec map[string]any, aliases []string) (*float64, error) {
	var found *float64
	var foundKey string

	for _, key := range aliases {
		raw, ok := rec[key]
		if !ok || raw == nil {
			continue
		}

		v, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}

		if found != nil {
			if *found != v {
				return nil, fmt.Errorf("fields %q and %q disagree (%v vs %v)", foundKey, key, *found, v)
			}
			continue
		}
		found = &v
		foundKey = key
	}

	return found, nil
}

func toFloat(raw any) (float64, error) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint64:
		v = float64(n)
	default:
		return 0, fmt.Errorf("value %v (%T) is not a number", raw, raw)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %v is not finite", v)
	}
	if v < 0 {
		return 0, fmt.Errorf("value %v is negative", v)
	}
	return v, nil
}

// ToDataPoints converts stages to engine input sorted by load
func ToDataPoints(stages []Stage) []threshold.DataPoint {
	points := make([]threshold.DataPoint, len(stages))
	for i, s := range stages {
		number := s.Number
		points[i] = threshold.DataPoint{
			Load:            s.Load,
			Lactate:         s.Lactate,
			HeartRate:       s.HeartRate,
			VO2:             s.VO2,
			Stage:           &number,
			TheoreticalLoad: s.TheoreticalLoad,
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Load < points[j].Load
	})

	return points
}
