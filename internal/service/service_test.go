package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lactate-lab/internal/config"
	"lactate-lab/internal/ingest"
	"lactate-lab/internal/stage"
	"lactate-lab/internal/store"
	"lactate-lab/internal/threshold"
)

func f64(v float64) *float64 { return &v }

func newTestService(t *testing.T) *AnalysisService {
	t.Helper()

	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc, err := NewAnalysisService(st, config.EngineConfig{}, nil)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// referenceTest is a five-stage step test; modify the stages to mark them incomplete
func referenceTest() *ingest.Test {
	return &ingest.Test{
		Subject:             "athlete-7",
		TestedAt:            time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Unit:                ingest.UnitWatts,
		TargetStageDuration: 3,
		Stages: []ingest.Stage{
			{Number: 1, Load: 100, Lactate: 1.5, HeartRate: f64(120)},
			{Number: 2, Load: 150, Lactate: 1.8, HeartRate: f64(134)},
			{Number: 3, Load: 200, Lactate: 2.5, HeartRate: f64(148)},
			{Number: 4, Load: 250, Lactate: 4.0, HeartRate: f64(163)},
			{Number: 5, Load: 300, Lactate: 7.0, HeartRate: f64(178)},
		},
	}
}

func importTest(t *testing.T, svc *AnalysisService, test *ingest.Test) string {
	t.Helper()
	sess, err := svc.ImportTest(context.Background(), test)
	require.NoError(t, err)
	return sess.ID
}

func assertPoint(t *testing.T, got *threshold.Point, load, lactate float64) {
	t.Helper()
	require.NotNil(t, got)
	assert.InDelta(t, load, got.Load, 0.01)
	assert.InDelta(t, lactate, got.Lactate, 0.01)
}

func TestNewAnalysisService(t *testing.T) {
	st, err := store.OpenMemory()
	require.NoError(t, err)
	defer st.Close()

	svc, err := NewAnalysisService(st, config.EngineConfig{DefaultMethod: "Seiler"}, nil)
	require.NoError(t, err)
	assert.Equal(t, threshold.MethodSeiler, svc.DefaultMethod())
	assert.InDelta(t, DefaultStageDurationMinutes, svc.stageDuration, 1e-9)

	_, err = NewAnalysisService(st, config.EngineConfig{DefaultMethod: "guess"}, nil)
	assert.Error(t, err)
}

func TestAnalyze_DefaultMethod(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := importTest(t, svc, referenceTest())

	a, err := svc.Analyze(ctx, id, "")
	require.NoError(t, err)

	assert.Equal(t, threshold.MethodMader, a.Method)
	assert.False(t, a.Adjusted)
	assertPoint(t, a.Result.LT1, 164.29, 2.0)
	assertPoint(t, a.Result.LT2, 250, 4.0)
	assert.InDelta(t, 300, a.MaxLoad, 1e-9)
	assert.Empty(t, a.Corrections)
	require.Len(t, a.Zones, threshold.ZoneCount)
	assert.InDelta(t, 164.29, a.Zones[0].Range[1], 0.01)
	assert.InDelta(t, 300, a.Zones[4].Range[1], 1e-9)

	cached, err := svc.CachedResults(ctx, id)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, threshold.MethodMader, cached[0].Method)
	assert.Equal(t, "Mader (OBLA 2/4 mmol/L)", cached[0].MethodName)
	assertPoint(t, cached[0].LT2, 250, 4.0)
}

func TestAnalyze_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := importTest(t, svc, referenceTest())

	_, err := svc.Analyze(ctx, "missing", threshold.MethodDMAX)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	_, err = svc.Analyze(ctx, id, threshold.Method("guess"))
	assert.Error(t, err)
}

func TestAnalyze_IncompleteFinalStage(t *testing.T) {
	svc := newTestService(t)
	test := referenceTest()
	test.Stages[4].Duration = f64(1.5)
	id := importTest(t, svc, test)

	a, err := svc.Analyze(context.Background(), id, threshold.MethodMader)
	require.NoError(t, err)

	require.Len(t, a.Corrections, 1)
	c := a.Corrections[0]
	assert.True(t, c.Final)
	assert.Equal(t, 5, c.Stage)
	assert.InDelta(t, 0.5, c.CompletionRatio, 1e-9)
	require.NotNil(t, c.TheoreticalLoad)
	assert.Equal(t, stage.MethodQuadratic, c.TheoreticalLoad.Method)
	assert.InDelta(t, 267.27, c.TheoreticalLoad.Value, 0.01)

	// measured values drive the thresholds and the zone scale
	assertPoint(t, a.Result.LT2, 250, 4.0)
	assert.InDelta(t, 300, a.MaxLoad, 1e-9)
	assert.InDelta(t, 300, a.Zones[4].Range[1], 1e-9)
}

func TestAnalyze_EarlyFinalStageKeepsUpperZones(t *testing.T) {
	svc := newTestService(t)
	test := referenceTest()
	test.Stages[4].Duration = f64(1.0)
	id := importTest(t, svc, test)

	a, err := svc.Analyze(context.Background(), id, threshold.MethodMader)
	require.NoError(t, err)

	require.Len(t, a.Corrections, 1)
	require.NotNil(t, a.Corrections[0].TheoreticalLoad)
	assert.Less(t, a.Corrections[0].TheoreticalLoad.Value, 300.0)

	assertPoint(t, a.Result.LT2, 250, 4.0)
	assert.InDelta(t, 300, a.MaxLoad, 1e-9)
	require.Len(t, a.Zones, threshold.ZoneCount)
	assert.InDelta(t, 250, a.Zones[3].Range[0], 0.01)
	assert.InDelta(t, 275, a.Zones[3].Range[1], 0.01)
	assert.InDelta(t, 275, a.Zones[4].Range[0], 0.01)
	assert.InDelta(t, 300, a.Zones[4].Range[1], 1e-9)
	for _, z := range a.Zones {
		assert.Greater(t, z.Range[1], z.Range[0], "zone %d is empty", z.ID)
	}
}

func TestAnalyze_RecordedTheoreticalLoad(t *testing.T) {
	svc := newTestService(t)
	test := referenceTest()
	test.Stages[4].Duration = f64(1.0)
	test.Stages[4].TheoreticalLoad = f64(265)
	id := importTest(t, svc, test)

	a, err := svc.Analyze(context.Background(), id, threshold.MethodMader)
	require.NoError(t, err)

	require.Len(t, a.Corrections, 1)
	c := a.Corrections[0]
	assert.True(t, c.Final)
	require.NotNil(t, c.TheoreticalLoad)
	assert.Equal(t, stage.MethodNone, c.TheoreticalLoad.Method)
	assert.InDelta(t, 265, c.TheoreticalLoad.Value, 1e-9)
	assert.Equal(t, NoteRecordedTheoreticalLoad, c.TheoreticalLoad.Note)

	last := a.Points[len(a.Points)-1]
	assert.InDelta(t, 300, last.Load, 1e-9)
	require.NotNil(t, last.TheoreticalLoad)
	assert.InDelta(t, 265, *last.TheoreticalLoad, 1e-9)
	assert.InDelta(t, 300, a.MaxLoad, 1e-9)
}

func TestAnalyze_IncompleteIntermediateStage(t *testing.T) {
	svc := newTestService(t)
	test := referenceTest()
	test.Stages[2].Duration = f64(1.5)
	id := importTest(t, svc, test)

	a, err := svc.Analyze(context.Background(), id, threshold.MethodMader)
	require.NoError(t, err)

	require.Len(t, a.Corrections, 1)
	c := a.Corrections[0]
	assert.False(t, c.Final)
	require.NotNil(t, c.Lactate)
	assert.Equal(t, stage.MethodQuadratic, c.Lactate.Method)
	assert.InDelta(t, 3.57, c.Lactate.Value, 0.01)
	require.NotNil(t, c.HeartRate)

	p := a.Points[2]
	assert.InDelta(t, 200, p.Load, 1e-9)
	assert.InDelta(t, 3.57, p.Lactate, 0.01)
	assert.True(t, p.IsInterpolated)
	assert.False(t, a.Points[1].IsInterpolated)
}

func TestOverride_AdjustedMode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := importTest(t, svc, referenceTest())

	err := svc.SetOverride(ctx, id, OverrideInput{
		LT1: &threshold.Point{Load: 160, Lactate: 2.0},
		LT2: &threshold.Point{Load: 240, Lactate: 3.8},
	})
	require.NoError(t, err)

	a, err := svc.Analyze(ctx, id, threshold.MethodDMAX)
	require.NoError(t, err)
	assert.True(t, a.Adjusted)
	assert.Equal(t, NoteAdjusted, a.Result.Notes)
	assert.Equal(t, threshold.MethodDMAX, a.Result.Method)
	assertPoint(t, a.Result.LT1, 160, 2.0)
	assertPoint(t, a.Result.LT2, 240, 3.8)
	assert.InDelta(t, 186.67, a.Zones[1].Range[1], 0.01)
	assert.InDelta(t, 270, a.Zones[3].Range[1], 0.01)

	t.Run("zone boundaries take precedence", func(t *testing.T) {
		err := svc.SetOverride(ctx, id, OverrideInput{
			LT2:        &threshold.Point{Load: 240, Lactate: 3.8},
			Boundaries: &[4]float64{150, 200, 240, 280},
		})
		require.NoError(t, err)

		a, err := svc.Analyze(ctx, id, threshold.MethodDMAX)
		require.NoError(t, err)
		assert.Nil(t, a.Result.LT1)
		want := [][2]float64{{0, 150}, {150, 200}, {200, 240}, {240, 280}, {280, 300}}
		for i, z := range a.Zones {
			assert.InDelta(t, want[i][0], z.Range[0], 1e-9, "zone %d lower", i+1)
			assert.InDelta(t, want[i][1], z.Range[1], 1e-9, "zone %d upper", i+1)
		}
	})

	t.Run("clearing returns to computed mode", func(t *testing.T) {
		require.NoError(t, svc.ClearOverride(ctx, id))

		a, err := svc.Analyze(ctx, id, threshold.MethodDMAX)
		require.NoError(t, err)
		assert.False(t, a.Adjusted)
		assert.NotEqual(t, NoteAdjusted, a.Result.Notes)

		assert.ErrorIs(t, svc.ClearOverride(ctx, id), store.ErrOverrideNotFound)
	})
}

func TestSetOverride_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := importTest(t, svc, referenceTest())

	tests := []struct {
		name string
		in   OverrideInput
	}{
		{"empty", OverrideInput{}},
		{"LT1 above LT2", OverrideInput{
			LT1: &threshold.Point{Load: 250, Lactate: 2},
			LT2: &threshold.Point{Load: 200, Lactate: 4},
		}},
		{"zero load", OverrideInput{LT2: &threshold.Point{Load: 0, Lactate: 4}}},
		{"boundaries not ascending", OverrideInput{Boundaries: &[4]float64{150, 140, 200, 250}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SetOverride(ctx, id, tt.in)
			assert.ErrorIs(t, err, ErrInvalidOverride)
		})
	}

	err := svc.SetOverride(ctx, "missing", OverrideInput{LT2: &threshold.Point{Load: 200, Lactate: 4}})
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestCompareMethods(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := importTest(t, svc, referenceTest())

	cmp, err := svc.CompareMethods(ctx, id)
	require.NoError(t, err)

	methods := threshold.Methods()
	require.Len(t, cmp.Outcomes, len(methods))
	for i, o := range cmp.Outcomes {
		assert.Equal(t, methods[i].Method, o.Result.Method)
		assert.Len(t, o.Zones, threshold.ZoneCount)
		if o.Result.LT1 != nil && o.Result.LT2 != nil {
			assert.Less(t, o.Result.LT1.Load, o.Result.LT2.Load, "method %s", o.Result.Method)
		}
	}
	assertPoint(t, cmp.Outcomes[0].Result.LT2, 250, 4.0)

	cached, err := svc.CachedResults(ctx, id)
	require.NoError(t, err)
	assert.Len(t, cached, len(methods))

	// same input, same answer
	again, err := svc.CompareMethods(ctx, id)
	require.NoError(t, err)
	for i := range cmp.Outcomes {
		assert.Equal(t, cmp.Outcomes[i].Result, again.Outcomes[i].Result)
	}
}

func TestCompareMethods_Canceled(t *testing.T) {
	svc := newTestService(t)
	id := importTest(t, svc, referenceTest())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.CompareMethods(ctx, id)
	assert.Error(t, err)
}

func TestImportFile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "ramp.yaml")
	content := "subject: athlete-9\nunit: kmh\nstages:\n  - speed: 10\n    la: 1.1\n  - speed: 12\n    la: 1.6\n  - speed: 14\n    la: 3.2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	sess, err := svc.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "athlete-9", sess.Subject)
	assert.Equal(t, ingest.UnitKmh, sess.Unit)
	assert.Equal(t, 3, sess.StageCount)
	assert.True(t, sess.TestedAt.Equal(svc.now()), "missing test date falls back to import time")

	sessions, err := svc.ListSessions(ctx, "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	require.NoError(t, svc.DeleteSession(ctx, sess.ID))
	sessions, err = svc.ListSessions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = svc.ImportFile(ctx, filepath.Join(t.TempDir(), "ramp.txt"))
	assert.ErrorIs(t, err, ingest.ErrUnsupportedFormat)
}

func TestResolveSessionID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"abc123", "abd456"} {
		test := referenceTest()
		_, err := svc.store.CreateSession(ctx, &store.Session{ID: id, Subject: test.Subject, Unit: test.Unit}, nil)
		require.NoError(t, err)
	}

	got, err := svc.ResolveSessionID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	got, err = svc.ResolveSessionID(ctx, "abd456")
	require.NoError(t, err)
	assert.Equal(t, "abd456", got)

	_, err = svc.ResolveSessionID(ctx, "ab")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = svc.ResolveSessionID(ctx, "zzz")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	_, err = svc.ResolveSessionID(ctx, "")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}
