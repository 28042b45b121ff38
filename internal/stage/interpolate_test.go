package stage

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func f64(v float64) *float64 { return &v }

func TestInterpolateIncompleteStage(t *testing.T) {
	tests := []struct {
		name        string
		in          IncompleteStage
		wantMethod  Method
		wantLoad    float64
		wantLactate float64
		wantConf    float64
	}{
		{
			name: "nearly complete stage is left alone",
			in: IncompleteStage{
				Current:        Sample{Load: 200, Lactate: 3.0},
				Previous:       &Sample{Load: 180, Lactate: 2.5},
				ActualDuration: 2.85,
				TargetDuration: 3,
			},
			wantMethod:  MethodNone,
			wantLoad:    200,
			wantLactate: 3.0,
			wantConf:    1.0,
		},
		{
			name: "linear from previous stage",
			in: IncompleteStage{
				Current:        Sample{Load: 200, Lactate: 3.0},
				Previous:       &Sample{Load: 180, Lactate: 2.5},
				ActualDuration: 1.5,
				TargetDuration: 3,
			},
			wantMethod:  MethodLinear,
			wantLoad:    220,
			wantLactate: 3.5,
			wantConf:    0.55,
		},
		{
			name: "quadratic through three stages",
			in: IncompleteStage{
				Current:        Sample{Load: 187.5, Lactate: 2.75},
				Previous:       &Sample{Load: 175, Lactate: 2.5},
				PrePrevious:    &Sample{Load: 150, Lactate: 2.0},
				ActualDuration: 1.5,
				TargetDuration: 3,
			},
			wantMethod:  MethodQuadratic,
			wantLoad:    200,
			wantLactate: 3.0,
			wantConf:    0.55,
		},
		{
			name: "short stage uses linear even with three stages",
			in: IncompleteStage{
				Current:        Sample{Load: 185, Lactate: 2.6},
				Previous:       &Sample{Load: 180, Lactate: 2.5},
				PrePrevious:    &Sample{Load: 160, Lactate: 2.0},
				ActualDuration: 0.75,
				TargetDuration: 3,
			},
			wantMethod:  MethodLinear,
			wantLoad:    200,
			wantLactate: 2.9,
			wantConf:    0.3,
		},
		{
			name: "late stage above quadratic window uses linear",
			in: IncompleteStage{
				Current:        Sample{Load: 195, Lactate: 2.9},
				Previous:       &Sample{Load: 180, Lactate: 2.5},
				PrePrevious:    &Sample{Load: 160, Lactate: 2.0},
				ActualDuration: 2.25,
				TargetDuration: 3,
			},
			wantMethod:  MethodLinear,
			wantLoad:    200,
			wantLactate: 3.03,
			wantConf:    0.78,
		},
		{
			name: "no previous stage",
			in: IncompleteStage{
				Current:        Sample{Load: 100, Lactate: 1.2},
				ActualDuration: 1.5,
				TargetDuration: 3,
			},
			wantMethod:  MethodNone,
			wantLoad:    100,
			wantLactate: 1.2,
			wantConf:    0.55,
		},
		{
			name: "invalid durations",
			in: IncompleteStage{
				Current:        Sample{Load: 100, Lactate: 1.2},
				Previous:       &Sample{Load: 80, Lactate: 1.0},
				ActualDuration: 1,
				TargetDuration: 0,
			},
			wantMethod:  MethodNone,
			wantLoad:    100,
			wantLactate: 1.2,
			wantConf:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterpolateIncompleteStage(tt.in)

			if got.Load.Method != tt.wantMethod || got.Lactate.Method != tt.wantMethod {
				t.Errorf("methods = %s/%s, want %s", got.Load.Method, got.Lactate.Method, tt.wantMethod)
			}
			if math.Abs(got.Load.Value-tt.wantLoad) > 0.01 {
				t.Errorf("load = %.2f, want %.2f", got.Load.Value, tt.wantLoad)
			}
			if math.Abs(got.Lactate.Value-tt.wantLactate) > 0.01 {
				t.Errorf("lactate = %.2f, want %.2f", got.Lactate.Value, tt.wantLactate)
			}
			if math.Abs(got.Load.Confidence-tt.wantConf) > 0.001 {
				t.Errorf("confidence = %.2f, want %.2f", got.Load.Confidence, tt.wantConf)
			}
			if got.HeartRate != nil {
				t.Errorf("heart rate = %+v, want nil without a measured heart rate", got.HeartRate)
			}
		})
	}
}

func TestInterpolateIncompleteStage_HeartRate(t *testing.T) {
	got := InterpolateIncompleteStage(IncompleteStage{
		Current:        Sample{Load: 200, Lactate: 3.0, HeartRate: f64(160)},
		Previous:       &Sample{Load: 180, Lactate: 2.5, HeartRate: f64(150)},
		ActualDuration: 1.5,
		TargetDuration: 3,
	})
	if got.HeartRate == nil {
		t.Fatal("heart rate = nil, want corrected value")
	}
	if got.HeartRate.Method != MethodLinear || math.Abs(got.HeartRate.Value-170) > 0.01 {
		t.Errorf("heart rate = %+v, want linear 170", *got.HeartRate)
	}

	got = InterpolateIncompleteStage(IncompleteStage{
		Current:        Sample{Load: 200, Lactate: 3.0, HeartRate: f64(160)},
		Previous:       &Sample{Load: 180, Lactate: 2.5},
		ActualDuration: 1.5,
		TargetDuration: 3,
	})
	if got.HeartRate == nil || got.HeartRate.Method != MethodNone || got.HeartRate.Value != 160 {
		t.Errorf("heart rate without previous = %+v, want unchanged 160", got.HeartRate)
	}
}

func TestInterpolateIncompleteStage_LogsLowReliability(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	InterpolateIncompleteStage(IncompleteStage{
		Current:        Sample{Load: 185, Lactate: 2.6},
		Previous:       &Sample{Load: 180, Lactate: 2.5},
		ActualDuration: 0.75,
		TargetDuration: 3,
	}, WithLogger(logger))

	out := buf.String()
	if !strings.Contains(out, "low reliability") || !strings.Contains(out, "ratio=0.25") {
		t.Errorf("log output = %q, want low reliability warning with ratio", out)
	}

	buf.Reset()
	InterpolateIncompleteStage(IncompleteStage{
		Current:        Sample{Load: 200, Lactate: 3.0},
		Previous:       &Sample{Load: 180, Lactate: 2.5},
		ActualDuration: 1.5,
		TargetDuration: 3,
	}, WithLogger(logger))
	if buf.Len() != 0 {
		t.Errorf("unexpected log output %q", buf.String())
	}
}

func TestCompletionConfidence(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0, 0},
		{-1, 0},
		{0.33, 0.4},
		{0.665, 0.7},
		{1.0, 1.0},
		{1.4, 1.0},
	}

	for _, tt := range tests {
		got := CompletionConfidence(tt.ratio)
		if math.Abs(got-tt.want) > 0.001 {
			t.Errorf("CompletionConfidence(%.3f) = %.3f, want %.3f", tt.ratio, got, tt.want)
		}
	}

	prev := -1.0
	for r := 0.0; r <= 1.0; r += 0.01 {
		c := CompletionConfidence(r)
		if c < prev {
			t.Fatalf("confidence decreased at ratio %.2f: %.2f < %.2f", r, c, prev)
		}
		prev = c
	}
}
