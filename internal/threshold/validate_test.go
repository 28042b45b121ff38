package threshold

import (
	"bytes"
	"strings"
	"testing"

	"lactate-lab/internal/monitoring"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		points    []DataPoint
		in        MethodResult
		wantLT1   *Point
		wantNote  string
		unchanged bool
	}{
		{
			name:      "ordered result passes through",
			points:    maderCurve(),
			in:        MethodResult{Method: MethodMader, LT1: &Point{164.29, 2.0}, LT2: &Point{250, 4.0}},
			wantLT1:   &Point{164.29, 2.0},
			unchanged: true,
		},
		{
			name:      "missing LT2 is left alone",
			points:    maderCurve(),
			in:        MethodResult{Method: MethodDMAX, LT1: &Point{300, 7.0}},
			wantLT1:   &Point{300, 7.0},
			unchanged: true,
		},
		{
			name:      "missing LT1 without fill policy stays missing",
			points:    maderCurve(),
			in:        MethodResult{Method: MethodMader, LT2: &Point{250, 4.0}},
			unchanged: true,
		},
		{
			name:     "standard method uses 60% of LT2",
			points:   maderCurve(),
			in:       MethodResult{Method: MethodMader, LT1: &Point{300, 7.0}, LT2: &Point{250, 4.0}},
			wantLT1:  &Point{192.86, 2.4}, // 150 + (0.6/0.7)*50
			wantNote: "60% of LT2",
		},
		{
			name:     "geometric method tries 2.0 mmol/L first",
			points:   maderCurve(),
			in:       MethodResult{Method: MethodDMAX, LT1: &Point{300, 7.0}, LT2: &Point{250, 4.0}},
			wantLT1:  &Point{164.29, 2.0},
			wantNote: "2.0 mmol/L",
		},
		{
			name:     "log-log fills a missing LT1",
			points:   maderCurve(),
			in:       MethodResult{Method: MethodLogLog, LT2: &Point{250, 4.0}},
			wantLT1:  &Point{164.29, 2.0},
			wantNote: "LT1 not found",
		},
		{
			name: "index fallback when interpolation cannot help",
			points: makePoints(
				100, 3.0,
				150, 2.0,
				200, 2.2,
				250, 2.4,
				300, 5.0,
				350, 8.0,
			),
			// 60% of LT2 floors at 1.5 mmol/L, which is far below every measurement
			in:       MethodResult{Method: MethodModDMAX, LT1: &Point{300, 5.0}, LT2: &Point{250, 2.4}},
			wantLT1:  &Point{200, 2.2},
			wantNote: "n/3",
		},
		{
			name:     "LT1 dropped when nothing sits below LT2",
			points:   maderCurve(),
			in:       MethodResult{Method: MethodSeiler, LT1: &Point{200, 2.5}, LT2: &Point{110, 1.4}},
			wantNote: "LT1 dropped",
		},
		{
			name:     "lactate ordering is enforced too",
			points:   maderCurve(),
			in:       MethodResult{Method: MethodMader, LT1: &Point{200, 5.0}, LT2: &Point{250, 4.0}},
			wantLT1:  &Point{192.86, 2.4},
			wantNote: "60% of LT2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validate(tt.in, tt.points, monitoring.Nop())

			if tt.wantLT1 == nil {
				if got.LT1 != nil {
					t.Errorf("LT1 = %+v, want nil", *got.LT1)
				}
			} else {
				assertPoint(t, "LT1", got.LT1, *tt.wantLT1)
			}

			if tt.unchanged && got.Notes != tt.in.Notes {
				t.Errorf("Notes changed to %q", got.Notes)
			}
			if tt.wantNote != "" && !strings.Contains(got.Notes, tt.wantNote) {
				t.Errorf("Notes = %q, want it to contain %q", got.Notes, tt.wantNote)
			}
			if got.LT1 != nil && got.LT2 != nil && !ordered(got.LT1, got.LT2) {
				t.Errorf("result not ordered: LT1 %+v LT2 %+v", *got.LT1, *got.LT2)
			}
		})
	}
}

func TestValidate_LogsFallback(t *testing.T) {
	var buf bytes.Buffer
	logger, err := monitoring.New("warn", "text", &buf)
	if err != nil {
		t.Fatalf("monitoring.New() error = %v", err)
	}

	Calculate(MethodDMAX, plateauCurve(), WithLogger(logger))

	out := buf.String()
	if !strings.Contains(out, "threshold fallback applied") {
		t.Errorf("log output %q should mention the fallback", out)
	}
	if !strings.Contains(out, "step=fixed_2mmol") {
		t.Errorf("log output %q should carry the step field", out)
	}
}

func TestPolicy(t *testing.T) {
	if got := Policy(MethodDMAX).Steps[0]; got != StepFixed2mmol {
		t.Errorf("DMAX first step = %q, want %q", got, StepFixed2mmol)
	}
	if got := Policy(MethodMader).Steps[0]; got != StepLT2Fraction {
		t.Errorf("Mader first step = %q, want %q", got, StepLT2Fraction)
	}
	if !Policy(MethodLogLog).FillMissingLT1 {
		t.Error("Log-Log should fill a missing LT1")
	}
	if got := Policy(Method("unknown")).Steps; len(got) != 2 {
		t.Errorf("unknown method steps = %v, want the standard two", got)
	}
}
