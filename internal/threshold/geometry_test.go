package threshold

import (
	"testing"
)

// plateauCurve rises steeply early and then flattens, which pulls the DMAX
// point to the second stage while the deflection search falls back to n/3.
func plateauCurve() []DataPoint {
	return makePoints(
		100, 1.0,
		150, 4.0,
		200, 4.5,
		250, 5.0,
		300, 5.5,
		350, 6.0,
	)
}

func TestDmaxIndex(t *testing.T) {
	tests := []struct {
		name     string
		points   []DataPoint
		expected int
	}{
		{"reference curve", maderCurve(), 2},
		{"plateau curve", plateauCurve(), 1},
		{"collinear points", makePoints(100, 1, 200, 2, 300, 3), -1},
		{"too few points", makePoints(100, 1, 200, 2), -1},
		{"identical endpoints", makePoints(100, 1, 150, 2, 100, 1), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DmaxIndex(tt.points); got != tt.expected {
				t.Errorf("DmaxIndex() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestDmaxIndex_UnitIndependent(t *testing.T) {
	// The same curve on a km/h axis selects the same stage
	kmh := makePoints(
		8, 1.5,
		10, 1.8,
		12, 2.5,
		14, 4.0,
		16, 7.0,
	)
	if got := DmaxIndex(kmh); got != DmaxIndex(maderCurve()) {
		t.Errorf("DmaxIndex(km/h) = %d, want %d", got, DmaxIndex(maderCurve()))
	}
}

func TestDeflectionIndex(t *testing.T) {
	tests := []struct {
		name     string
		points   []DataPoint
		expected int
	}{
		// chord slope 0.0275, no early slope above 0.04125 -> n/3
		{"reference curve falls back", maderCurve(), 1},
		{"plateau curve falls back", plateauCurve(), 2},
		{
			// chord slope 0.02, slope from index 2 is 0.04
			name:     "early deflection",
			points:   makePoints(100, 1.0, 150, 1.2, 200, 1.4, 250, 3.4, 300, 4.0, 350, 4.5, 400, 5.0, 450, 5.5, 500, 9.0),
			expected: 2,
		},
		{"too few points", makePoints(100, 1, 200, 2), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeflectionIndex(tt.points); got != tt.expected {
				t.Errorf("DeflectionIndex() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestModDmaxIndex(t *testing.T) {
	if got := ModDmaxIndex(maderCurve()); got != 3 {
		t.Errorf("ModDmaxIndex(reference) = %d, want 3", got)
	}
	if got := ModDmaxIndex(makePoints(100, 1, 200, 2, 300, 4)); got != -1 {
		t.Errorf("ModDmaxIndex(3 points) = %d, want -1", got)
	}
	if got := ModDmaxIndex(makePoints(100, 1, 100, 2, 100, 3, 100, 4)); got != -1 {
		t.Errorf("ModDmaxIndex(zero load range) = %d, want -1", got)
	}
}

func TestLogLogBreakpoint(t *testing.T) {
	tests := []struct {
		name   string
		points []DataPoint
		wantBP int
		wantL1 int
	}{
		{"five points has one candidate", maderCurve(), 2, 1},
		{"too few points", makePoints(100, 1, 150, 2, 200, 3, 250, 4), -1, -1},
		{"zero lactate cannot be logged", makePoints(100, 0, 150, 1, 200, 2, 250, 3, 300, 5), -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp, lt1 := LogLogBreakpoint(tt.points)
			if bp != tt.wantBP {
				t.Errorf("breakpoint = %d, want %d", bp, tt.wantBP)
			}
			if lt1 != tt.wantL1 {
				t.Errorf("lt1 = %d, want %d", lt1, tt.wantL1)
			}
		})
	}
}

func TestLogLogBreakpoint_FindsKnee(t *testing.T) {
	// Flat in log-log space up to 250 W, then a straight steep rise
	points := makePoints(
		100, 1.0,
		150, 1.0,
		200, 1.0,
		250, 1.0,
		300, 2.0,
		350, 4.0,
		400, 8.0,
	)

	bp, lt1 := LogLogBreakpoint(points)
	if bp < 3 || bp > 4 {
		t.Errorf("breakpoint = %d, want the knee at index 3 or 4", bp)
	}
	if lt1 != -1 {
		t.Errorf("lt1 = %d, want -1 (flat segment has no slope change)", lt1)
	}
}
