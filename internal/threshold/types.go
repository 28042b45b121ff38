package threshold

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DataPoint is one measured stage of an incremental test.
// Load is either watts or km/h; the engine never converts between them.
type DataPoint struct {
	Load            float64
	Lactate         float64  // mmol/L
	HeartRate       *float64 // bpm, nullable
	VO2             *float64 // nullable
	Timestamp       string
	Stage           *int
	TheoreticalLoad *float64 // fatigue-adjusted load of an incomplete final stage
	IsInterpolated  bool
}

// Point is a single breakpoint on the lactate curve.
type Point struct {
	Load    float64
	Lactate float64
}

// Method identifies a threshold detection method
type Method string

const (
	MethodMader    Method = "mader"
	MethodDMAX     Method = "dmax"
	MethodDickhuth Method = "dickhuth"
	MethodModDMAX  Method = "moddmax"
	MethodLogLog   Method = "loglog"
	MethodPlusOne  Method = "plus1"
	MethodSeiler   Method = "seiler"
	MethodFatMax   Method = "fatmax"
)

// MethodResult is the validated output of one method.
// When both LT1 and LT2 are set, LT1.Load < LT2.Load and LT1.Lactate <= LT2.Lactate.
type MethodResult struct {
	LT1        *Point
	LT2        *Point
	Method     Method
	MethodName string
	Reference  string
	Notes      string
}

// NoteInsufficientData is the note attached when a method gets fewer points than it needs
const NoteInsufficientData = "insufficient data"

// ParseMethod resolves a method name case-insensitively.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[m]; !ok {
		return "", fmt.Errorf("unknown threshold method %q", name)
	}
	return m, nil
}

// String returns the method key
func (m Method) String() string {
	return string(m)
}

// prepare returns a load-sorted copy of points with unusable measurements removed.
func prepare(points []DataPoint) []DataPoint {
	out := make([]DataPoint, 0, len(points))
	for _, p := range points {
		if !isFinite(p.Load) || !isFinite(p.Lactate) || p.Lactate < 0 {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Load < out[j].Load
	})
	return out
}

// MaxLoad returns the highest load in points, or 0 when empty.
func MaxLoad(points []DataPoint) float64 {
	maxLoad := 0.0
	for _, p := range points {
		if isFinite(p.Load) && p.Load > maxLoad {
			maxLoad = p.Load
		}
	}
	return maxLoad
}

func pointAt(points []DataPoint, i int) *Point {
	if i < 0 || i >= len(points) {
		return nil
	}
	return &Point{Load: points[i].Load, Lactate: points[i].Lactate}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// sanitize filters non-finite or negative thresholds to nil
func sanitize(p *Point) *Point {
	if p == nil {
		return nil
	}
	if !isFinite(p.Load) || !isFinite(p.Lactate) || p.Load < 0 || p.Lactate < 0 {
		return nil
	}
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
