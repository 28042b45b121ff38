package threshold

import "math"

const (
	// deflectionWindow limits the LT1 deflection search to the early part of the test
	deflectionWindow = 0.70
	// deflectionFactor is how much steeper than the chord a local slope must be
	deflectionFactor = 1.5
	// modDmaxExponent shapes the expected curve used by ModDMAX
	modDmaxExponent = 1.5
	// logLogSlopeJump is the slope change in log-log space that marks LT1
	logLogSlopeJump = 0.5
)

// DmaxIndex returns the index of the interior point farthest from the chord
// joining the first and last points, or -1 when no such point exists.
// The distance is a plain point-to-line distance so it does not depend on the load unit.
func DmaxIndex(points []DataPoint) int {
	n := len(points)
	if n < 3 {
		return -1
	}

	first, last := points[0], points[n-1]
	dx := last.Load - first.Load
	dy := last.Lactate - first.Lactate
	length := math.Hypot(dx, dy)
	if length == 0 {
		return -1
	}

	best := -1
	bestDist := 0.0
	for i := 1; i < n-1; i++ {
		p := points[i]
		dist := math.Abs(dy*(p.Load-first.Load)-dx*(p.Lactate-first.Lactate)) / length
		if dist > bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// DeflectionIndex scans the first 70% of the test for the first point whose
// forward slope is 1.5x steeper than the overall chord. Falls back to n/3.
func DeflectionIndex(points []DataPoint) int {
	n := len(points)
	if n < 3 {
		return -1
	}

	first, last := points[0], points[n-1]
	loadRange := last.Load - first.Load
	if loadRange <= 0 {
		return n / 3
	}
	baselineSlope := (last.Lactate - first.Lactate) / loadRange

	limit := int(float64(n) * deflectionWindow)
	for i := 1; i < limit && i < n-1; i++ {
		deltaLoad := points[i+1].Load - points[i].Load
		if deltaLoad <= 0 {
			continue
		}
		localSlope := (points[i+1].Lactate - points[i].Lactate) / deltaLoad
		if localSlope > deflectionFactor*baselineSlope {
			return i
		}
	}

	return n / 3
}

// ModDmaxIndex returns the point deviating most from the exponential
// expectation first + (last-first) * u^1.5, where u is the normalised load.
// Needs at least 4 points; returns -1 otherwise.
func ModDmaxIndex(points []DataPoint) int {
	n := len(points)
	if n < 4 {
		return -1
	}

	first, last := points[0], points[n-1]
	loadRange := last.Load - first.Load
	if loadRange <= 0 {
		return -1
	}

	best := -1
	bestDev := 0.0
	for i := 1; i < n-1; i++ {
		u := (points[i].Load - first.Load) / loadRange
		expected := first.Lactate + (last.Lactate-first.Lactate)*math.Pow(u, modDmaxExponent)
		dev := math.Abs(points[i].Lactate - expected)
		if dev > bestDev {
			bestDev = dev
			best = i
		}
	}
	return best
}

// LogLogBreakpoint searches for the index that best splits the log-log curve
// into two straight segments (minimum total squared error). It also returns the
// first index before the breakpoint where adjacent log-log slopes differ by
// more than 0.5, or -1 when there is none. Needs at least 5 points with
// positive load and lactate.
func LogLogBreakpoint(points []DataPoint) (breakpoint, lt1 int) {
	n := len(points)
	if n < 5 {
		return -1, -1
	}

	lx := make([]float64, n)
	ly := make([]float64, n)
	for i, p := range points {
		if p.Load <= 0 || p.Lactate <= 0 {
			return -1, -1
		}
		lx[i] = math.Log(p.Load)
		ly[i] = math.Log(p.Lactate)
	}

	breakpoint = -1
	bestSSE := math.Inf(1)
	for bp := 2; bp <= n-3; bp++ {
		left, okLeft := segmentSSE(lx[:bp+1], ly[:bp+1])
		right, okRight := segmentSSE(lx[bp:], ly[bp:])
		if !okLeft || !okRight {
			continue
		}
		if total := left + right; total < bestSSE {
			bestSSE = total
			breakpoint = bp
		}
	}
	if breakpoint < 0 {
		return -1, -1
	}

	lt1 = -1
	for i := 1; i < breakpoint; i++ {
		before, okBefore := slopeBetween(lx, ly, i-1, i)
		after, okAfter := slopeBetween(lx, ly, i, i+1)
		if !okBefore || !okAfter {
			continue
		}
		if math.Abs(after-before) > logLogSlopeJump {
			lt1 = i
			break
		}
	}

	return breakpoint, lt1
}

func segmentSSE(xs, ys []float64) (float64, bool) {
	slope, intercept, ok := LinearRegression(xs, ys)
	if !ok {
		return 0, false
	}
	sse := 0.0
	for i := range xs {
		r := ys[i] - (slope*xs[i] + intercept)
		sse += r * r
	}
	return sse, true
}

func slopeBetween(xs, ys []float64, i, j int) (float64, bool) {
	dx := xs[j] - xs[i]
	if dx == 0 {
		return 0, false
	}
	return (ys[j] - ys[i]) / dx, true
}
