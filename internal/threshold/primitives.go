package threshold

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// belowMinTolerance is how far (relative) a target may sit under the lowest
// measured lactate and still be extrapolated backwards.
const belowMinTolerance = 0.10

// InterpolateThreshold finds the load at which the curve reaches targetLactate.
// It interpolates linearly inside the first bracketing pair of points and
// extrapolates backwards when the target is slightly below every measurement.
// Returns nil when the load cannot be determined.
func InterpolateThreshold(points []DataPoint, targetLactate float64) *Point {
	n := len(points)
	if n < 2 || !isFinite(targetLactate) {
		return nil
	}

	lactates := make([]float64, n)
	for i, p := range points {
		lactates[i] = p.Lactate
	}
	minLactate := floats.Min(lactates)
	maxLactate := floats.Max(lactates)

	if targetLactate > maxLactate {
		return nil
	}

	if targetLactate < minLactate {
		return extrapolateBelow(points, targetLactate, minLactate)
	}

	for i := 0; i < n-1; i++ {
		lo, hi := points[i], points[i+1]
		if lo.Lactate > targetLactate || targetLactate > hi.Lactate {
			continue
		}

		deltaLactate := hi.Lactate - lo.Lactate
		if deltaLactate == 0 {
			return nil
		}

		load := lo.Load + (targetLactate-lo.Lactate)/deltaLactate*(hi.Load-lo.Load)
		if !isFinite(load) || load < 0 {
			return nil
		}
		return &Point{Load: round2(load), Lactate: round2(targetLactate)}
	}

	return nil
}

// extrapolateBelow follows the slope of the first two points backwards
func extrapolateBelow(points []DataPoint, target, minLactate float64) *Point {
	if minLactate <= 0 || (minLactate-target)/minLactate >= belowMinTolerance {
		return nil
	}

	first, second := points[0], points[1]
	deltaLoad := second.Load - first.Load
	deltaLactate := second.Lactate - first.Lactate
	if deltaLoad == 0 || deltaLactate <= 0 {
		return nil
	}

	slope := deltaLactate / deltaLoad
	load := first.Load - (first.Lactate-target)/slope
	if !isFinite(load) || load <= 0 {
		return nil
	}
	return &Point{Load: round2(load), Lactate: round2(target)}
}

// CalculateBaseline returns the mean lactate of the first min(3, n/3) points,
// an estimate of the individual's resting level. At least one point is used.
func CalculateBaseline(points []DataPoint) float64 {
	n := len(points)
	if n == 0 {
		return 0
	}

	k := n / 3
	if k > 3 {
		k = 3
	}
	if k < 1 {
		k = 1
	}

	early := make([]float64, k)
	for i := 0; i < k; i++ {
		early[i] = points[i].Lactate
	}
	return stat.Mean(early, nil)
}

// FindMinLactate returns the index and value of the lowest lactate reading.
// The first occurrence wins on ties. Returns -1 for an empty slice.
func FindMinLactate(points []DataPoint) (int, DataPoint) {
	if len(points) == 0 {
		return -1, DataPoint{}
	}

	best := 0
	for i := 1; i < len(points); i++ {
		if points[i].Lactate < points[best].Lactate {
			best = i
		}
	}
	return best, points[best]
}

// LinearRegression fits y = slope*x + intercept by ordinary least squares.
// ok is false when fewer than two points are given or x has no spread.
func LinearRegression(xs, ys []float64) (slope, intercept float64, ok bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, 0, false
	}
	if floats.Max(xs) == floats.Min(xs) {
		return 0, 0, false
	}

	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	if !isFinite(slope) || !isFinite(intercept) {
		return 0, 0, false
	}
	return slope, intercept, true
}
