package stage

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Completion ratio boundaries for mid-test corrections
const (
	NoCorrectionRatio   = 0.90
	LowReliabilityRatio = 0.33
	quadraticUpperRatio = 0.67
	confidenceAtLow     = 0.40
)

// Sample is the measured state of one stage
type Sample struct {
	Load      float64
	Lactate   float64
	HeartRate *float64
}

// IncompleteStage describes an intermediate stage that ended early together
// with the stages before it. Durations share any unit, usually minutes.
type IncompleteStage struct {
	Current        Sample
	Previous       *Sample
	PrePrevious    *Sample
	ActualDuration float64
	TargetDuration float64
}

// InterpolatedStage holds the corrected metrics of a stage.
// HeartRate is nil when the current stage has no heart rate.
type InterpolatedStage struct {
	CompletionRatio float64
	Load            Result
	Lactate         Result
	HeartRate       *Result
}

// CompletionConfidence maps a completion ratio onto [0, 1]: rising linearly
// to 0.4 at 33% and from there to 1.0 at full duration.
func CompletionConfidence(ratio float64) float64 {
	switch {
	case ratio <= 0 || !finite(ratio):
		return 0
	case ratio >= 1:
		return 1
	case ratio < LowReliabilityRatio:
		return round2(confidenceAtLow * ratio / LowReliabilityRatio)
	default:
		return round2(confidenceAtLow + (ratio-LowReliabilityRatio)/(1-LowReliabilityRatio)*(1-confidenceAtLow))
	}
}

// InterpolateIncompleteStage estimates what load, lactate and heart rate would
// have been had the stage run its full duration (Newell et al. 2007).
// Stages at least 90% complete are returned unchanged.
func InterpolateIncompleteStage(in IncompleteStage, opts ...Option) InterpolatedStage {
	o := buildOptions(opts)
	ratio := CompletionRatio(in.ActualDuration, in.TargetDuration)

	if ratio > 0 && ratio < LowReliabilityRatio {
		o.logger.WithFields(logrus.Fields{
			"ratio":  round2(ratio),
			"actual": in.ActualDuration,
			"target": in.TargetDuration,
		}).Warn("stage completion below 33%, correction has low reliability")
	}

	out := InterpolatedStage{
		CompletionRatio: ratio,
		Load:            interpolateValue(in.Current.Load, loadOf(in.Previous), loadOf(in.PrePrevious), ratio),
		Lactate:         interpolateValue(in.Current.Lactate, lactateOf(in.Previous), lactateOf(in.PrePrevious), ratio),
	}

	if in.Current.HeartRate != nil {
		hr := interpolateValue(*in.Current.HeartRate, heartRateOf(in.Previous), heartRateOf(in.PrePrevious), ratio)
		out.HeartRate = &hr
	}

	return out
}

func interpolateValue(current float64, previous, prePrevious *float64, ratio float64) Result {
	if ratio >= NoCorrectionRatio {
		return Result{
			Value:      current,
			Method:     MethodNone,
			Confidence: 1.0,
			Note:       fmt.Sprintf("stage %.0f%% complete, no correction needed", ratio*100),
		}
	}

	confidence := CompletionConfidence(ratio)

	if ratio <= 0 {
		return Result{Value: current, Method: MethodNone, Confidence: 0, Note: "invalid stage durations, value left as measured"}
	}
	if previous == nil {
		return Result{Value: current, Method: MethodNone, Confidence: confidence, Note: "no previous stage to extrapolate from"}
	}

	if prePrevious != nil && ratio >= LowReliabilityRatio && ratio < quadraticUpperRatio {
		if v, ok := quadraticAtFull(*prePrevious, *previous, current, ratio); ok {
			return Result{
				Value:      round2(v),
				Method:     MethodQuadratic,
				Confidence: confidence,
				Note:       fmt.Sprintf("quadratic fit over three stages at %.0f%% completion", ratio*100),
			}
		}
	}

	v := *previous + (current-*previous)/ratio
	if !finite(v) || v < 0 {
		return Result{Value: current, Method: MethodNone, Confidence: confidence, Note: "linear extrapolation not finite, value left as measured"}
	}

	note := fmt.Sprintf("linear extrapolation from previous stage at %.0f%% completion", ratio*100)
	if ratio < LowReliabilityRatio {
		note += " (low reliability)"
	}
	return Result{Value: round2(v), Method: MethodLinear, Confidence: confidence, Note: note}
}

// quadraticAtFull fits a parabola through the pre-previous stage at t=-1, the
// previous stage at t=0 and the current measurement at t=ratio, then
// evaluates it at t=1 (Lagrange form).
func quadraticAtFull(prePrevious, previous, current, ratio float64) (float64, bool) {
	if ratio <= 0 {
		return 0, false
	}

	w0 := (1 - ratio) / (1 + ratio)
	w1 := -2 * (1 - ratio) / ratio
	w2 := 2 / (ratio * (1 + ratio))

	v := w0*prePrevious + w1*previous + w2*current
	if !finite(v) || v < 0 {
		return 0, false
	}
	return v, true
}

func loadOf(s *Sample) *float64 {
	if s == nil {
		return nil
	}
	return &s.Load
}

func lactateOf(s *Sample) *float64 {
	if s == nil {
		return nil
	}
	return &s.Lactate
}

func heartRateOf(s *Sample) *float64 {
	if s == nil {
		return nil
	}
	return s.HeartRate
}
