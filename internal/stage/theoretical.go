package stage

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Completion ratio window in which the fatigue model is used
const (
	fatigueModelMinRatio = 0.25
	fatigueModelMaxRatio = 0.75
)

// Fatigue exponent bounds: 6 for perfectly regular load steps, lower as the
// steps become irregular.
const (
	baseFatigueExponent = 6.0
	minFatigueExponent  = 3.0
	maxFatigueExponent  = 10.0
)

// FinalStage is a last stage that was terminated before its planned duration.
// PriorLoads are the loads of the completed stages before it, oldest first.
type FinalStage struct {
	CurrentLoad    float64
	PriorLoads     []float64
	ActualDuration float64
	TargetDuration float64
}

// ExtrapolationConfidence is the step function used for theoretical loads
func ExtrapolationConfidence(ratio float64) float64 {
	switch {
	case ratio < 0.33:
		return 0.40
	case ratio < 0.5:
		return 0.55
	case ratio < 0.67:
		return 0.70
	default:
		return 0.85
	}
}

// ExtrapolateTheoreticalLoad estimates the highest load the subject could have
// held for the whole planned stage. The result never exceeds CurrentLoad.
// This is a heuristic, not a published model.
func ExtrapolateTheoreticalLoad(in FinalStage, opts ...Option) Result {
	o := buildOptions(opts)

	if !finite(in.CurrentLoad) || in.CurrentLoad <= 0 {
		return Result{Value: in.CurrentLoad, Method: MethodNone, Confidence: 0, Note: "no usable load on final stage"}
	}

	ratio := CompletionRatio(in.ActualDuration, in.TargetDuration)
	if ratio <= 0 {
		return Result{Value: in.CurrentLoad, Method: MethodNone, Confidence: 0, Note: "invalid stage durations, load left as measured"}
	}
	if ratio >= 1 {
		return Result{Value: in.CurrentLoad, Method: MethodNone, Confidence: 1.0, Note: "final stage completed"}
	}

	confidence := ExtrapolationConfidence(ratio)
	log := o.logger.WithFields(logrus.Fields{
		"ratio": round2(ratio),
		"load":  in.CurrentLoad,
	})

	if len(in.PriorLoads) >= 3 && ratio >= fatigueModelMinRatio && ratio < fatigueModelMaxRatio {
		n := len(in.PriorLoads)
		k := FatigueExponent(in.PriorLoads[n-3], in.PriorLoads[n-2], in.PriorLoads[n-1])
		v := in.CurrentLoad * math.Pow(ratio, 1/k)
		if finite(v) && v > 0 {
			log.WithField("exponent", round2(k)).Debug("theoretical load from fatigue model")
			return Result{
				Value:      round2(math.Min(v, in.CurrentLoad)),
				Method:     MethodQuadratic,
				Confidence: confidence,
				Note:       fmt.Sprintf("fatigue model, exponent %.2f at %.0f%% completion", k, ratio*100),
			}
		}
	}

	v := in.CurrentLoad * (0.85 + ratio*0.10)
	if confidence < 0.5 {
		log.Warn("theoretical load from a very short final stage")
	}
	return Result{
		Value:      round2(v),
		Method:     MethodLinear,
		Confidence: confidence,
		Note:       fmt.Sprintf("linear reduction at %.0f%% completion", ratio*100),
	}
}

// FatigueExponent derives the exponent from how irregular the last two load
// increases were: 6 / (1 + cv), clamped to [3, 10], where cv is the
// coefficient of variation of the two increases.
func FatigueExponent(third, second, last float64) float64 {
	d1 := second - third
	d2 := last - second
	mean := (d1 + d2) / 2

	cv := 1.0
	if mean > 0 {
		cv = math.Abs(d2-d1) / 2 / mean
	}

	k := baseFatigueExponent / (1 + cv)
	return math.Min(math.Max(k, minFatigueExponent), maxFatigueExponent)
}
