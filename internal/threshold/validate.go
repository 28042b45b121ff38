package threshold

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// FallbackStep is one way of re-deriving LT1 when a method's raw LT1 cannot be used
type FallbackStep string

const (
	// StepFixed2mmol interpolates LT1 at 2.0 mmol/L
	StepFixed2mmol FallbackStep = "fixed_2mmol"
	// StepLT2Fraction interpolates LT1 at 60% of the LT2 lactate, at least 1.5 mmol/L
	StepLT2Fraction FallbackStep = "lt2_fraction"
	// StepIndexThird takes the measured point at index n/3, walking down until it sits below LT2
	StepIndexThird FallbackStep = "index_third"
)

const (
	fallbackFixedLactate  = 2.0
	fallbackLT2Fraction   = 0.6
	fallbackFractionFloor = 1.5
)

// FallbackPolicy is the ordered list of LT1 replacements tried for a method.
// FillMissingLT1 also runs the steps when the method found LT2 but no LT1.
type FallbackPolicy struct {
	Steps          []FallbackStep
	FillMissingLT1 bool
}

var (
	geometricSteps = []FallbackStep{StepFixed2mmol, StepLT2Fraction, StepIndexThird}
	standardSteps  = []FallbackStep{StepLT2Fraction, StepIndexThird}
)

// fallbackStrategies is the single place LT1 fallbacks are defined
var fallbackStrategies = map[Method]FallbackPolicy{
	MethodMader:    {Steps: standardSteps},
	MethodDMAX:     {Steps: geometricSteps},
	MethodDickhuth: {Steps: standardSteps},
	MethodModDMAX:  {Steps: standardSteps},
	MethodLogLog:   {Steps: geometricSteps, FillMissingLT1: true},
	MethodPlusOne:  {Steps: standardSteps},
	MethodSeiler:   {Steps: standardSteps},
	MethodFatMax:   {Steps: standardSteps},
}

// Policy returns the fallback policy applied to m
func Policy(m Method) FallbackPolicy {
	if p, ok := fallbackStrategies[m]; ok {
		return p
	}
	return FallbackPolicy{Steps: standardSteps}
}

// describe returns the human-readable form used in notes
func (s FallbackStep) describe(lt2 *Point) string {
	switch s {
	case StepFixed2mmol:
		return "interpolated at 2.0 mmol/L"
	case StepLT2Fraction:
		return fmt.Sprintf("interpolated at %.2f mmol/L (60%% of LT2)", fractionTarget(lt2))
	case StepIndexThird:
		return "measured point near n/3"
	}
	return string(s)
}

func (s FallbackStep) candidate(points []DataPoint, lt2 *Point) *Point {
	switch s {
	case StepFixed2mmol:
		return InterpolateThreshold(points, fallbackFixedLactate)
	case StepLT2Fraction:
		return InterpolateThreshold(points, fractionTarget(lt2))
	case StepIndexThird:
		for i := len(points) / 3; i >= 0; i-- {
			if p := pointAt(points, i); p != nil && ordered(p, lt2) {
				return p
			}
		}
	}
	return nil
}

func fractionTarget(lt2 *Point) float64 {
	return math.Max(lt2.Lactate*fallbackLT2Fraction, fallbackFractionFloor)
}

// ordered reports whether lt1 sits strictly below lt2 in load and not above it in lactate
func ordered(lt1, lt2 *Point) bool {
	return lt1.Load < lt2.Load && lt1.Lactate <= lt2.Lactate
}

// validate enforces the LT1/LT2 ordering on a raw result, replacing LT1
// according to the method's fallback policy. It never fails: when no step
// produces an ordered LT1, LT1 is cleared.
func validate(result MethodResult, points []DataPoint, logger logrus.FieldLogger) MethodResult {
	lt2 := result.LT2
	if lt2 == nil {
		return result
	}

	policy := Policy(result.Method)

	var reason string
	switch {
	case result.LT1 == nil && policy.FillMissingLT1:
		reason = "LT1 not found"
	case result.LT1 == nil:
		return result
	case ordered(result.LT1, lt2):
		return result
	default:
		reason = fmt.Sprintf("raw LT1 %.2f not below LT2 %.2f", result.LT1.Load, lt2.Load)
	}

	log := logger.WithFields(logrus.Fields{
		"method": result.Method,
		"reason": reason,
	})

	for _, step := range policy.Steps {
		c := sanitize(step.candidate(points, lt2))
		if c == nil || !ordered(c, lt2) {
			continue
		}
		result.LT1 = c
		result.Notes = appendNote(result.Notes, fmt.Sprintf("LT1 fallback: %s (%s)", step.describe(lt2), reason))
		log.WithField("step", step).Warn("threshold fallback applied")
		return result
	}

	result.LT1 = nil
	result.Notes = appendNote(result.Notes, fmt.Sprintf("LT1 dropped: no candidate below LT2 (%s)", reason))
	log.Warn("threshold fallback exhausted")
	return result
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}
