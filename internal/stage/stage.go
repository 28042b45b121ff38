// Package stage corrects measurements from test stages that ended before
// their planned duration.
package stage

import (
	"math"

	"github.com/sirupsen/logrus"

	"lactate-lab/internal/monitoring"
)

// Method names the correction model that produced a value
type Method string

const (
	MethodQuadratic Method = "quadratic"
	MethodLinear    Method = "linear"
	MethodNone      Method = "none"
)

// Result is a corrected value with an advisory confidence in [0, 1]
type Result struct {
	Value      float64
	Method     Method
	Confidence float64
	Note       string
}

// Option configures a correction
type Option func(*options)

type options struct {
	logger logrus.FieldLogger
}

// WithLogger routes low-reliability warnings to l
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = monitoring.OrNop(o.logger)
	return o
}

// CompletionRatio returns actual/target, or 0 when either duration is unusable
func CompletionRatio(actualDuration, targetDuration float64) float64 {
	if !finite(actualDuration) || !finite(targetDuration) || actualDuration <= 0 || targetDuration <= 0 {
		return 0
	}
	return actualDuration / targetDuration
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
