package threshold

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"lactate-lab/internal/monitoring"
)

// Fixed lactate targets used by the methods below (mmol/L)
const (
	maderLT1Lactate = 2.0
	maderLT2Lactate = 4.0

	dickhuthLT1Offset = 0.5
	dickhuthLT2Offset = 1.5

	plusOneOffset = 1.0

	seilerLT1Offset = 0.5
	seilerLT1Floor  = 1.8
	seilerLT2Offset = 2.0
	seilerLT2Floor  = 3.5

	fatMaxLT1Offset = 0.5
	fatMaxLT2Offset = 1.5
)

// Info describes a registered method
type Info struct {
	Method    Method
	Name      string
	Reference string
	MinPoints int
}

type detector func(points []DataPoint) (lt1, lt2 *Point, notes []string)

type methodEntry struct {
	Info
	detect detector
}

// methodOrder is the order methods are listed and compared in
var methodOrder = []Method{
	MethodMader,
	MethodDMAX,
	MethodDickhuth,
	MethodModDMAX,
	MethodLogLog,
	MethodPlusOne,
	MethodSeiler,
	MethodFatMax,
}

var registry = map[Method]methodEntry{
	MethodMader: {
		Info: Info{
			Method:    MethodMader,
			Name:      "Mader (OBLA 2/4 mmol/L)",
			Reference: "Mader A, Liesen H, Heck H, et al. (1976). Zur Beurteilung der sportartspezifischen Ausdauerleistungsfähigkeit im Labor. Sportarzt Sportmed 27:80-88",
			MinPoints: 3,
		},
		detect: detectMader,
	},
	MethodDMAX: {
		Info: Info{
			Method:    MethodDMAX,
			Name:      "DMAX",
			Reference: "Cheng B, Kuipers H, Snyder AC, et al. (1992). A new approach for the determination of ventilatory and lactate thresholds. Int J Sports Med 13(7):518-522",
			MinPoints: 3,
		},
		detect: detectDMAX,
	},
	MethodDickhuth: {
		Info: Info{
			Method:    MethodDickhuth,
			Name:      "Dickhuth (IAT)",
			Reference: "Dickhuth HH, Yin L, Niess A, et al. (1999). Ventilatory, lactate-derived and catecholamine thresholds during incremental treadmill running. Int J Sports Med 20(2):122-127",
			MinPoints: 3,
		},
		detect: detectDickhuth,
	},
	MethodModDMAX: {
		Info: Info{
			Method:    MethodModDMAX,
			Name:      "Modified DMAX",
			Reference: "Bishop D, Jenkins DG, Mackinnon LT (1998). The relationship between plasma lactate parameters, Wpeak and 1-h cycling performance in women. Med Sci Sports Exerc 30(8):1270-1275",
			MinPoints: 4,
		},
		detect: detectModDMAX,
	},
	MethodLogLog: {
		Info: Info{
			Method:    MethodLogLog,
			Name:      "Log-Log",
			Reference: "Beaver WL, Wasserman K, Whipp BJ (1985). Improved detection of lactate threshold during exercise using a log-log transformation. J Appl Physiol 59(6):1936-1940",
			MinPoints: 5,
		},
		detect: detectLogLog,
	},
	MethodPlusOne: {
		Info: Info{
			Method:    MethodPlusOne,
			Name:      "+1 mmol/L",
			Reference: "Coyle EF, Martin WH, Ehsani AA, et al. (1983). Blood lactate threshold in some well-trained ischemic heart disease patients. J Appl Physiol 54(1):18-23",
			MinPoints: 4,
		},
		detect: detectPlusOne,
	},
	MethodSeiler: {
		Info: Info{
			Method:    MethodSeiler,
			Name:      "Seiler 3-Zone",
			Reference: "Seiler KS, Kjerland GØ (2006). Quantifying training intensity distribution in elite endurance athletes: is there evidence for an optimal distribution? Scand J Med Sci Sports 16(1):49-56",
			MinPoints: 3,
		},
		detect: detectSeiler,
	},
	MethodFatMax: {
		Info: Info{
			Method:    MethodFatMax,
			Name:      "FatMax/LT",
			Reference: "Achten J, Gleeson M, Jeukendrup AE (2002). Determination of the exercise intensity that elicits maximal fat oxidation. Med Sci Sports Exerc 34(1):92-97",
			MinPoints: 3,
		},
		detect: detectFatMax,
	},
}

// Methods lists every registered method in display order
func Methods() []Info {
	infos := make([]Info, 0, len(methodOrder))
	for _, m := range methodOrder {
		infos = append(infos, registry[m].Info)
	}
	return infos
}

// Lookup returns the registry entry for m
func Lookup(m Method) (Info, bool) {
	entry, ok := registry[m]
	return entry.Info, ok
}

// Option configures a calculation
type Option func(*options)

type options struct {
	logger logrus.FieldLogger
}

// WithLogger routes fallback and diagnostic messages to l
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

// Calculate runs one method over points and returns its validated result.
// Points are copied and sorted by load; the input slice is left untouched.
// It never panics: short or degenerate input yields nil thresholds and a note.
func Calculate(method Method, points []DataPoint, opts ...Option) MethodResult {
	o := buildOptions(opts)

	entry, ok := registry[method]
	if !ok {
		return MethodResult{Method: method, MethodName: string(method), Notes: "unknown method"}
	}

	result := MethodResult{
		Method:     method,
		MethodName: entry.Name,
		Reference:  entry.Reference,
	}

	sorted := prepare(points)
	if len(sorted) < entry.MinPoints {
		result.Notes = NoteInsufficientData
		o.logger.WithFields(logrus.Fields{
			"method": method,
			"points": len(sorted),
			"min":    entry.MinPoints,
		}).Debug("not enough points for threshold method")
		return result
	}

	lt1, lt2, notes := entry.detect(sorted)
	result.LT1 = sanitize(lt1)
	result.LT2 = sanitize(lt2)
	result.Notes = strings.Join(notes, "; ")

	return validate(result, sorted, o.logger)
}

// CalculateAll runs every registered method in display order
func CalculateAll(points []DataPoint, opts ...Option) []MethodResult {
	results := make([]MethodResult, 0, len(methodOrder))
	for _, m := range methodOrder {
		results = append(results, Calculate(m, points, opts...))
	}
	return results
}

func detectMader(points []DataPoint) (*Point, *Point, []string) {
	var notes []string
	lt1 := InterpolateThreshold(points, maderLT1Lactate)
	lt2 := InterpolateThreshold(points, maderLT2Lactate)
	if lt1 == nil {
		notes = append(notes, "2.0 mmol/L not reached")
	}
	if lt2 == nil {
		notes = append(notes, "4.0 mmol/L not reached")
	}
	return lt1, lt2, notes
}

func detectDMAX(points []DataPoint) (*Point, *Point, []string) {
	var notes []string
	lt2 := pointAt(points, DmaxIndex(points))
	if lt2 == nil {
		notes = append(notes, "curve is collinear with its chord")
	}
	lt1 := pointAt(points, DeflectionIndex(points))
	return lt1, lt2, notes
}

func detectDickhuth(points []DataPoint) (*Point, *Point, []string) {
	baseline := CalculateBaseline(points)
	notes := []string{fmt.Sprintf("baseline %.2f mmol/L", baseline)}
	lt1 := InterpolateThreshold(points, baseline+dickhuthLT1Offset)
	lt2 := InterpolateThreshold(points, baseline+dickhuthLT2Offset)
	return lt1, lt2, notes
}

func detectModDMAX(points []DataPoint) (*Point, *Point, []string) {
	idx, _ := FindMinLactate(firstHalf(points))
	lt1 := pointAt(points, idx)
	lt2 := pointAt(points, ModDmaxIndex(points))
	return lt1, lt2, nil
}

func detectLogLog(points []DataPoint) (*Point, *Point, []string) {
	var notes []string
	bp, lt1Idx := LogLogBreakpoint(points)
	if bp < 0 {
		notes = append(notes, "no log-log breakpoint (non-positive values)")
	} else if lt1Idx < 0 {
		notes = append(notes, "no log-log slope change before breakpoint")
	}
	return pointAt(points, lt1Idx), pointAt(points, bp), notes
}

func detectPlusOne(points []DataPoint) (*Point, *Point, []string) {
	idx, low := FindMinLactate(firstHalf(points))
	notes := []string{fmt.Sprintf("minimum %.2f mmol/L", low.Lactate)}
	lt1 := pointAt(points, idx)
	lt2 := InterpolateThreshold(points, low.Lactate+plusOneOffset)
	return lt1, lt2, notes
}

func detectSeiler(points []DataPoint) (*Point, *Point, []string) {
	baseline := CalculateBaseline(points)
	notes := []string{fmt.Sprintf("baseline %.2f mmol/L", baseline)}
	lt1 := InterpolateThreshold(points, math.Max(baseline+seilerLT1Offset, seilerLT1Floor))
	lt2 := InterpolateThreshold(points, math.Max(baseline+seilerLT2Offset, seilerLT2Floor))
	return lt1, lt2, notes
}

func detectFatMax(points []DataPoint) (*Point, *Point, []string) {
	early := points
	if len(early) > 3 {
		early = early[:3]
	}
	_, low := FindMinLactate(early)
	lt1 := InterpolateThreshold(points, low.Lactate+fatMaxLT1Offset)
	lt2 := InterpolateThreshold(points, low.Lactate+fatMaxLT2Offset)
	return lt1, lt2, nil
}

// firstHalf returns the leading half of points, never empty for non-empty input
func firstHalf(points []DataPoint) []DataPoint {
	half := len(points) / 2
	if half < 1 {
		half = len(points)
	}
	return points[:half]
}
