package threshold

import "math"

// TrainingZone is one load band of the five-zone model.
// Range[1] of zone n equals Range[0] of zone n+1.
type TrainingZone struct {
	ID          int
	Name        string
	Range       [2]float64
	Description string
}

// ZoneCount is the number of zones always produced
const ZoneCount = 5

var zoneDefinitions = [ZoneCount]struct {
	name        string
	description string
}{
	{"Recovery", "Regeneration and easy volume below the aerobic threshold (LT1)"},
	{"Aerobic Endurance", "Basic endurance just above LT1, lactate around 2.0-2.5 mmol/L"},
	{"Tempo", "Extensive tempo between the aerobic and anaerobic thresholds"},
	{"Threshold", "Work around LT2, lactate near 4 mmol/L"},
	{"High Intensity", "Intervals from above LT2 up to maximal load, lactate 8+ mmol/L"},
}

// Estimates used when a threshold is missing
const (
	estimatedLT1ofLT2     = 0.75
	estimatedLT1ofMaxLoad = 0.55
	estimatedLT2ofMaxLoad = 0.80
)

// CalculateZones partitions [0, maxLoad] into five contiguous zones with
// boundaries at LT1, one third of the way from LT1 to LT2, LT2, and half way
// from LT2 to maxLoad. Missing thresholds are estimated so that five zones
// are always returned.
func CalculateZones(lt1, lt2 *Point, maxLoad float64) []TrainingZone {
	if !isFinite(maxLoad) || maxLoad < 0 {
		maxLoad = 0
	}

	l1, l2, estimated := resolveThresholds(sanitize(lt1), sanitize(lt2), maxLoad)
	bounds := [4]float64{
		l1,
		l1 + (l2-l1)/3,
		l2,
		l2 + (maxLoad-l2)/2,
	}
	return buildZones(bounds, maxLoad, estimated)
}

// ZonesFromBoundaries builds the five zones from four explicit inner
// boundaries, e.g. a manual override. Boundaries are clamped into
// [0, maxLoad] and forced non-decreasing.
func ZonesFromBoundaries(bounds [4]float64, maxLoad float64) []TrainingZone {
	if !isFinite(maxLoad) || maxLoad < 0 {
		maxLoad = 0
	}
	return buildZones(bounds, maxLoad, false)
}

func resolveThresholds(lt1, lt2 *Point, maxLoad float64) (l1, l2 float64, estimated bool) {
	switch {
	case lt1 != nil && lt2 != nil:
		return lt1.Load, lt2.Load, false
	case lt2 != nil:
		return lt2.Load * estimatedLT1ofLT2, lt2.Load, true
	case lt1 != nil:
		return lt1.Load, lt1.Load + (maxLoad-lt1.Load)/2, true
	default:
		return maxLoad * estimatedLT1ofMaxLoad, maxLoad * estimatedLT2ofMaxLoad, true
	}
}

func buildZones(bounds [4]float64, maxLoad float64, estimated bool) []TrainingZone {
	edges := [ZoneCount + 1]float64{0, 0, 0, 0, 0, maxLoad}
	for i, b := range bounds {
		if !isFinite(b) {
			b = 0
		}
		edges[i+1] = math.Min(math.Max(round2(b), edges[i]), maxLoad)
	}

	zones := make([]TrainingZone, ZoneCount)
	for i := range zones {
		desc := zoneDefinitions[i].description
		if estimated {
			desc += " (boundaries estimated)"
		}
		zones[i] = TrainingZone{
			ID:          i + 1,
			Name:        zoneDefinitions[i].name,
			Range:       [2]float64{edges[i], edges[i+1]},
			Description: desc,
		}
	}
	return zones
}
