package store

import "time"

// Session represents one imported lactate test
type Session struct {
	ID                  string    `db:"id"`
	Subject             string    `db:"subject"`
	TestedAt            time.Time `db:"tested_at"`
	Unit                string    `db:"unit"`                  // watts or kmh
	TargetStageDuration float64   `db:"target_stage_duration"` // minutes, 0 when unknown
	Notes               string    `db:"notes"`
	CreatedAt           time.Time `db:"created_at"`
	StageCount          int       `db:"-"` // filled by ListSessions
}

// Stage represents the measured values of one test stage
type Stage struct {
	SessionID string   `db:"session_id"`
	Number    int      `db:"stage"`
	Load      float64  `db:"load"`
	Lactate   float64  `db:"lactate"`    // mmol/L
	HeartRate *float64 `db:"heart_rate"` // nullable
	VO2       *float64 `db:"vo2"`        // nullable
	Duration  *float64 `db:"duration"`   // minutes completed, nullable

	TheoreticalLoad *float64 `db:"theoretical_load"` // recorded for an early final stage, nullable
}

// Override holds manually adjusted thresholds and optional zone boundaries
// for one session and subject
type Override struct {
	SessionID  string      `db:"session_id"`
	Subject    string      `db:"subject"`
	LT1Load    *float64    `db:"lt1_load"`
	LT1Lactate *float64    `db:"lt1_lactate"`
	LT2Load    *float64    `db:"lt2_load"`
	LT2Lactate *float64    `db:"lt2_lactate"`
	Boundaries *[4]float64 `db:"-"` // upper edges of zones 1-4, nil when not overridden
	UpdatedAt  time.Time   `db:"updated_at"`
}

// ThresholdResult is a cached method result for a session
type ThresholdResult struct {
	SessionID  string    `db:"session_id"`
	Method     string    `db:"method"`
	LT1Load    *float64  `db:"lt1_load"`
	LT1Lactate *float64  `db:"lt1_lactate"`
	LT2Load    *float64  `db:"lt2_load"`
	LT2Lactate *float64  `db:"lt2_lactate"`
	Notes      string    `db:"notes"`
	Adjusted   bool      `db:"adjusted"`
	ComputedAt time.Time `db:"computed_at"`
}
