package tui

import (
	"fmt"

	"lactate-lab/internal/config"
)

// Units formats loads in the unit a test was recorded in
type Units struct {
	loadUnit string
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{loadUnit: cfg.LoadUnit}
}

// ForSession returns Units for a session's recorded unit, keeping the
// configured unit when the session has none
func (u Units) ForSession(unit string) Units {
	if unit == "" {
		return u
	}
	return Units{loadUnit: unit}
}

// FormatLoad formats a load with its unit label
func (u Units) FormatLoad(load float64) string {
	return u.FormatLoadValue(load) + " " + u.LoadLabel()
}

// FormatLoadValue returns just the numeric load (no unit label)
func (u Units) FormatLoadValue(load float64) string {
	if u.IsSpeed() {
		return fmt.Sprintf("%.1f", load)
	}
	return fmt.Sprintf("%.0f", load)
}

// LoadLabel returns the short unit label ("W" or "km/h")
func (u Units) LoadLabel() string {
	if u.IsSpeed() {
		return "km/h"
	}
	return "W"
}

// IsSpeed returns true if loads are running speeds
func (u Units) IsSpeed() bool {
	return u.loadUnit == "kmh"
}
