package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML
var ErrUnsupportedFormat = errors.New("unsupported test file format")

// Supported load units. Values are stored as given; nothing is converted.
const (
	UnitWatts = "watts"
	UnitKmh   = "kmh"
)

// Format of a test file
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// rawTest mirrors the on-disk layout
type rawTest struct {
	Subject             string           `json:"subject" yaml:"subject"`
	TestedAt            string           `json:"tested_at" yaml:"tested_at"`
	Unit                string           `json:"unit" yaml:"unit"`
	TargetStageDuration float64          `json:"target_stage_duration" yaml:"target_stage_duration"`
	Notes               string           `json:"notes" yaml:"notes"`
	Stages              []map[string]any `json:"stages" yaml:"stages"`
}

// Test is a parsed and normalized test file
type Test struct {
	Subject             string
	TestedAt            time.Time
	Unit                string
	TargetStageDuration float64
	Notes               string
	Stages              []Stage
}

// FormatFromPath picks the decoder from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadFile loads and normalizes a test file
func ReadFile(path string) (*Test, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read test file: %w", err)
	}

	test, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return test, nil
}

// Parse decodes and normalizes test file contents
func Parse(data []byte, format Format) (*Test, error) {
	var raw rawTest

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse test file: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse test file: %w", err)
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	return raw.normalize()
}

func (r rawTest) normalize() (*Test, error) {
	if strings.TrimSpace(r.Subject) == "" {
		return nil, errors.New("subject is required")
	}
	if len(r.Stages) == 0 {
		return nil, errors.New("test has no stages")
	}

	unit := strings.ToLower(strings.TrimSpace(r.Unit))
	switch unit {
	case "":
		unit = UnitWatts
	case UnitWatts, UnitKmh:
	default:
		return nil, fmt.Errorf("unit must be %q or %q, got %q", UnitWatts, UnitKmh, r.Unit)
	}

	if r.TargetStageDuration < 0 {
		return nil, fmt.Errorf("target_stage_duration must not be negative, got %v", r.TargetStageDuration)
	}

	testedAt, err := parseTestedAt(r.TestedAt)
	if err != nil {
		return nil, err
	}

	stages, err := NormalizeRecords(r.Stages)
	if err != nil {
		return nil, err
	}

	return &Test{
		Subject:             strings.TrimSpace(r.Subject),
		TestedAt:            testedAt,
		Unit:                unit,
		TargetStageDuration: r.TargetStageDuration,
		Notes:               r.Notes,
		Stages:              stages,
	}, nil
}

func parseTestedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("tested_at %q is neither RFC3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}
