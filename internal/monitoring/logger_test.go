package monitoring

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"defaults", "", "", false},
		{"debug text", "debug", "text", false},
		{"warn json", "warn", "json", false},
		{"bad level", "loud", "text", true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(tt.level, tt.format, &buf)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			logger.WithField("method", "dmax").Warn("fallback applied")
			if !strings.Contains(buf.String(), "fallback applied") {
				t.Errorf("output %q should contain the message", buf.String())
			}
		})
	}
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.WithField("step", "fixed_2mmol").Info("lt1 replaced")

	out := buf.String()
	if !strings.Contains(out, `"step":"fixed_2mmol"`) {
		t.Errorf("json output %q should carry the step field", out)
	}
}

func TestNop(t *testing.T) {
	// Should not panic and should not write anywhere visible
	Nop().WithField("k", "v").Error("ignored")

	if OrNop(nil) == nil {
		t.Error("OrNop(nil) should return a usable logger")
	}

	var buf bytes.Buffer
	logger, _ := New("info", "text", &buf)
	if OrNop(logger) != logger {
		t.Error("OrNop should pass through a non-nil logger")
	}
}
