package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LogLevelDebug, true},
		{" WARN ", LogLevelWarn, true},
		{"TRACE", LogLevelTrace, true},
		{"", LogLevelInfo, false},
		{"loud", LogLevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLogLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoggerFiltersAndNames(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelInfo).Named("generator").Named("batch")

	logger.Debug("hidden %d", 1)
	logger.Info("generated %d traces", 3)
	logger.Error("boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked at info level: %q", out)
	}
	if !strings.Contains(out, "[INFO] generator.batch: generated 3 traces") {
		t.Errorf("missing info line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] generator.batch: boom") {
		t.Errorf("missing error line: %q", out)
	}
}
