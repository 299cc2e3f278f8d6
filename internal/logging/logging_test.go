package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", &buf)

	log.Debug().Msg("hidden detail")
	log.Info().Int("frames", 10).Msg("run complete")

	out := buf.String()
	if strings.Contains(out, "hidden detail") {
		t.Errorf("debug message leaked at info level: %q", out)
	}
	if !strings.Contains(out, "run complete") || !strings.Contains(out, "frames=10") {
		t.Errorf("expected info line with fields, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no colour codes for a buffer, got %q", out)
	}
}

func TestNewDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", &buf)
	log.Debug().Msg("car damaged")

	if !strings.Contains(buf.String(), "car damaged") {
		t.Errorf("expected debug line, got %q", buf.String())
	}
}
