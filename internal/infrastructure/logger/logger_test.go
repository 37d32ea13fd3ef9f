package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Level: "info", Output: &buf})

	log.Info().Str("customer_id", "c-1").Msg("hello")

	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}

	if fields["message"] != "hello" || fields["customer_id"] != "c-1" || fields["service"] != "custbalance" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["time"]; !ok {
		t.Fatalf("expected timestamp field, got %v", fields)
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "console", Level: "debug", Output: &buf})

	log.Debug().Msg("hello")

	if out := buf.String(); !strings.Contains(out, "hello") || strings.HasPrefix(out, "{") {
		t.Fatalf("expected console output, got %q", out)
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Level: "warn", Output: &buf})

	log.Info().Msg("dropped")

	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
}
