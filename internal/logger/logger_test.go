package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{" error ", zerolog.ErrorLevel, false},
		{"off", zerolog.Disabled, false},
		{"chatty", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("level: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Debug("tracer", "chains traced", Fields{"chains": 3})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "tracer" || entry["message"] != "chains traced" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["chains"] != float64(3) {
		t.Errorf("chains field: got %v, want 3", entry["chains"])
	}
}

func TestZerologAdapter_Error(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Error("server", errors.New("boom"), nil)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["error"] != "boom" || entry["level"] != "error" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestZerologAdapter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Info("pipeline", "hidden", nil)
	log.Debug("pipeline", "hidden", nil)
	if buf.Len() != 0 {
		t.Errorf("entries below level were written: %q", buf.String())
	}

	log.Warning("pipeline", "shown", nil)
	if buf.Len() == 0 {
		t.Error("warning entry was not written")
	}
}

func TestNop(t *testing.T) {
	// Must not panic.
	Nop().Error("x", errors.New("ignored"), Fields{"k": "v"})
}
