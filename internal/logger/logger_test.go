package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func testLogger(buf *bytes.Buffer, level Level, format Format) *Logger {
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = buf
	return New(cfg)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := testLogger(&buf, WARN, FormatText).WithComponent(ComponentFormats)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below WARN leaked: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("WARN and ERROR should pass: %q", out)
	}
}

func TestComponentGating(t *testing.T) {
	var buf bytes.Buffer
	l := testLogger(&buf, DEBUG, FormatText)
	l.DisableComponent(ComponentCache)

	l.WithComponent(ComponentCache).Error("from cache")
	l.WithComponent(ComponentFormats).Error("from formats")

	out := buf.String()
	if strings.Contains(out, "from cache") {
		t.Errorf("disabled component leaked: %q", out)
	}
	if !strings.Contains(out, "from formats") {
		t.Errorf("enabled component missing: %q", out)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	testLogger(&buf, DEBUG, FormatText).WithComponent(ComponentPlayerJS).
		Warn("pattern miss", map[string]any{"player": "abc123"})

	out := buf.String()
	for _, want := range []string{"[WARN]", "[playerjs]", "pattern miss", "player=abc123"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	testLogger(&buf, DEBUG, FormatJSON).WithComponent(ComponentManifest).
		Info("parsed", map[string]any{"videoId": "dQw4w9WgXcQ"})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON output %q: %v", buf.String(), err)
	}
	if entry.Level != "INFO" || entry.Component != ComponentManifest || entry.Message != "parsed" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Fields["videoId"] != "dQw4w9WgXcQ" {
		t.Errorf("fields = %v", entry.Fields)
	}
}
