package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestLoggerWritesLogfmt(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(&buf, Options{Level: Debug, Now: fixedNow})
	logger.With(F("session", 3)).Info("fetch done", F("label", "dictionary names"), F("err", errors.New("boom")))

	got := buf.String()
	want := `ts=2024-05-01T12:00:00Z level=info msg="fetch done" session=3 label="dictionary names" err=boom` + "\n"
	if got != want {
		t.Fatalf("unexpected line:\n got=%q\nwant=%q", got, want)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Warn)
	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below level, got %q", buf.String())
	}
	if !logger.Enabled(Error) || logger.Enabled(Info) {
		t.Fatalf("unexpected Enabled results")
	}
}

func TestBodyRedactedByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(&buf, Options{Level: Debug, Now: fixedNow})
	logger.Debug("query", Body("code", "System myUserProfile password"))
	if strings.Contains(buf.String(), "password") {
		t.Fatalf("body leaked into log: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "code=<redacted:29>") {
		t.Fatalf("expected redaction marker, got %q", buf.String())
	}
}

func TestBodyLoggedWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(&buf, Options{Level: Debug, LogBodies: true, Now: fixedNow})
	logger.With(F("k", "v")).Debug("query", Body("code", "3 + 4"))
	if !strings.Contains(buf.String(), `code="3 + 4"`) {
		t.Fatalf("expected body in log, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":    Debug,
		" WARN ":   Warn,
		"warning":  Warn,
		"error":    Error,
		"":         Info,
		"whatever": Info,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}
