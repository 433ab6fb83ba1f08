package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q): got %v want %v", tt.in, got, tt.want)
		}
	}
}

func TestTextLoggerLevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Text(&buf, slog.LevelWarn)
	log.Info("dropped")
	log.Warn("kept", "key", "value")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record must be filtered below warn: %q", out)
	}
	if !strings.Contains(out, "kept") || !strings.Contains(out, "key=value") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo).With("archive", "test.pak")
	log.Info("opened")

	if !strings.Contains(buf.String(), "archive=test.pak") {
		t.Fatalf("bound attribute missing: %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Text(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), log)

	FromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("context logger not used: %q", buf.String())
	}

	// A bare context still yields a usable logger.
	if FromContext(context.Background()) == nil {
		t.Fatalf("FromContext must never return nil")
	}
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug)
	log.Info("saving file", "name", "a.txt", "bytes", 3)

	out := buf.String()
	if !strings.Contains(out, "INFO") {
		t.Fatalf("level tag missing: %q", out)
	}
	if !strings.Contains(out, "saving file") {
		t.Fatalf("message missing: %q", out)
	}
	if !strings.Contains(out, "name=a.txt") || !strings.Contains(out, "bytes=3") {
		t.Fatalf("attributes missing: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("record must end with a newline: %q", out)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug)
	log.Warn("mismatch", "reason", "size differs")

	if !strings.Contains(buf.String(), `reason="size differs"`) {
		t.Fatalf("value with spaces must be quoted: %q", buf.String())
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()

	h := NewPrettyHandler(&bytes.Buffer{}, slog.LevelWarn)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error must be enabled at warn level")
	}
}
