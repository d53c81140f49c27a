package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdlog "log"
	"strings"
	"testing"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(WithLevel(level), WithFormatter(f), WithOutput(&ConsoleOutput{W: buf}))
	return l, buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"loud", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelGating(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{})
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn missing: %q", out)
	}
}

func TestJSONFormatterFields(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &JSONFormatter{})
	l.With(Component("store")).Info("took entries", Int("count", 2), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if m["msg"] != "took entries" || m["component"] != "store" || m["error"] != "boom" {
		t.Fatalf("unexpected record: %v", m)
	}
	if m["count"].(float64) != 2 {
		t.Fatalf("count: %v", m["count"])
	}
}

func TestWithContextRequestID(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{})
	ctx := ContextWithRequestID(context.Background(), "req-1")
	l.WithContext(ctx).Info("handled")
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("missing request id: %q", buf.String())
	}
}

func TestApplyConfigRedactsAndRejectsUnknown(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := ApplyConfig(&Config{Outputs: []string{"carrier-pigeon"}}); err == nil {
		t.Fatalf("expected error for unknown output")
	}
	l, err := ApplyConfig(&Config{Level: "debug", Format: "text", Outputs: []string{"null"}, RedactKeys: []string{"token"}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if l.GetLevel() != DebugLevel {
		t.Fatalf("level = %v", l.GetLevel())
	}
	l.Info("redacted", Str("token", "secret"))
}

func TestSamplerKeepsInitialThenEveryNth(t *testing.T) {
	s := newSampler(2, 3)
	var kept int
	for i := 0; i < 8; i++ {
		if s.allow(0, "m") {
			kept++
		}
	}
	// 2 initial + indices 2 and 5 of the remaining 6
	if kept != 4 {
		t.Fatalf("kept = %d, want 4", kept)
	}
}

func TestRedirectStdLog(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{})
	prev := stdlog.Writer()
	RedirectStdLog(l)
	t.Cleanup(func() { stdlog.SetOutput(prev) })
	stdlog.Printf("from stdlib")
	if !strings.Contains(buf.String(), "from stdlib") || !strings.Contains(buf.String(), "source=stdlib") {
		t.Fatalf("stdlib log not redirected: %q", buf.String())
	}
}
