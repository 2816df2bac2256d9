//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"polyglot-group-bot/internal/config"

	"github.com/rs/zerolog"
)

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithContact(ctx, "what...67")
	ctx = WithChannel(ctx, "twilio")
	With(ctx, &base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["trace_id"] != "trace-1" || line["contact"] != "what...67" || line["channel"] != "twilio" {
		t.Errorf("missing context fields: %v", line)
	}
	if TraceID(ctx) != "trace-1" {
		t.Errorf("TraceID = %q", TraceID(ctx))
	}
}

func TestRedact(t *testing.T) {
	t.Run("should keep value in dev", func(t *testing.T) {
		if got := Redact("whatsapp:+15551234567", true); got != "whatsapp:+15551234567" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("should mask short values", func(t *testing.T) {
		if got := Redact("+1555", false); got != "***" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("should keep a short preview of long values", func(t *testing.T) {
		if got := Redact("whatsapp:+15551234567", false); got != "what...67" {
			t.Errorf("got %q", got)
		}
	})
}

func TestNewJSON(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	var buf bytes.Buffer
	l := newWithWriter(config.LogConfig{Level: "warn", Format: "json"}, false, &buf)
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	if bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Error("info line should be filtered at warn level")
	}
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Error("warn line missing")
	}
}
