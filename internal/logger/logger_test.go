package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Adda-Baaj/solcast-pv/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitSetsPackageLogger(t *testing.T) {
	defer func() { S = nil }()

	log, err := Init(&config.Config{AppName: "solcast-monitor", Env: "test", LogLevel: "debug"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if log == nil || S == nil {
		t.Fatalf("expected logger to be initialised")
	}
	log.InfoObj("hello", "meta", map[string]any{"k": "v"})
	InfoObj("hello again", "meta", 1)
}

func TestNewWritesStructuredField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core))

	log.WarnObj("quota exhausted", "rate_limit", map[string]any{"remaining": 0})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "quota exhausted" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	if _, ok := entries[0].ContextMap()["rate_limit"]; !ok {
		t.Fatalf("expected rate_limit field, got %#v", entries[0].ContextMap())
	}
}

func TestHelpersNoopBeforeInit(t *testing.T) {
	S = nil
	DebugObj("ignored", "k", 1)
	WarnObj("ignored", "k", 1)
	ErrorObj("ignored", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
}

func TestInitToWritesJSONWithoutAPIKey(t *testing.T) {
	defer func() { S = nil }()

	var buf bytes.Buffer
	cfg := &config.Config{AppName: "solcast", Env: "test", LogLevel: "info", SolcastAPIKey: "super-secret"}
	log, err := InitTo(cfg, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("InitTo: %v", err)
	}
	log.InfoObj("config loaded", "config", cfg)
	log.DebugObj("dropped", "k", 1)

	out := buf.String()
	if !strings.Contains(out, `"solcast_api_key_set":true`) || !strings.Contains(out, `"app":"solcast"`) {
		t.Fatalf("unexpected log output %s", out)
	}
	if strings.Contains(out, "super-secret") {
		t.Fatalf("api key leaked into logs: %s", out)
	}
	if strings.Contains(out, "dropped") {
		t.Fatalf("debug entry written at info level: %s", out)
	}
}
