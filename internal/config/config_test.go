package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Service.Name != "edge-backend" {
		t.Errorf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Service.Namespace != "ainative" {
		t.Errorf("Service.Namespace = %q", cfg.Service.Namespace)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Telemetry.TracesEndpoint != "" {
		t.Errorf("Telemetry.TracesEndpoint = %q, want empty", cfg.Telemetry.TracesEndpoint)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err != nil {
		t.Errorf("Load with missing file: %v", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 9000
service:
  name: edge-backend-test
telemetry:
  traces_endpoint: otel-collector:4317
grafana:
  url: http://grafana:3000
  api_key: test-key
log:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Service.Name != "edge-backend-test" {
		t.Errorf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Telemetry.TracesEndpoint != "otel-collector:4317" {
		t.Errorf("TracesEndpoint = %q", cfg.Telemetry.TracesEndpoint)
	}
	if cfg.Grafana.APIKey != "test-key" {
		t.Errorf("Grafana.APIKey = %q", cfg.Grafana.APIKey)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EDGE_SERVER__PORT", "9100")
	t.Setenv("EDGE_TELEMETRY__METRICS_ENDPOINT", "otel-collector:4317")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Telemetry.MetricsEndpoint != "otel-collector:4317" {
		t.Errorf("MetricsEndpoint = %q", cfg.Telemetry.MetricsEndpoint)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := (LogConfig{Level: tt.in}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
