// Package config loads process-wide configuration from an optional YAML
// file with environment-variable overrides. Configuration is write-once at
// startup and read-only afterward.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Service   ServiceConfig   `koanf:"service"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Grafana   GrafanaConfig   `koanf:"grafana"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type ServiceConfig struct {
	Name      string `koanf:"name"`
	Namespace string `koanf:"namespace"`
	Version   string `koanf:"version"`
}

// TelemetryConfig holds the OTLP gRPC endpoints, one per signal. A signal
// with an empty endpoint is skipped at startup.
type TelemetryConfig struct {
	TracesEndpoint  string `koanf:"traces_endpoint"`
	MetricsEndpoint string `koanf:"metrics_endpoint"`
	LogsEndpoint    string `koanf:"logs_endpoint"`
	// StdoutTraces enables the pretty-printed stdout span exporter for
	// development when no traces endpoint is configured.
	StdoutTraces bool `koanf:"stdout_traces"`
}

type GrafanaConfig struct {
	URL    string `koanf:"url"`
	APIKey string `koanf:"api_key"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// SlogLevel maps the configured level name to a slog level, defaulting to
// info for unknown values.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads the YAML file at path (missing file is fine), then applies
// EDGE_-prefixed environment variables on top ("__" separates nesting, e.g.
// EDGE_SERVER__PORT), then fills defaults before unmarshalling.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	if err := k.Load(env.Provider("EDGE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "EDGE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8000)
	}
	if !k.Exists("service.name") {
		k.Set("service.name", "edge-backend")
	}
	if !k.Exists("service.namespace") {
		k.Set("service.namespace", "ainative")
	}
	if !k.Exists("service.version") {
		k.Set("service.version", "0.1.0")
	}
	if !k.Exists("log.level") {
		k.Set("log.level", "info")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
