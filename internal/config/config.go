package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds rcc tooling configuration. Pipeline thresholds are constants
// and deliberately absent here.
type Config struct {
	Bench     BenchConfig     `yaml:"bench" toml:"bench"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Events    EventsConfig    `yaml:"events" toml:"events"`
}

type BenchConfig struct {
	WarmupRuns   int             `yaml:"warmup_runs" toml:"warmup_runs"`
	MeasureRuns  int             `yaml:"measure_runs" toml:"measure_runs"`
	Dir          string          `yaml:"dir" toml:"dir"`                     // directory holding report files
	BaselineFile string          `yaml:"baseline_file" toml:"baseline_file"` // relative to Dir unless absolute
	LatestFile   string          `yaml:"latest_file" toml:"latest_file"`
	HistoryPath  string          `yaml:"history_path" toml:"history_path"` // sqlite file; empty disables history
	Thresholds   BenchThresholds `yaml:"thresholds" toml:"thresholds"`
}

type BenchThresholds struct {
	P95MaxDegradationPct        float64 `yaml:"p95_max_degradation_pct" toml:"p95_max_degradation_pct"`
	ThroughputMinDegradationPct float64 `yaml:"throughput_min_degradation_pct" toml:"throughput_min_degradation_pct"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" toml:"level"` // debug | info | warn | error
	Development bool   `yaml:"development" toml:"development"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	Protocol string `yaml:"protocol" toml:"protocol"` // grpc | http
	Service  string `yaml:"service" toml:"service"`
}

// EventsConfig controls delivery of per-run events. Both sinks are optional;
// with neither set no events are emitted.
type EventsConfig struct {
	FilePath         string            `yaml:"file_path" toml:"file_path"` // JSONL
	WebhookURL       string            `yaml:"webhook_url" toml:"webhook_url"`
	WebhookHeaders   map[string]string `yaml:"webhook_headers" toml:"webhook_headers"`
	WebhookTimeoutMs int               `yaml:"webhook_timeout_ms" toml:"webhook_timeout_ms"`
	QueueSize        int               `yaml:"queue_size" toml:"queue_size"`
	Workers          int               `yaml:"workers" toml:"workers"`
	IncludePreview   bool              `yaml:"include_preview" toml:"include_preview"` // redacted message preview
}

// Enabled reports whether any sink is configured.
func (e EventsConfig) Enabled() bool {
	return e.FilePath != "" || e.WebhookURL != ""
}

// Load reads configuration from a YAML or TOML file, picked by extension.
// If the file doesn't exist, it returns a default config and no error.
// The file is decoded over the defaults, so keys it omits keep their default
// and explicit zeros are honoured.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	cfg := defaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyDefaults(cfg)

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Bench: BenchConfig{
			WarmupRuns:   100,
			MeasureRuns:  1000,
			Dir:          "bench",
			BaselineFile: "report.baseline.json",
			LatestFile:   "report.latest.json",
			Thresholds: BenchThresholds{
				P95MaxDegradationPct:        25,
				ThroughputMinDegradationPct: 20,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Protocol: "grpc",
			Service:  "rcc",
		},
		Events: EventsConfig{
			WebhookTimeoutMs: 2000,
			QueueSize:        1000,
			Workers:          1,
		},
	}
}

// applyDefaults restores string settings written out as empty. Numeric
// settings are left alone: zero is a valid choice for them.
func applyDefaults(cfg *Config) {
	def := defaultConfig()

	if cfg.Bench.Dir == "" {
		cfg.Bench.Dir = def.Bench.Dir
	}
	if cfg.Bench.BaselineFile == "" {
		cfg.Bench.BaselineFile = def.Bench.BaselineFile
	}
	if cfg.Bench.LatestFile == "" {
		cfg.Bench.LatestFile = def.Bench.LatestFile
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = def.Telemetry.Protocol
	}
	if cfg.Telemetry.Service == "" {
		cfg.Telemetry.Service = def.Telemetry.Service
	}
}

// BaselinePath resolves the baseline report location.
func (b BenchConfig) BaselinePath() string {
	return b.resolve(b.BaselineFile)
}

// LatestPath resolves the latest report location.
func (b BenchConfig) LatestPath() string {
	return b.resolve(b.LatestFile)
}

func (b BenchConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(b.Dir, name)
}
