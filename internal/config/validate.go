package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if err := validateBenchConfig(cfg.Bench); err != nil {
		return err
	}

	if err := validateLoggingConfig(cfg.Logging); err != nil {
		return err
	}

	if err := validateTelemetryConfig(cfg.Telemetry); err != nil {
		return err
	}

	if err := validateEventsConfig(cfg.Events); err != nil {
		return err
	}

	return nil
}

func validateBenchConfig(b BenchConfig) error {
	if b.WarmupRuns < 0 {
		return fmt.Errorf("bench.warmup_runs must be >= 0, got %d", b.WarmupRuns)
	}
	if b.MeasureRuns <= 0 {
		return fmt.Errorf("bench.measure_runs must be > 0, got %d", b.MeasureRuns)
	}
	if strings.TrimSpace(b.BaselineFile) == "" {
		return errors.New("bench.baseline_file must be set")
	}
	if strings.TrimSpace(b.LatestFile) == "" {
		return errors.New("bench.latest_file must be set")
	}
	if b.BaselinePath() == b.LatestPath() {
		return errors.New("bench.baseline_file and bench.latest_file must differ")
	}
	if b.Thresholds.P95MaxDegradationPct < 0 {
		return fmt.Errorf("bench.thresholds.p95_max_degradation_pct must be >= 0, got %v", b.Thresholds.P95MaxDegradationPct)
	}
	if b.Thresholds.ThroughputMinDegradationPct < 0 {
		return fmt.Errorf("bench.thresholds.throughput_min_degradation_pct must be >= 0, got %v", b.Thresholds.ThroughputMinDegradationPct)
	}
	return nil
}

func validateLoggingConfig(l LoggingConfig) error {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", l.Level)
	}
}

func validateTelemetryConfig(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		return errors.New("telemetry enabled but endpoint is empty")
	}
	if t.Protocol != "" {
		switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", t.Protocol)
		}
	}
	return nil
}

func validateEventsConfig(e EventsConfig) error {
	if e.WebhookURL != "" {
		u, err := url.Parse(e.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("events.webhook_url must be an http(s) URL, got %q", e.WebhookURL)
		}
	}
	if e.WebhookTimeoutMs < 0 {
		return fmt.Errorf("events.webhook_timeout_ms must be >= 0, got %d", e.WebhookTimeoutMs)
	}
	if e.QueueSize < 0 {
		return fmt.Errorf("events.queue_size must be >= 0, got %d", e.QueueSize)
	}
	if e.Workers < 0 {
		return fmt.Errorf("events.workers must be >= 0, got %d", e.Workers)
	}
	return nil
}
