package config

import (
	"strings"
	"testing"
)

func TestValidateFailures(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "negative warmup",
			mutate: func(c *Config) { c.Bench.WarmupRuns = -1 },
			want:   "bench.warmup_runs",
		},
		{
			name:   "zero measure runs",
			mutate: func(c *Config) { c.Bench.MeasureRuns = 0 },
			want:   "bench.measure_runs",
		},
		{
			name:   "missing baseline file",
			mutate: func(c *Config) { c.Bench.BaselineFile = " " },
			want:   "bench.baseline_file",
		},
		{
			name:   "missing latest file",
			mutate: func(c *Config) { c.Bench.LatestFile = "" },
			want:   "bench.latest_file",
		},
		{
			name:   "baseline equals latest",
			mutate: func(c *Config) { c.Bench.LatestFile = c.Bench.BaselineFile },
			want:   "must differ",
		},
		{
			name:   "negative p95 threshold",
			mutate: func(c *Config) { c.Bench.Thresholds.P95MaxDegradationPct = -5 },
			want:   "p95_max_degradation_pct",
		},
		{
			name:   "negative throughput threshold",
			mutate: func(c *Config) { c.Bench.Thresholds.ThroughputMinDegradationPct = -5 },
			want:   "throughput_min_degradation_pct",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			want:   "logging.level",
		},
		{
			name:   "telemetry without endpoint",
			mutate: func(c *Config) { c.Telemetry.Enabled = true },
			want:   "endpoint",
		},
		{
			name: "telemetry bad protocol",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Endpoint = "localhost:4317"
				c.Telemetry.Protocol = "udp"
			},
			want: "telemetry.protocol",
		},
		{
			name:   "webhook without scheme",
			mutate: func(c *Config) { c.Events.WebhookURL = "hooks.local/rcc" },
			want:   "events.webhook_url",
		},
		{
			name:   "negative event workers",
			mutate: func(c *Config) { c.Events.Workers = -1 },
			want:   "events.workers",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	if err := Validate(defaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if err := Validate(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
