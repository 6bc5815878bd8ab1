// Package bench measures the latency of the core pipeline and compares runs
// against a stored baseline report.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/straja-ai/rcc/internal/analyzer"
	"github.com/straja-ai/rcc/internal/config"
	"github.com/straja-ai/rcc/internal/regulator"
	"github.com/straja-ai/rcc/internal/router"
	"github.com/straja-ai/rcc/internal/states"
	"github.com/straja-ai/rcc/internal/telemetry"
)

// Report is one benchmark summary as persisted to disk.
type Report struct {
	P50Ms          float64 `json:"p50_ms"`
	P95Ms          float64 `json:"p95_ms"`
	P99Ms          float64 `json:"p99_ms"`
	ThroughputOpsS float64 `json:"throughput_ops_s"`
	AvgMs          float64 `json:"avg_ms"`
	MinMs          float64 `json:"min_ms"`
	MaxMs          float64 `json:"max_ms"`
	MemHeapMB      float64 `json:"mem_heap_mb"`
	Timestamp      string  `json:"timestamp"`
}

// Comparison is the verdict of a run against the baseline.
type Comparison struct {
	Current  Report  `json:"current"`
	Baseline *Report `json:"baseline,omitempty"`

	// Positive values mean the current run is worse.
	P95DegradationPct        float64 `json:"p95_degradation_pct"`
	ThroughputDegradationPct float64 `json:"throughput_degradation_pct"`

	NewBaseline bool   `json:"new_baseline"`
	Pass        bool   `json:"pass"`
	Failure     string `json:"failure,omitempty"`
}

// Outcome is what one pipeline pass produced.
type Outcome struct {
	State   states.State
	Action  regulator.Action
	Channel router.Channel
}

// RunOnce pushes input through analyze, regulate and route.
func RunOnce(input string) Outcome {
	a := analyzer.Analyze(input)
	r := regulator.Regulate(&a, input)
	return Outcome{State: a.State, Action: r.Action, Channel: router.Route(r).Channel}
}

// GenerateInput returns the fixed synthetic message used by every run.
func GenerateInput() string {
	return strings.Repeat("Hello World, this is a test message for performance benchmarking. ", 5)
}

// Runner executes benchmark suites.
type Runner struct {
	cfg     config.BenchConfig
	logger  *zap.Logger
	metrics *telemetry.Provider
	history *History

	input   string
	runOnce func(string) Outcome
	now     func() time.Time
	heapMB  func() float64
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTelemetry records every measured iteration into p.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(r *Runner) { r.metrics = p }
}

// WithHistory appends every suite and compare run to h.
func WithHistory(h *History) Option {
	return func(r *Runner) { r.history = h }
}

// NewRunner builds a Runner for cfg.
func NewRunner(cfg config.BenchConfig, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		logger:  zap.NewNop(),
		input:   GenerateInput(),
		runOnce: RunOnce,
		now:     time.Now,
		heapMB:  heapInUseMB,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Measure runs the warmup and measured iterations and returns the samples
// in milliseconds, in execution order.
func (r *Runner) Measure(ctx context.Context) ([]float64, error) {
	for i := 0; i < r.cfg.WarmupRuns; i++ {
		r.runOnce(r.input)
	}

	n := r.cfg.MeasureRuns
	if n <= 0 {
		n = 1
	}
	samples := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		start := time.Now()
		out := r.runOnce(r.input)
		ms := float64(time.Since(start).Nanoseconds()) / 1e6
		samples = append(samples, ms)
		if r.metrics != nil {
			r.metrics.RecordRun(out.State, out.Action, out.Channel, ms)
		}
	}
	return samples, nil
}

// RunSuite measures once, writes the latest report and seeds the baseline
// when none exists.
func (r *Runner) RunSuite(ctx context.Context) (Report, error) {
	samples, err := r.Measure(ctx)
	if err != nil {
		return Report{}, err
	}
	report := BuildReport(samples, r.heapMB(), r.now())

	if err := SaveReport(report, r.cfg.LatestPath()); err != nil {
		return Report{}, err
	}
	if LoadReport(r.cfg.BaselinePath()) == nil {
		if err := SaveReport(report, r.cfg.BaselinePath()); err != nil {
			return Report{}, err
		}
		r.logger.Info("baseline created", zap.String("path", r.cfg.BaselinePath()))
	}

	r.record(ctx, KindSuite, true, report)
	return report, nil
}

// CompareToBaseline measures once and judges the result against the stored
// baseline. A missing baseline is replaced by the current report and passes.
func (r *Runner) CompareToBaseline(ctx context.Context) (Comparison, error) {
	samples, err := r.Measure(ctx)
	if err != nil {
		return Comparison{}, err
	}
	current := BuildReport(samples, r.heapMB(), r.now())
	if err := SaveReport(current, r.cfg.LatestPath()); err != nil {
		return Comparison{}, err
	}

	baseline := LoadReport(r.cfg.BaselinePath())
	var cmp Comparison
	if baseline == nil {
		if err := SaveReport(current, r.cfg.BaselinePath()); err != nil {
			return Comparison{}, err
		}
		cmp = Comparison{Current: current, NewBaseline: true, Pass: true}
	} else {
		cmp = Compare(current, *baseline, r.cfg.Thresholds)
	}

	if cmp.Pass {
		r.logger.Info("bench within thresholds",
			zap.Float64("p95_degradation_pct", cmp.P95DegradationPct),
			zap.Float64("throughput_degradation_pct", cmp.ThroughputDegradationPct),
		)
	} else {
		r.logger.Warn("bench regression", zap.String("failure", cmp.Failure))
	}

	r.record(ctx, KindCompare, cmp.Pass, current)
	return cmp, nil
}

func (r *Runner) record(ctx context.Context, kind Kind, pass bool, report Report) {
	if r.history == nil {
		return
	}
	if _, err := r.history.Append(ctx, kind, pass, report); err != nil {
		r.logger.Warn("history append failed", zap.Error(err))
	}
}

// Compare judges current against baseline. The p95 check runs first; the
// first exceeded threshold is reported in Failure. A non-positive baseline
// value disables its check.
func Compare(current, baseline Report, th config.BenchThresholds) Comparison {
	cmp := Comparison{Current: current, Baseline: &baseline, Pass: true}

	if baseline.P95Ms > 0 {
		cmp.P95DegradationPct = (current.P95Ms - baseline.P95Ms) / baseline.P95Ms * 100
	}
	if baseline.ThroughputOpsS > 0 {
		cmp.ThroughputDegradationPct = (baseline.ThroughputOpsS - current.ThroughputOpsS) / baseline.ThroughputOpsS * 100
	}

	switch {
	case cmp.P95DegradationPct > th.P95MaxDegradationPct:
		cmp.Pass = false
		cmp.Failure = fmt.Sprintf("P95 regression: %.2f%% (max %g%%)", cmp.P95DegradationPct, th.P95MaxDegradationPct)
	case cmp.ThroughputDegradationPct > th.ThroughputMinDegradationPct:
		cmp.Pass = false
		cmp.Failure = fmt.Sprintf("Throughput regression: %.2f%% (max %g%%)", cmp.ThroughputDegradationPct, th.ThroughputMinDegradationPct)
	}
	return cmp
}

// BuildReport summarises samples (milliseconds). samples must not be empty.
func BuildReport(samples []float64, heapMB float64, at time.Time) Report {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var total float64
	for _, s := range sorted {
		total += s
	}
	avg := total / float64(len(sorted))

	var throughput float64
	if avg > 0 {
		throughput = math.Round(1000 / avg)
	}

	return Report{
		P50Ms:          round(Percentile(sorted, 0.50), 3),
		P95Ms:          round(Percentile(sorted, 0.95), 3),
		P99Ms:          round(Percentile(sorted, 0.99), 3),
		ThroughputOpsS: throughput,
		AvgMs:          round(avg, 3),
		MinMs:          round(sorted[0], 3),
		MaxMs:          round(sorted[len(sorted)-1], 3),
		MemHeapMB:      round(heapMB, 2),
		Timestamp:      at.UTC().Format(time.RFC3339),
	}
}

// Percentile picks sorted[floor(n*p)], clamped to the last element.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func heapInUseMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / 1024 / 1024
}

// SaveReport writes report as indented JSON, creating parent directories.
func SaveReport(report Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// LoadReport reads a report. Missing or malformed files yield nil.
func LoadReport(path string) *Report {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil
	}
	return &rep
}
