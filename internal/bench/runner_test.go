package bench

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/goleak"

	"github.com/straja-ai/rcc/internal/config"
	"github.com/straja-ai/rcc/internal/regulator"
	"github.com/straja-ai/rcc/internal/router"
	"github.com/straja-ai/rcc/internal/states"
	"github.com/straja-ai/rcc/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(dir string) config.BenchConfig {
	cfg := config.Default().Bench
	cfg.Dir = dir
	cfg.WarmupRuns = 2
	cfg.MeasureRuns = 5
	return cfg
}

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestRunner(t *testing.T, cfg config.BenchConfig, opts ...Option) *Runner {
	t.Helper()
	r := NewRunner(cfg, opts...)
	r.now = fixedClock(time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC))
	r.heapMB = func() float64 { return 4.2 }
	return r
}

func TestRunOnceSyntheticInputIsCalm(t *testing.T) {
	out := RunOnce(GenerateInput())
	assert.Equal(t, Outcome{State: states.Calm, Action: regulator.ActionPassthrough, Channel: router.ChannelText}, out)
}

func TestGenerateInput(t *testing.T) {
	in := GenerateInput()
	assert.Len(t, in, 5*len("Hello World, this is a test message for performance benchmarking. "))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.5, 6},
		{0.95, 10},
		{0.99, 10},
		{1, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentile(sorted, tt.p), "p=%v", tt.p)
	}
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 0.99))
}

func TestBuildReportRounding(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rep := BuildReport([]float64{3.0, 1.23456, 2.0}, 12.3456, at)

	assert.Equal(t, 1.235, rep.MinMs)
	assert.Equal(t, 3.0, rep.MaxMs)
	assert.Equal(t, 2.078, rep.AvgMs)
	assert.Equal(t, 481.0, rep.ThroughputOpsS)
	assert.Equal(t, 2.0, rep.P50Ms)
	assert.Equal(t, 3.0, rep.P95Ms)
	assert.Equal(t, 3.0, rep.P99Ms)
	assert.Equal(t, 12.35, rep.MemHeapMB)
	assert.Equal(t, "2026-01-02T03:04:05Z", rep.Timestamp)
}

func TestBuildReportZeroSamples(t *testing.T) {
	rep := BuildReport([]float64{0, 0}, 0, time.Now())
	assert.Equal(t, 0.0, rep.ThroughputOpsS)
}

func TestCompare(t *testing.T) {
	th := config.BenchThresholds{P95MaxDegradationPct: 25, ThroughputMinDegradationPct: 20}
	base := Report{P95Ms: 1.0, ThroughputOpsS: 1000}

	tests := []struct {
		name     string
		current  Report
		wantPass bool
		wantFail string
	}{
		{"identical", Report{P95Ms: 1.0, ThroughputOpsS: 1000}, true, ""},
		{"faster", Report{P95Ms: 0.5, ThroughputOpsS: 2000}, true, ""},
		{"p95 at threshold", Report{P95Ms: 1.25, ThroughputOpsS: 1000}, true, ""},
		{"p95 regression", Report{P95Ms: 1.5, ThroughputOpsS: 1000}, false, "P95 regression: 50.00% (max 25%)"},
		{"throughput regression", Report{P95Ms: 1.0, ThroughputOpsS: 700}, false, "Throughput regression: 30.00% (max 20%)"},
		{"p95 reported first", Report{P95Ms: 2.0, ThroughputOpsS: 100}, false, "P95 regression: 100.00% (max 25%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp := Compare(tt.current, base, th)
			assert.Equal(t, tt.wantPass, cmp.Pass)
			assert.Equal(t, tt.wantFail, cmp.Failure)
			require.NotNil(t, cmp.Baseline)
		})
	}
}

func TestCompareZeroToleranceThresholds(t *testing.T) {
	strict := config.BenchThresholds{}
	base := Report{P95Ms: 1.0, ThroughputOpsS: 1000}

	assert.True(t, Compare(Report{P95Ms: 1.0, ThroughputOpsS: 1000}, base, strict).Pass)
	assert.False(t, Compare(Report{P95Ms: 1.001, ThroughputOpsS: 1000}, base, strict).Pass)
	assert.False(t, Compare(Report{P95Ms: 1.0, ThroughputOpsS: 999}, base, strict).Pass)
}

func TestCompareZeroBaselineDisablesChecks(t *testing.T) {
	th := config.BenchThresholds{P95MaxDegradationPct: 25, ThroughputMinDegradationPct: 20}
	cmp := Compare(Report{P95Ms: 5, ThroughputOpsS: 10}, Report{}, th)
	assert.True(t, cmp.Pass)
	assert.Zero(t, cmp.P95DegradationPct)
	assert.Zero(t, cmp.ThroughputDegradationPct)
}

func TestRunSuiteWritesLatestAndSeedsBaseline(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "nested"))
	r := newTestRunner(t, cfg)

	first, err := r.RunSuite(context.Background())
	require.NoError(t, err)

	latest := LoadReport(cfg.LatestPath())
	require.NotNil(t, latest)
	assert.Equal(t, first, *latest)
	baseline := LoadReport(cfg.BaselinePath())
	require.NotNil(t, baseline)
	assert.Equal(t, first.Timestamp, baseline.Timestamp)

	second, err := r.RunSuite(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Timestamp, second.Timestamp)

	baseline = LoadReport(cfg.BaselinePath())
	require.NotNil(t, baseline)
	assert.Equal(t, first.Timestamp, baseline.Timestamp, "existing baseline must not be overwritten")
	latest = LoadReport(cfg.LatestPath())
	require.NotNil(t, latest)
	assert.Equal(t, second.Timestamp, latest.Timestamp)
}

func TestRunSuiteReplacesUnreadableBaseline(t *testing.T) {
	cfg := testConfig(t.TempDir())
	require.NoError(t, os.MkdirAll(cfg.Dir, 0o755))
	require.NoError(t, os.WriteFile(cfg.BaselinePath(), []byte("{not json"), 0o644))

	rep, err := newTestRunner(t, cfg).RunSuite(context.Background())
	require.NoError(t, err)
	baseline := LoadReport(cfg.BaselinePath())
	require.NotNil(t, baseline)
	assert.Equal(t, rep.Timestamp, baseline.Timestamp)
}

func TestCompareToBaselineWithoutBaselinePasses(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cmp, err := newTestRunner(t, cfg).CompareToBaseline(context.Background())
	require.NoError(t, err)
	assert.True(t, cmp.Pass)
	assert.True(t, cmp.NewBaseline)
	assert.Nil(t, cmp.Baseline)
	assert.NotNil(t, LoadReport(cfg.BaselinePath()))
	assert.NotNil(t, LoadReport(cfg.LatestPath()))
}

func sleepyRun(string) Outcome {
	time.Sleep(time.Millisecond)
	return Outcome{State: states.Calm, Action: regulator.ActionPassthrough, Channel: router.ChannelText}
}

func TestCompareToBaselineDetectsRegression(t *testing.T) {
	cfg := testConfig(t.TempDir())
	require.NoError(t, SaveReport(Report{P95Ms: 0.01, ThroughputOpsS: 100000}, cfg.BaselinePath()))

	r := newTestRunner(t, cfg)
	r.runOnce = sleepyRun

	cmp, err := r.CompareToBaseline(context.Background())
	require.NoError(t, err)
	assert.False(t, cmp.Pass)
	assert.Contains(t, cmp.Failure, "P95 regression")
	assert.Greater(t, cmp.P95DegradationPct, 25.0)
}

func TestCompareToBaselineWithinThresholds(t *testing.T) {
	cfg := testConfig(t.TempDir())
	require.NoError(t, SaveReport(Report{P95Ms: 100000, ThroughputOpsS: 0.001}, cfg.BaselinePath()))

	r := newTestRunner(t, cfg)
	r.runOnce = sleepyRun

	cmp, err := r.CompareToBaseline(context.Background())
	require.NoError(t, err)
	assert.True(t, cmp.Pass)
	assert.False(t, cmp.NewBaseline)
	assert.Less(t, cmp.P95DegradationPct, 0.0)
}

func TestMeasureHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestRunner(t, testConfig(t.TempDir())).Measure(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMeasureCountsIterations(t *testing.T) {
	cfg := testConfig(t.TempDir())
	calls := 0
	r := newTestRunner(t, cfg)
	r.runOnce = func(in string) Outcome {
		calls++
		return RunOnce(in)
	}
	samples, err := r.Measure(context.Background())
	require.NoError(t, err)
	assert.Len(t, samples, cfg.MeasureRuns)
	assert.Equal(t, cfg.WarmupRuns+cfg.MeasureRuns, calls)
}

func TestMeasureRecordsTelemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	cfg := testConfig(t.TempDir())
	r := newTestRunner(t, cfg, WithTelemetry(telemetry.NewWithProviders(nil, mp)))
	_, err := r.Measure(context.Background())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var count uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "rcc_run_duration_ms" {
				continue
			}
			hist, ok := m.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				count += dp.Count
			}
		}
	}
	assert.Equal(t, uint64(cfg.MeasureRuns), count, "warmup runs are not recorded")
}
