package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/straja-ai/rcc/pkg/rcc"
)

const instrumentationName = "github.com/straja-ai/rcc"

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires tracer/meter providers and exposes helpers.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	runsCounter           metric.Int64Counter
	runDuration           metric.Float64Histogram
	shutdownTraceProvider func(context.Context) error
	shutdownMeterProvider func(context.Context) error
}

var _ rcc.Observer = (*Provider)(nil)

// NewProvider configures OTEL exporters + providers. When disabled, returns no-op providers.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		return newNoop(), nil
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	var (
		traceExp  sdktrace.SpanExporter
		metricExp sdkmetric.Exporter
	)
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		traceExp, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		metricExp, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
	case "http":
		traceExp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		metricExp, err = otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported telemetry protocol %q", cfg.Protocol)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))
	otel.SetMeterProvider(mp)

	p := NewWithProviders(tp, mp)
	p.shutdownTraceProvider = tp.Shutdown
	p.shutdownMeterProvider = mp.Shutdown
	return p, nil
}

// NewWithProviders builds an enabled provider on existing tracer and meter
// providers. A nil tracer provider disables spans. The caller owns shutdown
// of providers passed in.
func NewWithProviders(tp trace.TracerProvider, mp metric.MeterProvider) *Provider {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	p := &Provider{
		Enabled: true,
		tracer:  tp.Tracer(instrumentationName),
		meter:   mp.Meter(instrumentationName),
	}
	p.initInstruments()
	return p
}

func newNoop() *Provider {
	p := &Provider{
		Enabled: false,
		tracer:  tracenoop.NewTracerProvider().Tracer(""),
		meter:   noop.NewMeterProvider().Meter(""),
	}
	p.initInstruments()
	return p
}

func (p *Provider) initInstruments() {
	if p == nil {
		return
	}
	// Use meter to create instruments; ignore errors to keep telemetry best-effort.
	p.runsCounter, _ = p.meter.Int64Counter("rcc_runs_total")
	p.runDuration, _ = p.meter.Float64Histogram("rcc_run_duration_ms")
}

// Shutdown flushes providers.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	if p.shutdownTraceProvider != nil {
		_ = p.shutdownTraceProvider(ctx)
	}
	if p.shutdownMeterProvider != nil {
		_ = p.shutdownMeterProvider(ctx)
	}
}

// RecordRun emits the run counter and duration histogram labelled by outcome.
func (p *Provider) RecordRun(state rcc.State, action rcc.Action, channel rcc.Channel, durMs float64) {
	if p == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("rcc.state", string(state)),
		attribute.String("rcc.action", string(action)),
		attribute.String("rcc.channel", string(channel)),
	)
	p.runsCounter.Add(context.Background(), 1, labels)
	p.runDuration.Record(context.Background(), durMs, labels)
}

// ObserveRun records a completed pipeline run as metrics and a span covering
// its duration. Caller meta is attached to the span after filtering.
func (p *Provider) ObserveRun(res rcc.Result, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.RecordRun(res.Analysis.State, res.Regulation.Action, res.Routing.Channel, float64(elapsed.Microseconds())/1000.0)

	end := time.Now()
	attrs := append([]attribute.KeyValue{
		attribute.String("rcc.state", string(res.Analysis.State)),
		attribute.String("rcc.reason", string(res.Analysis.Reason)),
		attribute.Float64("rcc.score", res.Analysis.Score),
		attribute.String("rcc.action", string(res.Regulation.Action)),
		attribute.String("rcc.channel", string(res.Routing.Channel)),
	}, SafeAttributes(res.Meta)...)
	_, span := p.tracer.Start(context.Background(), "rcc.run",
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(attrs...),
	)
	span.End(trace.WithTimestamp(end))
}
