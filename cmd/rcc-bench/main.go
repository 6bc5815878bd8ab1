package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/straja-ai/rcc/internal/bench"
	"github.com/straja-ai/rcc/internal/config"
	"github.com/straja-ai/rcc/internal/logging"
	"github.com/straja-ai/rcc/internal/telemetry"
	"github.com/straja-ai/rcc/pkg/rcc"
)

func main() {
	cfgPath := flag.String("config", "rcc.yaml", "path to config (yaml or toml)")
	n := flag.Int("n", 0, "number of measured iterations (overrides config)")
	compare := flag.Bool("compare", false, "compare against the stored baseline and exit 1 on regression")
	history := flag.Int("history", 0, "list the N most recent runs from bench.history_path and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *n > 0 {
		cfg.Bench.MeasureRuns = *n
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  rcc.Version,
	})
	if err != nil {
		logger.Fatal("init telemetry", zap.Error(err))
	}
	defer tel.Shutdown(context.Background())

	opts := []bench.Option{bench.WithLogger(logger), bench.WithTelemetry(tel)}
	var hist *bench.History
	if cfg.Bench.HistoryPath != "" {
		hist, err = bench.OpenHistory(cfg.Bench.HistoryPath)
		if err != nil {
			logger.Fatal("open history", zap.Error(err))
		}
		defer hist.Close()
		opts = append(opts, bench.WithHistory(hist))
	}

	if *history > 0 {
		if hist == nil {
			logger.Fatal("-history needs bench.history_path in the config")
		}
		entries, err := hist.Recent(ctx, *history)
		if err != nil {
			logger.Fatal("read history", zap.Error(err))
		}
		fmt.Println(renderHistory(entries))
		return
	}

	runner := bench.NewRunner(cfg.Bench, opts...)
	logger.Info("bench start",
		zap.Int("warmup_runs", cfg.Bench.WarmupRuns),
		zap.Int("measure_runs", cfg.Bench.MeasureRuns),
		zap.Bool("compare", *compare),
	)

	if !*compare {
		report, err := runner.RunSuite(ctx)
		if err != nil {
			logger.Fatal("bench failed", zap.Error(err))
		}
		fmt.Println(renderReport(report, cfg.Bench.LatestPath()))
		return
	}

	cmp, err := runner.CompareToBaseline(ctx)
	if err != nil {
		logger.Fatal("bench failed", zap.Error(err))
	}
	fmt.Println(renderComparison(cmp, cfg.Bench.Thresholds))
	if !cmp.Pass {
		_ = logger.Sync()
		tel.Shutdown(context.Background())
		os.Exit(1)
	}
}
