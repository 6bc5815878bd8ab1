package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/straja-ai/rcc/internal/config"
	"github.com/straja-ai/rcc/internal/events"
	"github.com/straja-ai/rcc/internal/logging"
	"github.com/straja-ai/rcc/internal/telemetry"
	"github.com/straja-ai/rcc/pkg/rcc"
)

// app holds what PersistentPreRunE builds for the run command.
type app struct {
	logger  *zap.Logger
	client  *rcc.Client
	emitter *events.Emitter
	tel     *telemetry.Provider

	closeOnce sync.Once
}

// close flushes events and telemetry. Safe to call more than once.
func (a *app) close() {
	a.closeOnce.Do(func() {
		ctx := context.Background()
		a.emitter.Close(ctx)
		a.tel.Shutdown(ctx)
		_ = a.logger.Sync()
	})
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	var (
		asJSON  bool
		cfgPath string
		a       = &app{logger: zap.NewNop(), client: rcc.New()}
	)

	root := &cobra.Command{
		Use:   "rcc [text]",
		Short: "Classify a message and print its regulated form",
		Long: `rcc runs one message through analyze, regulate and route.

Pass the message as an argument or pipe it on stdin. The output is
"[STATE] message"; --json prints the full pipeline result instead.

With --config, run events and telemetry are delivered as configured.
RCC_LOG_LEVEL overrides the configured log level.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if cfgPath != "" {
				loaded, err := config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			if lvl := os.Getenv("RCC_LOG_LEVEL"); lvl != "" {
				cfg.Logging.Level = lvl
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			l, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			a.logger = l

			a.emitter, err = events.FromConfig(cfg.Events, l)
			if err != nil {
				a.close()
				return err
			}
			a.tel, err = telemetry.NewProvider(cmd.Context(), telemetry.Config{
				Enabled:  cfg.Telemetry.Enabled,
				Endpoint: cfg.Telemetry.Endpoint,
				Protocol: cfg.Telemetry.Protocol,
				Service:  cfg.Telemetry.Service,
				Version:  rcc.Version,
			})
			if err != nil {
				a.close()
				return fmt.Errorf("init telemetry: %w", err)
			}
			a.client = rcc.New(rcc.WithObserver(rcc.Observers{a.emitter, a.tel}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// PersistentPostRun is skipped when RunE fails.
			defer a.close()

			var text string
			if len(args) == 1 && args[0] != "" {
				text = args[0]
			} else {
				data, err := io.ReadAll(in)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = strings.TrimSpace(string(data))
				if text == "" {
					a.logger.Debug("empty stdin, nothing to do")
					return nil
				}
			}

			res, err := a.client.Run(text)
			if err != nil {
				return err
			}
			a.logger.Debug("run complete",
				logging.Text("text", text),
				zap.String("state", string(res.Analysis.State)),
				zap.Float64("score", res.Analysis.Score),
				zap.String("action", string(res.Regulation.Action)),
				zap.String("channel", string(res.Routing.Channel)),
			)

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = fmt.Fprintf(out, "[%s] %s\n", res.Analysis.State, res.Regulation.Message)
			return err
		},
	}
	root.Flags().BoolVar(&asJSON, "json", false, "print the full pipeline result as JSON")
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config (yaml or toml)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the pipeline version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(out, "rcc %s\n", rcc.Version)
			return err
		},
	})

	return root
}
