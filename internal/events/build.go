package events

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/straja-ai/rcc/internal/config"
)

// FromConfig builds an Emitter with the sinks cfg enables. It returns nil
// when no sink is configured; a nil *Emitter is a valid no-op observer.
func FromConfig(cfg config.EventsConfig, logger *zap.Logger) (*Emitter, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var sinks []Sink
	if cfg.FilePath != "" {
		fs, err := NewFileSink(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("events file sink: %w", err)
		}
		sinks = append(sinks, fs)
	}
	if cfg.WebhookURL != "" {
		ws, err := NewWebhookSink(cfg.WebhookURL, cfg.WebhookHeaders, time.Duration(cfg.WebhookTimeoutMs)*time.Millisecond)
		if err != nil {
			for _, s := range sinks {
				_ = s.Close(context.Background())
			}
			return nil, fmt.Errorf("events webhook sink: %w", err)
		}
		sinks = append(sinks, ws)
	}

	return NewEmitter(EmitterConfig{
		QueueSize:      cfg.QueueSize,
		Workers:        cfg.Workers,
		IncludePreview: cfg.IncludePreview,
		Logger:         logger,
	}, sinks), nil
}
