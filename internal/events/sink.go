package events

import (
	"context"

	"github.com/walletmesh/multiwallet/internal/logger"
)

// NoopSink discards every event.
type NoopSink struct{}

func (NoopSink) Publish(_ context.Context, _ Event) {}

// LogSink writes every event to the structured log. It is the default
// subscriber wired in cmd; webhook or queue subscribers replace it in
// deployments that need delivery.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, event Event) {
	logger.Info("event "+event.EventKind(), logger.Fields{
		"payload": logger.SanitizePayload(event),
	})
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, event Event) {
	for _, sink := range m {
		sink.Publish(ctx, event)
	}
}
