package events

import (
	"context"
	"log/slog"
)

// MemoryBus is an in-process Publisher backed by a channel and a worker
// goroutine. It stands in for the broker in tests and broker-less runs while
// keeping the same fire-and-forget contract.
type MemoryBus struct {
	logger     *slog.Logger
	dispatcher *Dispatcher
	inbox      chan Envelope
}

func NewMemoryBus(logger *slog.Logger, dispatcher *Dispatcher, buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = 64
	}
	return &MemoryBus{
		logger:     logger,
		dispatcher: dispatcher,
		inbox:      make(chan Envelope, buffer),
	}
}

// Publish enqueues the event. A full inbox drops the event with a log line
// rather than blocking the write path.
func (b *MemoryBus) Publish(ctx context.Context, env Envelope) error {
	select {
	case b.inbox <- env:
		return nil
	default:
		b.logger.ErrorContext(ctx, "event inbox full, dropping event", "kind", env.Kind)
		return nil
	}
}

// Run consumes events until the context is cancelled.
func (b *MemoryBus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-b.inbox:
			b.dispatcher.Dispatch(ctx, env)
		}
	}
}
