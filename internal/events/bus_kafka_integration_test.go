//go:build integration

package events_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/testutil/containers"
)

type capturingHandler struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (h *capturingHandler) HandleContractEvent(_ context.Context, kind events.Kind, before, after *events.ContractSnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, events.Envelope{Kind: kind, Before: before, After: after})
	return nil
}

func (h *capturingHandler) snapshot() []events.Envelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Envelope{}, h.events...)
}

func TestKafkaBusRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := containers.NewRedpandaContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := &capturingHandler{}
	dispatcher := events.NewDispatcher(logger, metrics.NewForTest(), nil, handler)

	producer, err := events.NewKafkaBus(ctx, logger, []string{broker.Broker}, "contract-events", "it-group", nil)
	require.NoError(t, err)
	defer producer.Close()

	consumer, err := events.NewKafkaBus(ctx, logger, []string{broker.Broker}, "contract-events", "it-group", dispatcher)
	require.NoError(t, err)
	defer consumer.Close()

	go func() { _ = consumer.Run(ctx) }()

	before := &events.ContractSnapshot{ID: "c-1", Title: "Lease A", Status: "Proposta Registrada"}
	after := &events.ContractSnapshot{ID: "c-1", Title: "Lease A", Status: "Documentação Validada"}
	require.NoError(t, producer.Publish(ctx, events.Envelope{
		Kind:       events.KindContractUpdated,
		OccurredAt: time.Now().UTC(),
		Before:     before,
		After:      after,
	}))

	require.Eventually(t, func() bool {
		return len(handler.snapshot()) >= 1
	}, 30*time.Second, 200*time.Millisecond)

	got := handler.snapshot()[0]
	require.Equal(t, events.KindContractUpdated, got.Kind)
	require.Equal(t, "Proposta Registrada", got.Before.Status)
	require.Equal(t, "Documentação Validada", got.After.Status)
}
