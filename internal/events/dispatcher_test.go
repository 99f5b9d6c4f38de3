package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
)

type fakeBootstrapper struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeBootstrapper) EnsureInitialRole(_ context.Context, uid, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uid)
	return f.err
}

type fakeHandler struct {
	mu    sync.Mutex
	kinds []Kind
	err   error
}

func (f *fakeHandler) HandleContractEvent(_ context.Context, kind Kind, _, _ *ContractSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	return f.err
}

func (f *fakeHandler) seen() []Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Kind{}, f.kinds...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchRoutesUserCreated(t *testing.T) {
	roles := &fakeBootstrapper{}
	handler := &fakeHandler{}
	d := NewDispatcher(discardLogger(), metrics.NewForTest(), roles, handler)

	d.Dispatch(context.Background(), Envelope{
		Kind: KindUserCreated,
		User: &UserPayload{UID: "uid-1", Email: "a@b.com"},
	})

	assert.Equal(t, []string{"uid-1"}, roles.calls)
	assert.Empty(t, handler.seen())
}

func TestDispatchFansContractEventsToAllHandlers(t *testing.T) {
	h1 := &fakeHandler{}
	h2 := &fakeHandler{err: errors.New("handler down")}
	h3 := &fakeHandler{}
	d := NewDispatcher(discardLogger(), metrics.NewForTest(), nil, h1, h2, h3)

	d.Dispatch(context.Background(), Envelope{
		Kind:  KindContractUpdated,
		After: &ContractSnapshot{ID: "c-1"},
	})

	// A failing handler never blocks the others.
	assert.Equal(t, []Kind{KindContractUpdated}, h1.seen())
	assert.Equal(t, []Kind{KindContractUpdated}, h3.seen())
}

func TestDispatchDropsUnknownKinds(t *testing.T) {
	handler := &fakeHandler{}
	d := NewDispatcher(discardLogger(), metrics.NewForTest(), nil, handler)

	d.Dispatch(context.Background(), Envelope{Kind: "contract.exploded"})

	assert.Empty(t, handler.seen())
}

func TestDispatchSwallowsBootstrapErrors(t *testing.T) {
	roles := &fakeBootstrapper{err: errors.New("store down")}
	d := NewDispatcher(discardLogger(), metrics.NewForTest(), roles)

	d.Dispatch(context.Background(), Envelope{
		Kind: KindUserCreated,
		User: &UserPayload{UID: "uid-1"},
	})

	assert.Equal(t, []string{"uid-1"}, roles.calls)
}

func TestMemoryBusDeliversPublishedEvents(t *testing.T) {
	handler := &fakeHandler{}
	d := NewDispatcher(discardLogger(), metrics.NewForTest(), nil, handler)
	bus := NewMemoryBus(discardLogger(), d, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bus.Run(ctx) }()

	require.NoError(t, bus.Publish(ctx, Envelope{
		Kind:  KindContractCreated,
		After: &ContractSnapshot{ID: "c-1"},
	}))

	require.Eventually(t, func() bool {
		return len(handler.seen()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []Kind{KindContractCreated}, handler.seen())
}

func TestMemoryBusDropsWhenInboxFull(t *testing.T) {
	d := NewDispatcher(discardLogger(), metrics.NewForTest(), nil)
	bus := NewMemoryBus(discardLogger(), d, 1)

	// No worker running: the second publish overflows but must not block.
	require.NoError(t, bus.Publish(context.Background(), Envelope{Kind: KindContractCreated}))
	require.NoError(t, bus.Publish(context.Background(), Envelope{Kind: KindContractCreated}))
}

func TestAggregateID(t *testing.T) {
	assert.Equal(t, "uid-1", Envelope{User: &UserPayload{UID: "uid-1"}}.AggregateID())
	assert.Equal(t, "c-1", Envelope{After: &ContractSnapshot{ID: "c-1"}}.AggregateID())
	assert.Equal(t, "c-2", Envelope{Before: &ContractSnapshot{ID: "c-2"}}.AggregateID())
	assert.Equal(t, "", Envelope{}.AggregateID())
}
