package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbn1986/gerenciador-de-contratos/internal/contracts"
	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
)

func newTestRecorder(store Appender) *Recorder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRecorder(store, logger, metrics.NewForTest())
}

func snapshot(title, status string) *events.ContractSnapshot {
	return &events.ContractSnapshot{
		ID:        "c-1",
		Title:     title,
		Status:    status,
		UpdatedBy: "uid-editor",
	}
}

func TestRecordCreation(t *testing.T) {
	ctx := context.Background()
	store := contracts.NewInMemoryStore()
	recorder := newTestRecorder(store)

	after := snapshot("Lease A", string(contracts.StatusProposal))
	require.NoError(t, recorder.HandleContractEvent(ctx, events.KindContractCreated, nil, after))

	entries, err := store.ListAuditEntries(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionCreated, entries[0].Action)
	assert.Contains(t, entries[0].Details, "Lease A")
	assert.Contains(t, entries[0].Details, "Proposta Registrada")
	assert.Equal(t, "uid-editor", entries[0].Actor)
}

func TestStatusChangeScenario(t *testing.T) {
	ctx := context.Background()
	store := contracts.NewInMemoryStore()
	recorder := newTestRecorder(store)

	before := snapshot("Lease A", "Proposta Registrada")
	after := snapshot("Lease A", "Documentação Validada")
	require.NoError(t, recorder.HandleContractEvent(ctx, events.KindContractUpdated, before, after))

	entries, err := store.ListAuditEntries(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Status Alterado", entries[0].Action)
	assert.Equal(t, "Proposta Registrada -> Documentação Validada", entries[0].Details)
}

func TestUpdateProducesOneEntryPerChangedField(t *testing.T) {
	ctx := context.Background()
	store := contracts.NewInMemoryStore()
	recorder := newTestRecorder(store)

	before := &events.ContractSnapshot{
		ID:              "c-1",
		Title:           "Lease A",
		Status:          "Proposta Registrada",
		ContractedParty: "Empresa X",
		TotalValue:      1000,
		Sector:          "TI",
		CostCenter:      "CC-01",
		UpdatedBy:       "uid-editor",
	}
	after := &events.ContractSnapshot{
		ID:              "c-1",
		Title:           "Lease B",
		Status:          "Contrato Assinado",
		ContractedParty: "Empresa X",
		TotalValue:      2500.5,
		Sector:          "TI",
		CostCenter:      "CC-02",
		UpdatedBy:       "uid-editor",
	}
	require.NoError(t, recorder.HandleContractEvent(ctx, events.KindContractUpdated, before, after))

	entries, err := store.ListAuditEntries(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.ElementsMatch(t, []string{
		"Status Alterado", "Título Alterado", "Valor Total Alterado", "Centro de Custo Alterado",
	}, actions)

	// The whole batch shares one timestamp.
	for _, e := range entries {
		assert.True(t, e.CreatedAt.Equal(entries[0].CreatedAt))
	}
}

func TestUpdateWithoutTrackedChangesWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := contracts.NewInMemoryStore()
	recorder := newTestRecorder(store)

	same := snapshot("Lease A", "Proposta Registrada")
	require.NoError(t, recorder.HandleContractEvent(ctx, events.KindContractUpdated, same, same))

	entries, err := store.ListAuditEntries(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMissingValuesRenderAsPlaceholder(t *testing.T) {
	ctx := context.Background()
	store := contracts.NewInMemoryStore()
	recorder := newTestRecorder(store)

	before := &events.ContractSnapshot{ID: "c-1", Title: "Lease A", Status: "Proposta Registrada"}
	after := &events.ContractSnapshot{ID: "c-1", Title: "Lease A", Status: "Proposta Registrada", Sector: "Jurídico"}
	require.NoError(t, recorder.HandleContractEvent(ctx, events.KindContractUpdated, before, after))

	entries, err := store.ListAuditEntries(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Setor Alterado", entries[0].Action)
	assert.Equal(t, "N/A -> Jurídico", entries[0].Details)
}

func TestActorFallsBackToCreatorThenSystem(t *testing.T) {
	assert.Equal(t, "uid-a", actorOf(&events.ContractSnapshot{UpdatedBy: "uid-a", CreatedBy: "uid-b"}))
	assert.Equal(t, "uid-b", actorOf(&events.ContractSnapshot{CreatedBy: "uid-b"}))
	assert.Equal(t, "System", actorOf(&events.ContractSnapshot{}))
}

// End-to-end through the contract service and dispatcher: a synchronous walk
// of the same path the bus worker takes.
func TestRecorderBehindDispatcher(t *testing.T) {
	ctx := context.Background()
	store := contracts.NewInMemoryStore()
	recorder := newTestRecorder(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := events.NewDispatcher(logger, metrics.NewForTest(), nil, recorder)
	bus := events.NewMemoryBus(logger, dispatcher, 8)

	svc := contracts.NewService(store, bus, logger, metrics.NewForTest())
	caller := middleware.Caller{UID: "uid-editor"}

	created, err := svc.Create(ctx, caller, contracts.CreateInput{Title: "Lease A", Status: "Proposta Registrada"})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() { defer close(done); _ = bus.Run(runCtx) }()

	newStatus := "Documentação Validada"
	_, err = svc.Update(ctx, caller, created.ID, contracts.UpdateInput{Status: &newStatus})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		entries, err := store.ListAuditEntries(ctx, created.ID)
		return err == nil && len(entries) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	entries, err := store.ListAuditEntries(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, entries[0].Action)
	assert.Equal(t, "Status Alterado", entries[1].Action)
}
