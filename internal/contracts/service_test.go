package contracts

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/middleware"
	dErrors "github.com/fbn1986/gerenciador-de-contratos/pkg/domain-errors"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (p *capturingPublisher) Publish(_ context.Context, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, env)
	return nil
}

func (p *capturingPublisher) all() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope{}, p.events...)
}

var caller = middleware.Caller{UID: "uid-1", Email: "maria@example.com"}

func newTestService() (*Service, *InMemoryStore, *capturingPublisher) {
	store := NewInMemoryStore()
	publisher := &capturingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, publisher, logger, metrics.NewForTest()), store, publisher
}

func strptr(s string) *string   { return &s }
func f64ptr(f float64) *float64 { return &f }

func TestCreateDefaultsToProposalStatus(t *testing.T) {
	svc, store, publisher := newTestService()

	contract, err := svc.Create(context.Background(), caller, CreateInput{Title: "Lease A"})
	require.NoError(t, err)

	assert.NotEmpty(t, contract.ID)
	assert.Equal(t, StatusProposal, contract.Status)
	assert.Equal(t, "uid-1", contract.CreatedBy)

	stored, err := store.GetContract(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProposal, stored.Status)

	published := publisher.all()
	require.Len(t, published, 1)
	assert.Equal(t, events.KindContractCreated, published[0].Kind)
	assert.Nil(t, published[0].Before)
	assert.Equal(t, "Lease A", published[0].After.Title)
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, _, publisher := newTestService()

	_, err := svc.Create(context.Background(), caller, CreateInput{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
	assert.Empty(t, publisher.all())
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), caller, CreateInput{Title: "Lease A", Status: "Em Revisão"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	ctx := context.Background()
	svc, _, publisher := newTestService()

	created, err := svc.Create(ctx, caller, CreateInput{
		Title:      "Lease A",
		TotalValue: 1000,
		Sector:     "TI",
	})
	require.NoError(t, err)

	editor := middleware.Caller{UID: "uid-2", Email: "joao@example.com"}
	updated, err := svc.Update(ctx, editor, created.ID, UpdateInput{
		Status:     strptr(string(StatusDocsChecked)),
		TotalValue: f64ptr(2500),
	})
	require.NoError(t, err)

	assert.Equal(t, "Lease A", updated.Title)
	assert.Equal(t, StatusDocsChecked, updated.Status)
	assert.Equal(t, 2500.0, updated.TotalValue)
	assert.Equal(t, "TI", updated.Sector)
	assert.Equal(t, "uid-2", updated.UpdatedBy)
	assert.Equal(t, "uid-1", updated.CreatedBy)

	published := publisher.all()
	require.Len(t, published, 2)
	env := published[1]
	assert.Equal(t, events.KindContractUpdated, env.Kind)
	assert.Equal(t, string(StatusProposal), env.Before.Status)
	assert.Equal(t, string(StatusDocsChecked), env.After.Status)
	assert.Equal(t, 1000.0, env.Before.TotalValue)
	assert.Equal(t, 2500.0, env.After.TotalValue)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	created, err := svc.Create(ctx, caller, CreateInput{Title: "Lease A"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, caller, created.ID, UpdateInput{Status: strptr("Inexistente")})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidArgument))
}

func TestUpdateMissingContract(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Update(context.Background(), caller, "ghost", UpdateInput{Title: strptr("x")})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListChildrenOfUnknownContract(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ListAttachments(context.Background(), "ghost")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = svc.ListAuditEntries(context.Background(), "ghost")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestValidStatus(t *testing.T) {
	for _, s := range Lifecycle() {
		assert.True(t, ValidStatus(string(s)))
	}
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("proposta registrada"))
}
