package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/fbn1986/gerenciador-de-contratos/internal/contracts"
	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
)

// notAvailable renders a missing before/after value.
const notAvailable = "N/A"

// ActionCreated is the action label of the single entry written on contract
// creation.
const ActionCreated = "Contrato Criado"

// Appender is the slice of the contract store the recorder needs.
type Appender interface {
	AppendAuditEntries(ctx context.Context, entries []contracts.AuditEntry) error
}

// Recorder turns contract events into human-readable audit entries. All
// entries produced by one update go to the store as a single atomic batch
// sharing one timestamp.
type Recorder struct {
	store   Appender
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRecorder(store Appender, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: m}
}

// trackedField is one contract field whose change generates an audit entry.
type trackedField struct {
	label string
	value func(*events.ContractSnapshot) string
}

// trackedFields is the fixed diff set. Order determines entry order within a
// batch.
var trackedFields = []trackedField{
	{"Status Alterado", func(c *events.ContractSnapshot) string { return c.Status }},
	{"Título Alterado", func(c *events.ContractSnapshot) string { return c.Title }},
	{"Contratada Alterada", func(c *events.ContractSnapshot) string { return c.ContractedParty }},
	{"Valor Total Alterado", func(c *events.ContractSnapshot) string { return formatValue(c.TotalValue) }},
	{"Setor Alterado", func(c *events.ContractSnapshot) string { return c.Sector }},
	{"Centro de Custo Alterado", func(c *events.ContractSnapshot) string { return c.CostCenter }},
}

func formatValue(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// HandleContractEvent satisfies the event dispatcher's contract handler.
func (r *Recorder) HandleContractEvent(ctx context.Context, kind events.Kind, before, after *events.ContractSnapshot) error {
	switch kind {
	case events.KindContractCreated:
		if after == nil {
			return nil
		}
		return r.recordCreation(ctx, after)
	case events.KindContractUpdated:
		if before == nil || after == nil {
			return nil
		}
		return r.recordUpdate(ctx, before, after)
	default:
		return nil
	}
}

func (r *Recorder) recordCreation(ctx context.Context, after *events.ContractSnapshot) error {
	entry := contracts.AuditEntry{
		ID:         uuid.NewString(),
		ContractID: after.ID,
		Action:     ActionCreated,
		Details:    fmt.Sprintf("Contrato %q criado com status %q", after.Title, after.Status),
		Actor:      actorOf(after),
	}
	return r.append(ctx, []contracts.AuditEntry{entry})
}

func (r *Recorder) recordUpdate(ctx context.Context, before, after *events.ContractSnapshot) error {
	var batch []contracts.AuditEntry
	actor := actorOf(after)
	for _, field := range trackedFields {
		oldValue, newValue := field.value(before), field.value(after)
		if oldValue == newValue {
			continue
		}
		batch = append(batch, contracts.AuditEntry{
			ID:         uuid.NewString(),
			ContractID: after.ID,
			Action:     field.label,
			Details:    fmt.Sprintf("%s -> %s", orNA(oldValue), orNA(newValue)),
			Actor:      actor,
		})
	}
	if len(batch) == 0 {
		return nil
	}
	return r.append(ctx, batch)
}

func (r *Recorder) append(ctx context.Context, batch []contracts.AuditEntry) error {
	if err := r.store.AppendAuditEntries(ctx, batch); err != nil {
		return fmt.Errorf("append audit batch: %w", err)
	}
	if r.metrics != nil {
		r.metrics.AuditEntriesWritten.Add(float64(len(batch)))
	}
	r.logger.DebugContext(ctx, "audit entries written", "contract_id", batch[0].ContractID, "count", len(batch))
	return nil
}

func orNA(value string) string {
	if value == "" {
		return notAvailable
	}
	return value
}

// actorOf resolves the identity to blame for a change: last modifier, then
// creator, then the literal "System".
func actorOf(c *events.ContractSnapshot) string {
	if c.UpdatedBy != "" {
		return c.UpdatedBy
	}
	if c.CreatedBy != "" {
		return c.CreatedBy
	}
	return "System"
}
