package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fbn1986/gerenciador-de-contratos/internal/events"
	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
)

// Dispatcher maps a contract's status to a fixed recipient and sends a
// formatted message. It fires on every creation and on updates whose status
// actually changed; everything about it is best-effort and decoupled from the
// write that triggered it.
type Dispatcher struct {
	recipients map[string]string
	mailer     Mailer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewDispatcher(recipients map[string]string, mailer Mailer, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{recipients: recipients, mailer: mailer, logger: logger, metrics: m}
}

// HandleContractEvent satisfies the event dispatcher's contract handler. It
// always returns nil: delivery failure is logged, never retried, never
// surfaced to the triggering write.
func (d *Dispatcher) HandleContractEvent(ctx context.Context, kind events.Kind, before, after *events.ContractSnapshot) error {
	if after == nil {
		return nil
	}

	previousStatus := ""
	if kind == events.KindContractUpdated {
		if before == nil || before.Status == after.Status {
			// Pure status-change edge trigger: updates that keep the status
			// produce no mail.
			return nil
		}
		previousStatus = before.Status
	}

	recipient, ok := d.recipients[after.Status]
	if !ok {
		d.logger.InfoContext(ctx, "no recipient mapped for status, skipping notification",
			"contract_id", after.ID, "status", after.Status)
		return nil
	}

	msg := buildMessage(recipient, previousStatus, after)
	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logger.ErrorContext(ctx, "notification delivery failed",
			"contract_id", after.ID, "recipient", recipient, "error", err)
		if d.metrics != nil {
			d.metrics.NotificationFailures.Inc()
		}
		return nil
	}

	if d.metrics != nil {
		d.metrics.NotificationsSent.Inc()
	}
	d.logger.InfoContext(ctx, "notification sent",
		"contract_id", after.ID, "status", after.Status, "recipient", recipient)
	return nil
}

func buildMessage(recipient, previousStatus string, after *events.ContractSnapshot) Message {
	actor := after.UpdatedBy
	if actor == "" {
		actor = after.CreatedBy
	}
	if actor == "" {
		actor = "System"
	}

	var body string
	if previousStatus == "" {
		body = fmt.Sprintf(
			"<p>O contrato <b>%s</b> foi registrado com o status <b>%s</b>.</p><p>Responsável: %s</p>",
			after.Title, after.Status, actor,
		)
	} else {
		body = fmt.Sprintf(
			"<p>O contrato <b>%s</b> mudou de <b>%s</b> para <b>%s</b>.</p><p>Alterado por: %s</p>",
			after.Title, previousStatus, after.Status, actor,
		)
	}

	return Message{
		To:       recipient,
		Subject:  fmt.Sprintf("Contrato %s: %s", after.Title, after.Status),
		HTMLBody: body,
	}
}
