package events

import (
	"context"
	"log/slog"

	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/metrics"
)

// RoleBootstrapper assigns a role to a freshly created identity.
type RoleBootstrapper interface {
	EnsureInitialRole(ctx context.Context, uid, email string) error
}

// ContractHandler reacts to contract writes. Before is nil on creation.
type ContractHandler interface {
	HandleContractEvent(ctx context.Context, kind Kind, before, after *ContractSnapshot) error
}

// Dispatcher fans one event out to every interested handler. Handler failures
// are logged and counted, never propagated: delivery is at-least-once and
// best-effort, exactly like the datastore triggers this replaces.
type Dispatcher struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	roles    RoleBootstrapper
	handlers []ContractHandler
}

func NewDispatcher(logger *slog.Logger, m *metrics.Metrics, roles RoleBootstrapper, handlers ...ContractHandler) *Dispatcher {
	return &Dispatcher{logger: logger, metrics: m, roles: roles, handlers: handlers}
}

// BindRoles attaches the role bootstrapper after construction. The
// bootstrapper sits behind the identity service, which publishes through the
// bus this dispatcher serves, so it joins once that wiring exists.
func (d *Dispatcher) BindRoles(roles RoleBootstrapper) {
	d.roles = roles
}

// Dispatch routes the envelope. It never returns an error; an event that no
// handler wants is simply dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) {
	switch env.Kind {
	case KindUserCreated:
		if env.User == nil || d.roles == nil {
			return
		}
		if err := d.roles.EnsureInitialRole(ctx, env.User.UID, env.User.Email); err != nil {
			d.fail(ctx, env.Kind, err)
		}
	case KindContractCreated, KindContractUpdated:
		for _, h := range d.handlers {
			if err := h.HandleContractEvent(ctx, env.Kind, env.Before, env.After); err != nil {
				d.fail(ctx, env.Kind, err)
			}
		}
	default:
		d.logger.WarnContext(ctx, "dropping event of unknown kind", "kind", env.Kind)
	}
}

func (d *Dispatcher) fail(ctx context.Context, kind Kind, err error) {
	d.logger.ErrorContext(ctx, "event handler failed", "kind", kind, "error", err)
	if d.metrics != nil {
		d.metrics.EventHandlerFailures.Inc()
	}
}
