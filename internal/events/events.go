package events

import (
	"context"
	"time"
)

// Kind names a data-change event. The handlers behind the dispatcher react to
// these the way the original triggers reacted to datastore writes.
type Kind string

const (
	KindUserCreated     Kind = "user.created"
	KindContractCreated Kind = "contract.created"
	KindContractUpdated Kind = "contract.updated"
)

// UserPayload describes a newly created identity.
type UserPayload struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// ContractSnapshot is the event-borne view of a contract. It mirrors the
// tracked contract fields; handlers never reach back into the live store for
// the state a write carried.
type ContractSnapshot struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	ContractedParty string  `json:"contracted_party"`
	TotalValue      float64 `json:"total_value"`
	Sector          string  `json:"sector"`
	CostCenter      string  `json:"cost_center"`
	CreatedBy       string  `json:"created_by"`
	UpdatedBy       string  `json:"updated_by"`
}

// Envelope is one event on the wire. Before is nil for creation events.
type Envelope struct {
	Kind       Kind              `json:"kind"`
	OccurredAt time.Time         `json:"occurred_at"`
	User       *UserPayload      `json:"user,omitempty"`
	Before     *ContractSnapshot `json:"before,omitempty"`
	After      *ContractSnapshot `json:"after,omitempty"`
}

// AggregateID keys the event for partitioning: per-user for identity events,
// per-contract otherwise.
func (e Envelope) AggregateID() string {
	if e.User != nil {
		return e.User.UID
	}
	if e.After != nil {
		return e.After.ID
	}
	if e.Before != nil {
		return e.Before.ID
	}
	return ""
}

// Publisher hands an event to the delivery mechanism. Implementations are
// best-effort: the write that produced the event has already succeeded, and
// a failed publish must never undo or block it.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// NopPublisher drops every event. Used where side effects are undesirable.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) error { return nil }
