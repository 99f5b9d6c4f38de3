package roles

import "context"

// Store persists role records plus the singleton bootstrap flag.
// Implementations return sentinel errors.
type Store interface {
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, uid string) (*Record, error)
	Put(ctx context.Context, record Record) error

	// SetBootstrapComplete marks the one-shot flag recording that the first
	// identity has been elevated.
	SetBootstrapComplete(ctx context.Context) error
	BootstrapComplete(ctx context.Context) (bool, error)
}
