package identity

import "context"

// UserStore persists identity-provider records. Implementations return
// sentinel errors; the service translates them into domain errors.
type UserStore interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUID(ctx context.Context, uid string) (*User, error)
}
