package identity

import "time"

// User is an identity-provider record: the credential side of an account.
// Authorization data lives in the role store, keyed by the same UID.
type User struct {
	UID          string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
