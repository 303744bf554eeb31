package identity

import (
	"context"
	"errors"
)

var (
	// ErrUserNotFound is returned by store lookups with no matching record.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateIdentity is the uniqueness-violation signal for
	// (origin, external id) or email. The resolver treats it as "somebody
	// else won the create race" and re-reads.
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrStoreUnavailable marks transient store I/O failures. Callers must
	// be able to distinguish it from a definitive not-found.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrInvalidAssertion is returned when an assertion is missing required
	// fields for its origin.
	ErrInvalidAssertion = errors.New("invalid assertion")
	// ErrIdentityConflict is returned when an assertion's email matches an
	// existing user that the linking policy forbids merging into.
	ErrIdentityConflict = errors.New("identity conflict")
)

// CredentialStore is the durable record of users. Implementations must
// enforce uniqueness of (origin, external id) and of non-empty email at the
// storage layer, returning [ErrDuplicateIdentity] on violation: the
// resolver's create-or-link step relies on that constraint, not on
// in-process locks, to serialize concurrent first-time sign-ins.
//
// All methods honor ctx cancellation and deadlines. Transient failures are
// reported wrapping [ErrStoreUnavailable].
type CredentialStore interface {
	FindByOriginID(ctx context.Context, origin Origin, externalID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, userID string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, userID string, patch UserPatch) (*User, error)

	// IncrementTokenVersion atomically bumps the user's token version and
	// returns the new value. Every outstanding token carrying the old
	// version becomes revoked.
	IncrementTokenVersion(ctx context.Context, userID string) (uint32, error)
}
