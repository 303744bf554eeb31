package originauth

import (
	"errors"

	"github.com/originauth/originauth/identity"
	"github.com/originauth/originauth/jwt"
	"github.com/originauth/originauth/revocation"
)

// The error taxonomy is programmatically distinguishable end to end:
// downstream HTTP-status mapping depends on telling unauthenticated apart
// from conflict and from infrastructure failure, so every kind is a
// sentinel usable with errors.Is. Errors returned by
// [Engine.Authenticate] additionally wrap [ErrUnauthenticated] unless they
// are transient.
var (
	// ErrInvalidAssertion is returned when an assertion is missing required
	// fields for its origin.
	ErrInvalidAssertion = identity.ErrInvalidAssertion
	// ErrIdentityConflict is returned when an assertion's email matches an
	// existing user that the linking policy forbids merging into. It is
	// never auto-resolved; surfacing it starts the manual linking flow.
	ErrIdentityConflict = identity.ErrIdentityConflict
	// ErrDuplicateIdentity is the store-level uniqueness-violation signal.
	ErrDuplicateIdentity = identity.ErrDuplicateIdentity
	// ErrUserNotFound is returned when a lookup matches no user.
	ErrUserNotFound = identity.ErrUserNotFound

	// ErrMalformedToken covers structurally invalid tokens and algorithm
	// confusion.
	ErrMalformedToken = jwt.ErrMalformed
	// ErrBadSignature is returned when the token signature does not verify.
	ErrBadSignature = jwt.ErrBadSignature
	// ErrTokenExpired is returned when now >= expiresAt.
	ErrTokenExpired = jwt.ErrExpired
	// ErrTokenNotYetValid is returned for issued-in-future tokens.
	ErrTokenNotYetValid = jwt.ErrNotYetValid

	// ErrRevoked is returned for tokens invalidated before natural expiry.
	ErrRevoked = errors.New("token revoked")
	// ErrUnauthenticated is the umbrella matched by every terminal
	// authentication failure from the verification pipeline.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStoreUnavailable marks transient collaborator failures. It never
	// wraps ErrUnauthenticated: callers retry per their own policy instead
	// of treating infrastructure failure as an invalid credential.
	ErrStoreUnavailable = identity.ErrStoreUnavailable
	// ErrRevocationUnavailable marks transient blacklist failures.
	ErrRevocationUnavailable = revocation.ErrRedisUnavailable

	// ErrEngineNotReady is returned by Engine methods on a nil or
	// incompletely built engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrBlacklistDisabled is returned by single-token revocation when the
	// engine was built without the blacklist mechanism.
	ErrBlacklistDisabled = errors.New("token blacklist disabled")
	// ErrVersionCheckDisabled is returned by mass revocation when the
	// engine was built without the token-version mechanism.
	ErrVersionCheckDisabled = errors.New("token version check disabled")
)
