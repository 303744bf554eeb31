package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// LinkPolicy controls whether a delegated assertion whose email matches an
// existing user is linked onto that user or rejected.
type LinkPolicy uint8

const (
	// LinkByEmail links a new origin onto the existing user that owns the
	// assertion's email.
	LinkByEmail LinkPolicy = iota
	// LinkNever rejects email matches across origins with
	// [ErrIdentityConflict]; linking becomes an explicit manual flow.
	LinkNever
)

// Valid reports whether p is a known policy.
func (p LinkPolicy) Valid() bool {
	return p == LinkByEmail || p == LinkNever
}

// Resolver turns verified assertions into canonical users, creating or
// linking accounts as needed. It holds no per-request state and is safe for
// concurrent use.
type Resolver struct {
	store       CredentialStore
	policy      LinkPolicy
	defaultRole string
	newUserID   func() string
}

// NewResolver builds a resolver over the given store. defaultRole is
// assigned to users created on first sign-in.
func NewResolver(store CredentialStore, policy LinkPolicy, defaultRole string) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("credential store required")
	}
	if !policy.Valid() {
		return nil, errors.New("invalid link policy")
	}
	if defaultRole == "" {
		defaultRole = "user"
	}
	return &Resolver{
		store:       store,
		policy:      policy,
		defaultRole: defaultRole,
		newUserID:   uuid.NewString,
	}, nil
}

// ResolveOutcome reports which path Resolve took for an assertion.
type ResolveOutcome uint8

const (
	// ResolvedExisting means the assertion matched an already-linked user.
	ResolvedExisting ResolveOutcome = iota
	// ResolvedCreated means a new user record was created.
	ResolvedCreated
	// ResolvedLinked means a new origin was linked onto an existing user.
	ResolvedLinked
)

// Resolve maps the assertion to exactly one user, reporting whether that
// user was created or gained a newly linked origin by this call.
//
// The create path retries once when the store signals a uniqueness
// violation: a concurrent first-time sign-in for the same identity has
// already created the record, so the retry re-reads and proceeds as the
// returning-user case.
func (r *Resolver) Resolve(ctx context.Context, a Assertion) (*User, ResolveOutcome, error) {
	if err := validateAssertion(a); err != nil {
		return nil, ResolvedExisting, err
	}

	user, outcome, err := r.resolveOnce(ctx, a)
	if errors.Is(err, ErrDuplicateIdentity) {
		user, outcome, err = r.resolveOnce(ctx, a)
		if errors.Is(err, ErrDuplicateIdentity) {
			// Two consecutive violations with no readable record means the
			// store is inconsistent; report it as transient rather than
			// guessing.
			return nil, ResolvedExisting, fmt.Errorf("%w: create retry failed: %v", ErrStoreUnavailable, err)
		}
	}
	return user, outcome, err
}

func (r *Resolver) resolveOnce(ctx context.Context, a Assertion) (*User, ResolveOutcome, error) {
	if a.Origin == OriginLocal {
		return r.resolveLocal(ctx, a)
	}
	return r.resolveDelegated(ctx, a)
}

// resolveLocal handles assertions whose credentials were already checked by
// the external credential-verification collaborator. Email is the lookup
// key; a miss means first local sign-up.
func (r *Resolver) resolveLocal(ctx context.Context, a Assertion) (*User, ResolveOutcome, error) {
	user, err := r.store.FindByEmail(ctx, a.Email)
	switch {
	case err == nil:
		if !user.Linked(OriginLocal) {
			if r.policy == LinkNever {
				return nil, ResolvedExisting, fmt.Errorf("%w: email %q belongs to user %s and linking is disabled",
					ErrIdentityConflict, a.Email, user.UserID)
			}
			return r.linkOrigin(ctx, user, a)
		}
		return r.refreshProfile(ctx, user, a)
	case errors.Is(err, ErrUserNotFound):
		return r.create(ctx, a)
	default:
		return nil, ResolvedExisting, err
	}
}

func (r *Resolver) resolveDelegated(ctx context.Context, a Assertion) (*User, ResolveOutcome, error) {
	// (origin, external id) is the primary key for a delegated origin.
	// Looking it up before email makes returning users immune to email
	// changes at the provider.
	user, err := r.store.FindByOriginID(ctx, a.Origin, a.ExternalID)
	switch {
	case err == nil:
		return r.refreshProfile(ctx, user, a)
	case errors.Is(err, ErrUserNotFound):
	default:
		return nil, ResolvedExisting, err
	}

	user, err = r.store.FindByEmail(ctx, a.Email)
	switch {
	case err == nil:
		if user.Linked(a.Origin) {
			// Same origin, different external id, same email: two provider
			// accounts claiming one user. Never merge implicitly.
			return nil, ResolvedExisting, fmt.Errorf("%w: %s identity %q already linked to user %s",
				ErrIdentityConflict, a.Origin, a.ExternalID, user.UserID)
		}
		if r.policy == LinkNever {
			return nil, ResolvedExisting, fmt.Errorf("%w: email %q belongs to user %s and linking is disabled",
				ErrIdentityConflict, a.Email, user.UserID)
		}
		return r.linkOrigin(ctx, user, a)
	case errors.Is(err, ErrUserNotFound):
		return r.create(ctx, a)
	default:
		return nil, ResolvedExisting, err
	}
}

// linkOrigin attaches the assertion's origin onto an existing user: one
// person, one user, many linked origins.
func (r *Resolver) linkOrigin(ctx context.Context, user *User, a Assertion) (*User, ResolveOutcome, error) {
	updated, err := r.store.Update(ctx, user.UserID, UserPatch{
		Origins: map[Origin]OriginProfile{a.Origin: profileFromAssertion(a)},
	})
	if err != nil {
		return nil, ResolvedExisting, err
	}
	return updated, ResolvedLinked, nil
}

// refreshProfile re-ingests mutable profile fields for a returning user.
// Role, permissions, and token version are deliberately untouched.
func (r *Resolver) refreshProfile(ctx context.Context, user *User, a Assertion) (*User, ResolveOutcome, error) {
	incoming := profileFromAssertion(a)
	if current, ok := user.LinkedOrigins[a.Origin]; ok && profileEqual(current, incoming) {
		return user, ResolvedExisting, nil
	}
	updated, err := r.store.Update(ctx, user.UserID, UserPatch{
		Origins: map[Origin]OriginProfile{a.Origin: incoming},
	})
	if err != nil {
		return nil, ResolvedExisting, err
	}
	return updated, ResolvedExisting, nil
}

func (r *Resolver) create(ctx context.Context, a Assertion) (*User, ResolveOutcome, error) {
	user := &User{
		UserID:       r.newUserID(),
		Email:        a.Email,
		Role:         r.defaultRole,
		Permissions:  []string{},
		TokenVersion: 0,
		LinkedOrigins: map[Origin]OriginProfile{
			a.Origin: profileFromAssertion(a),
		},
	}
	created, err := r.store.Create(ctx, user)
	if err != nil {
		return nil, ResolvedExisting, err
	}
	return created, ResolvedCreated, nil
}

func validateAssertion(a Assertion) error {
	if !a.Origin.Valid() {
		return fmt.Errorf("%w: unknown origin", ErrInvalidAssertion)
	}
	if a.Email == "" {
		return fmt.Errorf("%w: email required", ErrInvalidAssertion)
	}
	if a.Origin.Delegated() && a.ExternalID == "" {
		return fmt.Errorf("%w: external id required for %s", ErrInvalidAssertion, a.Origin)
	}
	return nil
}

func profileEqual(a, b OriginProfile) bool {
	if a.ExternalID != b.ExternalID || a.DisplayName != b.DisplayName || a.Picture != b.Picture {
		return false
	}
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for k, v := range a.Fields {
		if b.Fields[k] != v {
			return false
		}
	}
	return true
}
