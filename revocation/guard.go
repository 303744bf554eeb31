package revocation

import (
	"context"
	"errors"
)

// VersionSource reads the current token version for a user. The read must
// hit the authoritative store; an in-process cache would silently disable
// mass revocation.
type VersionSource interface {
	TokenVersion(ctx context.Context, userID string) (uint32, error)
}

// Guard combines the blacklist and version checks. Both are consulted; a
// token is revoked if either flags it.
type Guard struct {
	blacklist *Blacklist
	versions  VersionSource

	useBlacklist bool
	useVersion   bool
}

// NewGuard wires the configured mechanisms. Disabling both is rejected:
// a guard that can never revoke is a configuration error, not a mode.
func NewGuard(blacklist *Blacklist, versions VersionSource, useBlacklist, useVersion bool) (*Guard, error) {
	if useBlacklist && blacklist == nil {
		return nil, errors.New("blacklist check enabled without blacklist store")
	}
	if useVersion && versions == nil {
		return nil, errors.New("version check enabled without version source")
	}
	if !useBlacklist && !useVersion {
		return nil, errors.New("at least one revocation mechanism must be enabled")
	}
	return &Guard{
		blacklist:    blacklist,
		versions:     versions,
		useBlacklist: useBlacklist,
		useVersion:   useVersion,
	}, nil
}

// Reason reports which mechanism flagged a token.
type Reason uint8

const (
	// ReasonNone means the token is not revoked.
	ReasonNone Reason = iota
	// ReasonBlacklist means the token id is on the explicit blacklist.
	ReasonBlacklist
	// ReasonVersion means the token's version lags the user's current one.
	ReasonVersion
)

// Check evaluates both mechanisms for the given claims material. Errors are
// transient-infrastructure failures and never mean "revoked"; the caller
// decides retry policy.
func (g *Guard) Check(ctx context.Context, userID, tokenID string, tokenVersion uint32) (Reason, error) {
	if g.useBlacklist {
		listed, err := g.blacklist.Contains(ctx, tokenID)
		if err != nil {
			return ReasonNone, err
		}
		if listed {
			return ReasonBlacklist, nil
		}
	}
	if g.useVersion {
		current, err := g.versions.TokenVersion(ctx, userID)
		if err != nil {
			return ReasonNone, err
		}
		if tokenVersion != current {
			return ReasonVersion, nil
		}
	}
	return ReasonNone, nil
}

// IsRevoked is Check collapsed to a boolean.
func (g *Guard) IsRevoked(ctx context.Context, userID, tokenID string, tokenVersion uint32) (bool, error) {
	reason, err := g.Check(ctx, userID, tokenID, tokenVersion)
	return reason != ReasonNone, err
}
