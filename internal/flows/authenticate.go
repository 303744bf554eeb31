package flows

import (
	"context"
	"errors"
	"time"

	"github.com/originauth/originauth/identity"
	"github.com/originauth/originauth/jwt"
)

// AuthenticateFailure classifies pipeline failures for root-level mapping.
// Every non-None value except FailureUnavailable is a terminal
// authentication failure; FailureUnavailable means "could not determine
// credential validity" and must never be reported as unauthenticated.
type AuthenticateFailure int

const (
	FailureNone AuthenticateFailure = iota
	FailureMalformed
	FailureBadSignature
	FailureExpired
	FailureNotYetValid
	FailureRevoked
	FailureUserNotFound
	FailureUnavailable
)

// AuthenticateResult carries either the verified claims and user or a
// classified failure.
type AuthenticateResult struct {
	Failure AuthenticateFailure
	Err     error
	Claims  *jwt.ClaimSet
	User    *identity.User
}

// AuthenticateDeps captures the verification pipeline's collaborators.
type AuthenticateDeps struct {
	Verify    func(token string, now time.Time) (*jwt.ClaimSet, error)
	IsRevoked func(ctx context.Context, userID, tokenID string, tokenVersion uint32) (bool, error)
	FindUser  func(ctx context.Context, userID string) (*identity.User, error)
}

// RunAuthenticate executes the pipeline state machine:
//
//	verify signature+expiry → check revocation → load user → authenticated
//
// Each step is terminal on failure. Revocation is evaluated before the user
// load so a revoked token for a since-deleted user still reports revoked.
func RunAuthenticate(ctx context.Context, rawToken string, now time.Time, deps AuthenticateDeps) AuthenticateResult {
	claims, err := deps.Verify(rawToken, now)
	if err != nil {
		return AuthenticateResult{Failure: classifyTokenFailure(err), Err: err}
	}

	revoked, err := deps.IsRevoked(ctx, claims.UserID, claims.TokenID(), claims.TokenVersion)
	if err != nil {
		// The version check reads the user record, so a deleted user can
		// surface here before the explicit load below.
		if errors.Is(err, identity.ErrUserNotFound) {
			return AuthenticateResult{Failure: FailureUserNotFound, Claims: claims, Err: err}
		}
		return AuthenticateResult{Failure: FailureUnavailable, Err: err}
	}
	if revoked {
		return AuthenticateResult{Failure: FailureRevoked, Claims: claims}
	}

	user, err := deps.FindUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return AuthenticateResult{Failure: FailureUserNotFound, Claims: claims, Err: err}
		}
		return AuthenticateResult{Failure: FailureUnavailable, Err: err}
	}

	return AuthenticateResult{Claims: claims, User: user}
}

func classifyTokenFailure(err error) AuthenticateFailure {
	switch {
	case errors.Is(err, jwt.ErrBadSignature):
		return FailureBadSignature
	case errors.Is(err, jwt.ErrExpired):
		return FailureExpired
	case errors.Is(err, jwt.ErrNotYetValid):
		return FailureNotYetValid
	default:
		// Structural problems, algorithm confusion, issuer/audience
		// mismatches: all malformed for the caller's purposes.
		return FailureMalformed
	}
}
