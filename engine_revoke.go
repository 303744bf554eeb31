package originauth

import (
	"context"
	"errors"
	"time"
)

// RevokeToken invalidates a single session token before its natural expiry
// by blacklisting its token id for the remainder of its lifetime. An
// already-expired token is a successful no-op.
//
// The raw token must verify: revocation accepts the same credentials that
// authentication would, so a forged token cannot be used to probe the
// blacklist.
func (e *Engine) RevokeToken(ctx context.Context, rawToken string) error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}
	if e.blacklist == nil {
		return ErrBlacklistDisabled
	}

	now := e.now()
	claims, err := e.codec.Verify(rawToken, now)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}

	return e.revokeTokenID(ctx, claims.UserID, claims.TokenID(), e.codec.Remaining(claims, now))
}

// RevokeTokenID blacklists a known token id for the given remaining
// lifetime. Callers that tracked the id and expiry from [SignInResult] use
// this to revoke without holding the raw token.
func (e *Engine) RevokeTokenID(ctx context.Context, tokenID string, remaining time.Duration) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.blacklist == nil {
		return ErrBlacklistDisabled
	}
	return e.revokeTokenID(ctx, "", tokenID, remaining)
}

func (e *Engine) revokeTokenID(ctx context.Context, userID, tokenID string, remaining time.Duration) error {
	if err := e.blacklist.Revoke(ctx, tokenID, remaining); err != nil {
		e.emitAudit(ctx, AuditEventTokenRevoked, false, userID, "", tokenID, err, nil)
		return err
	}

	e.metricInc(MetricTokenRevoked)
	e.emitAudit(ctx, AuditEventTokenRevoked, true, userID, "", tokenID, nil, nil)
	return nil
}

// RevokeAllForUser invalidates every outstanding token for the user by
// bumping their token version; tokens minted before the bump fail the
// version check on their next use. Returns the new version.
//
// Outstanding tokens stay live until their next authenticated request; a
// deployment needing instant cutoff pairs this with per-token blacklisting.
func (e *Engine) RevokeAllForUser(ctx context.Context, userID string) (uint32, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	if !e.config.Revocation.EnableVersionCheck {
		return 0, ErrVersionCheckDisabled
	}

	version, err := e.store.IncrementTokenVersion(ctx, userID)
	if err != nil {
		e.emitAudit(ctx, AuditEventRevokeAll, false, userID, "", "", err, nil)
		return 0, err
	}

	e.metricInc(MetricRevokeAll)
	e.emitAudit(ctx, AuditEventRevokeAll, true, userID, "", "", nil, nil)
	return version, nil
}
