package originauth

import (
	"context"
	"fmt"
	"time"

	"github.com/originauth/originauth/internal/flows"
	"github.com/originauth/originauth/jwt"
	"github.com/originauth/originauth/revocation"
)

// Authenticate runs the full verification pipeline on a raw session token:
// signature and lifetime checks, revocation detection, and a fresh user
// load. On success it returns the request-scoped principal.
//
// Every terminal failure wraps [ErrUnauthenticated] plus a specific
// sentinel ([ErrTokenExpired], [ErrRevoked], ...). Transient failures
// ([ErrStoreUnavailable], [ErrRevocationUnavailable]) do not: the engine
// could not determine credential validity and says so.
func (e *Engine) Authenticate(ctx context.Context, rawToken string) (*Principal, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	return e.AuthenticateAt(ctx, rawToken, e.now())
}

// AuthenticateAt is Authenticate with an explicit evaluation time. Lifetime
// checks treat now >= expiresAt as expired.
func (e *Engine) AuthenticateAt(ctx context.Context, rawToken string, now time.Time) (*Principal, error) {
	if e == nil || e.codec == nil || e.guard == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.config.Metrics.EnableLatencyHistograms {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	res := flows.RunAuthenticate(ctx, rawToken, now, flows.AuthenticateDeps{
		Verify: e.codec.Verify,
		IsRevoked: func(ctx context.Context, userID, tokenID string, tokenVersion uint32) (bool, error) {
			reason, err := e.guard.Check(ctx, userID, tokenID, tokenVersion)
			switch reason {
			case revocation.ReasonBlacklist:
				e.metricInc(MetricBlacklistHit)
			case revocation.ReasonVersion:
				e.metricInc(MetricVersionMismatch)
			}
			return reason != revocation.ReasonNone, err
		},
		FindUser: e.store.FindByID,
	})

	if res.Failure != flows.FailureNone {
		return nil, e.authenticateFailed(ctx, res)
	}

	origin, err := ParseOrigin(res.Claims.Origin)
	if err != nil {
		e.metricInc(MetricAuthMalformed)
		e.emitAudit(ctx, AuditEventAuthenticate, false, res.Claims.UserID, res.Claims.Origin, res.Claims.TokenID(),
			ErrMalformedToken, nil)
		return nil, fmt.Errorf("%w: %w: unknown origin claim", ErrUnauthenticated, ErrMalformedToken)
	}

	e.metricInc(MetricAuthSuccess)
	e.emitAudit(ctx, AuditEventAuthenticate, true, res.User.UserID, res.Claims.Origin, res.Claims.TokenID(), nil, nil)

	return &Principal{
		UserID:      res.User.UserID,
		Email:       res.User.Email,
		Role:        res.User.Role,
		Permissions: res.User.Permissions,
		Origin:      origin,
	}, nil
}

// VerifyToken decodes and verifies a token without the revocation or user
// checks. It exists for offline verifiers that only hold the public key;
// request authentication goes through Authenticate.
func (e *Engine) VerifyToken(rawToken string) (*jwt.ClaimSet, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	return e.codec.Verify(rawToken, e.now())
}

func (e *Engine) authenticateFailed(ctx context.Context, res flows.AuthenticateResult) error {
	var (
		metric MetricID
		cause  error
	)

	switch res.Failure {
	case flows.FailureMalformed:
		metric, cause = MetricAuthMalformed, res.Err
	case flows.FailureBadSignature:
		metric, cause = MetricAuthBadSignature, res.Err
	case flows.FailureExpired:
		metric, cause = MetricAuthExpired, res.Err
	case flows.FailureNotYetValid:
		metric, cause = MetricAuthNotYetValid, res.Err
	case flows.FailureRevoked:
		metric, cause = MetricAuthRevoked, ErrRevoked
	case flows.FailureUserNotFound:
		metric, cause = MetricAuthUserNotFound, res.Err
	default:
		// Transient: surface the infrastructure error unwrapped so callers
		// never mistake an outage for an invalid credential.
		e.metricInc(MetricAuthUnavailable)
		e.emitAudit(ctx, AuditEventAuthenticate, false, userIDFromResult(res), "", tokenIDFromResult(res), res.Err, nil)
		return res.Err
	}

	e.metricInc(metric)
	e.emitAudit(ctx, AuditEventAuthenticate, false, userIDFromResult(res), "", tokenIDFromResult(res), cause, nil)
	return fmt.Errorf("%w: %w", ErrUnauthenticated, cause)
}

func userIDFromResult(res flows.AuthenticateResult) string {
	if res.Claims == nil {
		return ""
	}
	return res.Claims.UserID
}

func tokenIDFromResult(res flows.AuthenticateResult) string {
	return res.Claims.TokenID()
}
