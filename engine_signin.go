package originauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/originauth/originauth/identity"
)

// SignIn resolves a verified assertion to its canonical user and issues a
// session token. The assertion must already be verified by the caller:
// password checking and provider token exchange happen outside the engine.
//
// Exactly one user results from any assertion, created on first contact and
// linked across origins per the configured policy.
func (e *Engine) SignIn(ctx context.Context, a Assertion) (*SignInResult, error) {
	if e == nil || e.codec == nil || e.resolver == nil {
		return nil, ErrEngineNotReady
	}

	user, outcome, err := e.resolver.Resolve(ctx, a)
	if err != nil {
		if errors.Is(err, ErrIdentityConflict) {
			e.metricInc(MetricSignInConflict)
		} else {
			e.metricInc(MetricSignInFailure)
		}
		e.emitAudit(ctx, AuditEventSignIn, false, "", a.Origin.String(), "", err, nil)
		return nil, err
	}

	switch outcome {
	case identity.ResolvedCreated:
		e.metricInc(MetricUserCreated)
		e.emitAudit(ctx, AuditEventUserCreated, true, user.UserID, a.Origin.String(), "", nil, nil)
	case identity.ResolvedLinked:
		e.metricInc(MetricOriginLinked)
		e.emitAudit(ctx, AuditEventOriginLinked, true, user.UserID, a.Origin.String(), "", nil, nil)
	}

	token, tokenID, expiresAt, err := e.issueToken(ctx, user, a.Origin)
	if err != nil {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, AuditEventSignIn, false, user.UserID, a.Origin.String(), "", err, nil)
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, AuditEventSignIn, true, user.UserID, a.Origin.String(), tokenID, nil, nil)

	return &SignInResult{
		UserID:    user.UserID,
		Email:     user.Email,
		Role:      user.Role,
		IsNewUser: outcome == identity.ResolvedCreated,
		Token:     token,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}, nil
}

// IssueToken mints a fresh session token for an existing user without
// re-running identity resolution. The origin selects which origin-scoped
// claims the token carries and must already be linked to the user.
func (e *Engine) IssueToken(ctx context.Context, userID string, origin Origin) (*SignInResult, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	if !origin.Valid() {
		return nil, fmt.Errorf("%w: unknown origin", ErrInvalidAssertion)
	}

	user, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Linked(origin) {
		return nil, fmt.Errorf("%w: origin %s not linked to user %s", ErrInvalidAssertion, origin, userID)
	}

	token, tokenID, expiresAt, err := e.issueToken(ctx, user, origin)
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		UserID:    user.UserID,
		Email:     user.Email,
		Role:      user.Role,
		Token:     token,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}, nil
}

func (e *Engine) issueToken(ctx context.Context, user *User, origin Origin) (token, tokenID string, expiresAt time.Time, err error) {
	tokenID = uuid.NewString()
	now := e.now()

	claims, err := e.buildClaimSet(user, origin, tokenID, now)
	if err != nil {
		return "", "", time.Time{}, err
	}

	token, err = e.codec.Sign(claims)
	if err != nil {
		return "", "", time.Time{}, err
	}

	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, AuditEventTokenIssued, true, user.UserID, origin.String(), tokenID, nil, nil)

	return token, tokenID, claims.ExpiresAt.Time, nil
}
