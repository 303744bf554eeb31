package originauth

import (
	"context"
	"time"

	"github.com/originauth/originauth/identity"
	internalaudit "github.com/originauth/originauth/internal/audit"
	"github.com/originauth/originauth/jwt"
	"github.com/originauth/originauth/revocation"
)

// Engine is the unified sign-in and token lifecycle engine. It is immutable
// after [Builder.Build] and safe for concurrent use.
type Engine struct {
	config    Config
	codec     *jwt.Codec
	resolver  *identity.Resolver
	guard     *revocation.Guard
	blacklist *revocation.Blacklist
	store     CredentialStore
	audit     *auditDispatcher
	metrics   *Metrics
	now       func() time.Time
}

// Close flushes and stops the audit dispatcher. Engine methods called after
// Close still work; only audit delivery stops.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	origin string,
	tokenID string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Origin:    origin,
		TokenID:   tokenID,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}

	e.audit.Emit(ctx, event)
}

// Audit event type names re-exported for sink consumers.
const (
	AuditEventSignIn       = internalaudit.EventSignIn
	AuditEventUserCreated  = internalaudit.EventUserCreated
	AuditEventOriginLinked = internalaudit.EventOriginLinked
	AuditEventTokenIssued  = internalaudit.EventTokenIssued
	AuditEventAuthenticate = internalaudit.EventAuthenticate
	AuditEventTokenRevoked = internalaudit.EventTokenRevoked
	AuditEventRevokeAll    = internalaudit.EventRevokeAll
)

// storeVersionSource adapts the credential store into the revocation guard's
// version check. Reads go straight to the store; caching here would disable
// mass revocation.
type storeVersionSource struct {
	store CredentialStore
}

func (s storeVersionSource) TokenVersion(ctx context.Context, userID string) (uint32, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}
