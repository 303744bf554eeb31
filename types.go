package originauth

import (
	"io"
	"time"

	"github.com/originauth/originauth/identity"
	internalaudit "github.com/originauth/originauth/internal/audit"
)

// Origin identifies the authentication method that produced an assertion.
type Origin = identity.Origin

const (
	// OriginLocal is password-based login.
	OriginLocal = identity.OriginLocal
	// OriginGoogle is delegated identity from Google.
	OriginGoogle = identity.OriginGoogle
	// OriginGitHub is delegated identity from GitHub.
	OriginGitHub = identity.OriginGitHub
)

// ParseOrigin maps a stable wire name back to its [Origin].
func ParseOrigin(name string) (Origin, error) {
	return identity.ParseOrigin(name)
}

// User is the canonical identity record.
type User = identity.User

// OriginProfile is the bounded per-origin view kept under a linked origin.
type OriginProfile = identity.OriginProfile

// Assertion is a verified claim of identity for one origin.
type Assertion = identity.Assertion

// UserPatch is the partial update shape accepted by [CredentialStore.Update].
type UserPatch = identity.UserPatch

// CredentialStore is the durable record of users. See
// [identity.CredentialStore] for the uniqueness contract implementations
// must honor.
type CredentialStore = identity.CredentialStore

// LinkPolicy controls account linking by email across origins.
type LinkPolicy = identity.LinkPolicy

const (
	// LinkByEmail links a new origin onto the existing user owning the
	// assertion's email.
	LinkByEmail = identity.LinkByEmail
	// LinkNever surfaces cross-origin email matches as [ErrIdentityConflict].
	LinkNever = identity.LinkNever
)

// Principal is the verified, request-scoped identity snapshot produced by
// [Engine.Authenticate]. It is distinct from [User]: a verification-time
// value threaded through call arguments, never written back to the store.
type Principal struct {
	UserID      string
	Email       string
	Role        string
	Permissions []string
	Origin      Origin
}

// SignInResult is returned by [Engine.SignIn].
type SignInResult struct {
	UserID    string
	Email     string
	Role      string
	IsNewUser bool
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// io.Writer.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
