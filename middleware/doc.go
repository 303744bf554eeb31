// Package middleware exposes HTTP middleware adapters for token
// authentication built on top of originauth.Engine.
//
// # Guards
//
//   - [Guard] — full verification pipeline including revocation checks.
//   - [RequireRole] — Guard plus a role requirement.
//
// Each guard reads the Authorization header, calls Engine.Authenticate, and
// injects the verified principal into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Authenticate.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access Redis or the credential store (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the principal.
package middleware
