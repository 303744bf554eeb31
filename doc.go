// Package originauth unifies password-based local login and delegated
// identity providers behind a single session-token contract: any verified
// assertion resolves to one canonical user, is issued a signed stateless
// token, and every protected request verifies that token, detects
// revocation, and resolves it back to a principal.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// originauth is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Principal, SignInResult, MetricsSnapshot,
// etc.). Coordination lives under internal/; the identity model, token
// codec, and revocation checks live in the identity, jwt, and revocation
// subpackages.
//
// External collaborators stay external: provider network exchange, password
// hashing, HTTP routing, and the durable store engine are consumed through
// interfaces ([CredentialStore], [Assertion] producers) and never
// implemented here.
//
// # What this package must NOT do
//
//   - Expose Redis clients or store internals in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Hold an in-process user cache; revocation's version check requires a
//     fresh store read.
package originauth
