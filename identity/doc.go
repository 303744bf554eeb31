// Package identity owns the canonical user model and the origin-resolution
// algorithm that maps verified provider assertions onto exactly one user
// record per person.
//
// # Resolution order
//
// Delegated origins resolve by (origin, external id) first, then by email
// under the configured linking policy, and only then create. Creation races
// are resolved by the store's uniqueness constraints plus a single re-read
// retry, never by in-process locking, so resolution stays correct across
// processes.
//
// # Architecture boundaries
//
// This package owns [User], [Assertion], [Origin], the [CredentialStore]
// contract, and the [Resolver]. It does NOT sign tokens, evaluate
// revocation, or talk to identity providers — providers hand in already
// verified assertions.
//
// # What this package must NOT do
//
//   - Import originauth, jwt, or revocation (no upward imports).
//   - Forward arbitrary provider profile fields; ingest is whitelist-only.
//   - Hash or verify passwords.
package identity
