// Package sqlite provides a durable CredentialStore on modernc.org/sqlite
// (cgo-free). UNIQUE constraints on (origin, external_id) and users.email
// are the serialization point for concurrent first-time sign-ins: the
// losing writer gets a constraint violation, surfaced as
// [identity.ErrDuplicateIdentity], and the resolver re-reads.
package sqlite
