// Package revocation decides whether an otherwise-valid token has been
// invalidated before its natural expiry.
//
// Two independent mechanisms are checked and either one flags the token:
//
//   - A Redis blacklist keyed by token id. Entries carry a TTL equal to the
//     token's remaining lifetime at revocation time, so the blacklist
//     self-prunes and never accumulates expired tokens. O(1) per revoked
//     token, unbounded entry count.
//   - A token-version comparison against a live credential-store read.
//     Incrementing one counter revokes every outstanding token for a user in
//     O(1), at the cost of one store read per verification.
//
// The redundancy is deliberate: the blacklist serves single-token logout,
// the version bump serves "log out everywhere". Collapsing to one mechanism
// is a product decision, not a cleanup.
//
// # What this package must NOT do
//
//   - Cache user records; the version check requires a fresh read.
//   - Parse or validate tokens; it consumes already-verified claims.
package revocation
