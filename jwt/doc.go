// Package jwt signs and verifies the session-token wire format: standard
// compact JWT serialization so any conforming client can consume it.
//
// The codec pins the configured signing algorithm on both paths. A token
// declaring any other algorithm is rejected as malformed before signature
// comparison, which closes the algorithm-confusion class of attacks.
// Ed25519 with a kid-addressed verify-key set supports key rotation and
// distributed verification; HS256 is available for single-service
// deployments and is a configuration choice, never a fallback.
package jwt
