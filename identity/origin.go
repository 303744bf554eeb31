package identity

import "fmt"

// Origin identifies the authentication method that produced an assertion.
// It is a closed set: adding a provider means adding a constant, a name,
// and a profile whitelist entry, all of which are exhaustive-checked in
// tests.
type Origin uint8

const (
	// OriginLocal is password-based login against the local credential
	// collaborator.
	OriginLocal Origin = iota
	// OriginGoogle is delegated identity from Google.
	OriginGoogle
	// OriginGitHub is delegated identity from GitHub.
	OriginGitHub

	originCount
)

var originNames = [originCount]string{
	OriginLocal:  "local",
	OriginGoogle: "google",
	OriginGitHub: "github",
}

// String returns the stable wire name of the origin. The name is embedded in
// tokens and persisted by stores; it must never change for an existing
// constant.
func (o Origin) String() string {
	if int(o) >= len(originNames) {
		return fmt.Sprintf("origin(%d)", uint8(o))
	}
	return originNames[o]
}

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o < originCount
}

// Delegated reports whether o is a third-party identity provider.
func (o Origin) Delegated() bool {
	return o.Valid() && o != OriginLocal
}

// ParseOrigin maps a stable wire name back to its [Origin].
func ParseOrigin(name string) (Origin, error) {
	for i, n := range originNames {
		if n == name {
			return Origin(i), nil
		}
	}
	return 0, fmt.Errorf("unknown origin %q", name)
}

// originExtraFields is the closed per-origin set of profile keys that may be
// carried in OriginProfile.Fields beyond the fixed struct fields. Assertion
// profile keys outside this set are dropped during ingest.
var originExtraFields = map[Origin][]string{
	OriginGitHub: {"login"},
}
