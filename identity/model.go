package identity

// OriginProfile is the bounded, origin-scoped view of a user kept under one
// linked origin. Fields carries origin-only extras drawn from the closed
// per-origin whitelist (see originExtraFields); it never holds arbitrary
// provider payload.
type OriginProfile struct {
	ExternalID  string
	DisplayName string
	Picture     string
	Fields      map[string]string
}

// Clone returns a deep copy of the profile.
func (p OriginProfile) Clone() OriginProfile {
	out := p
	if p.Fields != nil {
		out.Fields = make(map[string]string, len(p.Fields))
		for k, v := range p.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// User is the canonical identity record. Exactly one User owns each
// (origin, external id) pair and each non-empty email; stores enforce both
// with uniqueness constraints.
type User struct {
	UserID        string
	Email         string
	Role          string
	Permissions   []string
	TokenVersion  uint32
	LinkedOrigins map[Origin]OriginProfile
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Permissions != nil {
		out.Permissions = append([]string(nil), u.Permissions...)
	}
	if u.LinkedOrigins != nil {
		out.LinkedOrigins = make(map[Origin]OriginProfile, len(u.LinkedOrigins))
		for o, p := range u.LinkedOrigins {
			out.LinkedOrigins[o] = p.Clone()
		}
	}
	return &out
}

// Linked reports whether the user has the given origin linked.
func (u *User) Linked(origin Origin) bool {
	if u == nil {
		return false
	}
	_, ok := u.LinkedOrigins[origin]
	return ok
}

// Assertion is a verified claim of identity for one origin, produced by an
// external collaborator (OAuth callback handler, local credential check)
// before resolution against the canonical store. ProfileFields carries the
// provider-native profile keys ("name", "picture", "login", "avatar_url");
// ingest whitelists them into an [OriginProfile].
type Assertion struct {
	Origin        Origin
	ExternalID    string
	Email         string
	ProfileFields map[string]string
}

// UserPatch is the partial update shape accepted by
// [CredentialStore.Update]. Nil fields are left untouched. Origins entries
// add or refresh linked origins; they never unlink.
type UserPatch struct {
	Email       *string
	Role        *string
	Permissions []string
	Origins     map[Origin]OriginProfile
}

// profileFromAssertion maps provider-native profile fields into the bounded
// OriginProfile shape. Unknown keys are dropped here, which is what keeps
// later claim construction a pure selection problem.
func profileFromAssertion(a Assertion) OriginProfile {
	p := OriginProfile{ExternalID: a.ExternalID}
	if a.ProfileFields == nil {
		return p
	}
	p.DisplayName = a.ProfileFields["name"]
	switch a.Origin {
	case OriginGitHub:
		p.Picture = a.ProfileFields["avatar_url"]
	default:
		p.Picture = a.ProfileFields["picture"]
	}
	for _, key := range originExtraFields[a.Origin] {
		if v, ok := a.ProfileFields[key]; ok && v != "" {
			if p.Fields == nil {
				p.Fields = make(map[string]string, 1)
			}
			p.Fields[key] = v
		}
	}
	return p
}
