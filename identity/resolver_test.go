package identity

import (
	"context"
	"errors"
	"testing"
)

// fakeStore is a scriptable in-memory CredentialStore for resolver tests.
type fakeStore struct {
	byID    map[string]*User
	byEmail map[string]string
	byOrig  map[string]string

	createErr error
	findErr   error
	creates   int
	updates   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:    map[string]*User{},
		byEmail: map[string]string{},
		byOrig:  map[string]string{},
	}
}

func origKey(origin Origin, externalID string) string {
	return origin.String() + "/" + externalID
}

func (s *fakeStore) seed(user *User) {
	s.byID[user.UserID] = user
	s.byEmail[user.Email] = user.UserID
	for origin, profile := range user.LinkedOrigins {
		if profile.ExternalID != "" {
			s.byOrig[origKey(origin, profile.ExternalID)] = user.UserID
		}
	}
}

func (s *fakeStore) FindByOriginID(_ context.Context, origin Origin, externalID string) (*User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	id, ok := s.byOrig[origKey(origin, externalID)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *fakeStore) FindByID(_ context.Context, userID string) (*User, error) {
	user, ok := s.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *fakeStore) Create(_ context.Context, user *User) (*User, error) {
	s.creates++
	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		return nil, err
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return nil, ErrDuplicateIdentity
	}
	s.seed(user.Clone())
	return user.Clone(), nil
}

func (s *fakeStore) Update(_ context.Context, userID string, patch UserPatch) (*User, error) {
	s.updates++
	user, ok := s.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	for origin, profile := range patch.Origins {
		if user.LinkedOrigins == nil {
			user.LinkedOrigins = map[Origin]OriginProfile{}
		}
		user.LinkedOrigins[origin] = profile
		if profile.ExternalID != "" {
			s.byOrig[origKey(origin, profile.ExternalID)] = userID
		}
	}
	return user.Clone(), nil
}

func (s *fakeStore) IncrementTokenVersion(_ context.Context, userID string) (uint32, error) {
	user, ok := s.byID[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	user.TokenVersion++
	return user.TokenVersion, nil
}

func newTestResolver(t *testing.T, store CredentialStore, policy LinkPolicy) *Resolver {
	t.Helper()
	r, err := NewResolver(store, policy, "user")
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

func TestResolveLocalFirstSignIn(t *testing.T) {
	store := newFakeStore()
	r := newTestResolver(t, store, LinkByEmail)

	user, outcome, err := r.Resolve(context.Background(), Assertion{
		Origin: OriginLocal,
		Email:  "alice@example.com",
		ProfileFields: map[string]string{
			"name": "Alice",
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != ResolvedCreated {
		t.Fatalf("outcome = %v, want created", outcome)
	}
	if user.UserID == "" {
		t.Fatal("expected generated user id")
	}
	if user.Role != "user" {
		t.Fatalf("role = %q, want default", user.Role)
	}
	if user.TokenVersion != 0 {
		t.Fatalf("token version = %d, want 0", user.TokenVersion)
	}
	if got := user.LinkedOrigins[OriginLocal]; got.DisplayName != "Alice" {
		t.Fatalf("local profile = %+v", got)
	}
}

func TestResolveLocalReturningUser(t *testing.T) {
	store := newFakeStore()
	r := newTestResolver(t, store, LinkByEmail)
	ctx := context.Background()

	first, _, err := r.Resolve(ctx, Assertion{Origin: OriginLocal, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, outcome, err := r.Resolve(ctx, Assertion{Origin: OriginLocal, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if outcome != ResolvedExisting {
		t.Fatalf("outcome = %v, want existing", outcome)
	}
	if first.UserID != second.UserID {
		t.Fatalf("same email produced two users: %s vs %s", first.UserID, second.UserID)
	}
	if store.creates != 1 {
		t.Fatalf("creates = %d, want 1", store.creates)
	}
}

func TestResolveDelegatedPrefersOriginID(t *testing.T) {
	store := newFakeStore()
	store.seed(&User{
		UserID: "u1",
		Email:  "old@example.com",
		Role:   "user",
		LinkedOrigins: map[Origin]OriginProfile{
			OriginGoogle: {ExternalID: "g-1"},
		},
	})
	r := newTestResolver(t, store, LinkByEmail)

	// Provider email changed; (origin, external id) still matches.
	user, outcome, err := r.Resolve(context.Background(), Assertion{
		Origin:     OriginGoogle,
		ExternalID: "g-1",
		Email:      "new@example.com",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != ResolvedExisting {
		t.Fatalf("outcome = %v, want existing", outcome)
	}
	if user.UserID != "u1" {
		t.Fatalf("resolved to %s, want u1", user.UserID)
	}
}

func TestResolveDelegatedLinksByEmail(t *testing.T) {
	store := newFakeStore()
	store.seed(&User{
		UserID: "u1",
		Email:  "alice@example.com",
		Role:   "user",
		LinkedOrigins: map[Origin]OriginProfile{
			OriginLocal: {},
		},
	})
	r := newTestResolver(t, store, LinkByEmail)

	user, outcome, err := r.Resolve(context.Background(), Assertion{
		Origin:     OriginGoogle,
		ExternalID: "g-1",
		Email:      "alice@example.com",
		ProfileFields: map[string]string{
			"picture": "https://p.example/a.png",
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if outcome != ResolvedLinked {
		t.Fatalf("outcome = %v, want linked", outcome)
	}
	if user.UserID != "u1" {
		t.Fatalf("resolved to %s, want u1", user.UserID)
	}
	if !user.Linked(OriginGoogle) || !user.Linked(OriginLocal) {
		t.Fatalf("expected both origins linked: %+v", user.LinkedOrigins)
	}
	if got := user.LinkedOrigins[OriginGoogle]; got.Picture != "https://p.example/a.png" {
		t.Fatalf("google profile = %+v", got)
	}
}

func TestResolveDelegatedLinkNeverConflicts(t *testing.T) {
	store := newFakeStore()
	store.seed(&User{
		UserID:        "u1",
		Email:         "alice@example.com",
		Role:          "user",
		LinkedOrigins: map[Origin]OriginProfile{OriginLocal: {}},
	})
	r := newTestResolver(t, store, LinkNever)

	_, _, err := r.Resolve(context.Background(), Assertion{
		Origin:     OriginGoogle,
		ExternalID: "g-1",
		Email:      "alice@example.com",
	})
	if !errors.Is(err, ErrIdentityConflict) {
		t.Fatalf("expected ErrIdentityConflict, got %v", err)
	}
	if store.updates != 0 {
		t.Fatal("conflict must not write")
	}
}

func TestResolveSameOriginDifferentIDConflicts(t *testing.T) {
	store := newFakeStore()
	store.seed(&User{
		UserID: "u1",
		Email:  "alice@example.com",
		Role:   "user",
		LinkedOrigins: map[Origin]OriginProfile{
			OriginGoogle: {ExternalID: "g-1"},
		},
	})
	// LinkByEmail does not excuse two provider accounts claiming one user.
	r := newTestResolver(t, store, LinkByEmail)

	_, _, err := r.Resolve(context.Background(), Assertion{
		Origin:     OriginGoogle,
		ExternalID: "g-2",
		Email:      "alice@example.com",
	})
	if !errors.Is(err, ErrIdentityConflict) {
		t.Fatalf("expected ErrIdentityConflict, got %v", err)
	}
}

func TestResolveRetriesOnDuplicate(t *testing.T) {
	store := newFakeStore()
	r := newTestResolver(t, store, LinkByEmail)

	// First create collides as if a concurrent sign-in won the race; the
	// store then holds the winner's record.
	store.createErr = ErrDuplicateIdentity
	store.seed(&User{
		UserID:        "u-winner",
		Email:         "alice@example.com",
		Role:          "user",
		LinkedOrigins: map[Origin]OriginProfile{OriginLocal: {}},
	})

	user, outcome, err := r.Resolve(context.Background(), Assertion{Origin: OriginLocal, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("resolve after duplicate: %v", err)
	}
	if outcome != ResolvedExisting {
		t.Fatalf("outcome = %v, want existing", outcome)
	}
	if user.UserID != "u-winner" {
		t.Fatalf("resolved to %s, want winner", user.UserID)
	}
}

func TestResolveValidatesAssertions(t *testing.T) {
	r := newTestResolver(t, newFakeStore(), LinkByEmail)
	ctx := context.Background()

	cases := []Assertion{
		{Origin: Origin(99), Email: "a@b.c"},
		{Origin: OriginLocal},
		{Origin: OriginGoogle, Email: "a@b.c"}, // delegated without external id
	}
	for _, a := range cases {
		if _, _, err := r.Resolve(ctx, a); !errors.Is(err, ErrInvalidAssertion) {
			t.Fatalf("Resolve(%+v) = %v, want ErrInvalidAssertion", a, err)
		}
	}
}

func TestResolveProfileRefreshSkipsNoOpWrites(t *testing.T) {
	store := newFakeStore()
	r := newTestResolver(t, store, LinkByEmail)
	ctx := context.Background()

	a := Assertion{
		Origin:        OriginGitHub,
		ExternalID:    "gh-1",
		Email:         "dev@example.com",
		ProfileFields: map[string]string{"name": "Dev", "login": "dev", "avatar_url": "https://a"},
	}
	if _, _, err := r.Resolve(ctx, a); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	writes := store.updates

	if _, _, err := r.Resolve(ctx, a); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if store.updates != writes {
		t.Fatalf("unchanged profile should not write; updates went %d -> %d", writes, store.updates)
	}

	a.ProfileFields["avatar_url"] = "https://b"
	if _, _, err := r.Resolve(ctx, a); err != nil {
		t.Fatalf("third resolve: %v", err)
	}
	if store.updates != writes+1 {
		t.Fatalf("changed profile should write once; updates = %d", store.updates)
	}
}

func TestResolveIngestWhitelist(t *testing.T) {
	store := newFakeStore()
	r := newTestResolver(t, store, LinkByEmail)

	user, _, err := r.Resolve(context.Background(), Assertion{
		Origin:     OriginGoogle,
		ExternalID: "g-1",
		Email:      "alice@example.com",
		ProfileFields: map[string]string{
			"name":       "Alice",
			"picture":    "https://p",
			"hd":         "example.com", // not whitelisted
			"locale":     "en",          // not whitelisted
			"avatar_url": "https://x",   // github-only key
		},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	profile := user.LinkedOrigins[OriginGoogle]
	if profile.DisplayName != "Alice" || profile.Picture != "https://p" {
		t.Fatalf("whitelisted fields lost: %+v", profile)
	}
	if len(profile.Fields) != 0 {
		t.Fatalf("non-whitelisted fields leaked: %v", profile.Fields)
	}
}
