package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/originauth/originauth/identity"
)

// Store is a mutex-guarded CredentialStore. Uniqueness of non-empty
// (origin, external id) pairs and non-empty emails is enforced inside the
// same critical section as the write, so concurrent create races resolve
// exactly as they would against a database constraint: one winner, one
// [identity.ErrDuplicateIdentity].
type Store struct {
	mu      sync.Mutex
	users   map[string]*identity.User
	byEmail map[string]string
	byOrig  map[originKey]string
}

type originKey struct {
	origin     identity.Origin
	externalID string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:   map[string]*identity.User{},
		byEmail: map[string]string{},
		byOrig:  map[originKey]string{},
	}
}

func (s *Store) FindByOriginID(ctx context.Context, origin identity.Origin, externalID string) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byOrig[originKey{origin, externalID}]
	if !ok || externalID == "" {
		return nil, identity.ErrUserNotFound
	}
	return s.users[id].Clone(), nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok || email == "" {
		return nil, identity.ErrUserNotFound
	}
	return s.users[id].Clone(), nil
}

func (s *Store) FindByID(ctx context.Context, userID string) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (s *Store) Create(ctx context.Context, user *identity.User) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrStoreUnavailable, err)
	}
	if user == nil || user.UserID == "" {
		return nil, fmt.Errorf("create: missing user id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.UserID]; exists {
		return nil, fmt.Errorf("%w: user id %s", identity.ErrDuplicateIdentity, user.UserID)
	}
	if user.Email != "" {
		if _, exists := s.byEmail[user.Email]; exists {
			return nil, fmt.Errorf("%w: email %s", identity.ErrDuplicateIdentity, user.Email)
		}
	}
	for origin, profile := range user.LinkedOrigins {
		// Empty external ids (local origin) carry no cross-user identity and
		// are never indexed.
		if profile.ExternalID == "" {
			continue
		}
		if _, exists := s.byOrig[originKey{origin, profile.ExternalID}]; exists {
			return nil, fmt.Errorf("%w: %s:%s", identity.ErrDuplicateIdentity, origin, profile.ExternalID)
		}
	}

	stored := user.Clone()
	s.users[stored.UserID] = stored
	if stored.Email != "" {
		s.byEmail[stored.Email] = stored.UserID
	}
	for origin, profile := range stored.LinkedOrigins {
		if profile.ExternalID == "" {
			continue
		}
		s.byOrig[originKey{origin, profile.ExternalID}] = stored.UserID
	}
	return stored.Clone(), nil
}

func (s *Store) Update(ctx context.Context, userID string, patch identity.UserPatch) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, identity.ErrUserNotFound
	}

	if patch.Email != nil && *patch.Email != user.Email {
		if owner, exists := s.byEmail[*patch.Email]; exists && owner != userID {
			return nil, fmt.Errorf("%w: email %s", identity.ErrDuplicateIdentity, *patch.Email)
		}
		delete(s.byEmail, user.Email)
		user.Email = *patch.Email
		if user.Email != "" {
			s.byEmail[user.Email] = userID
		}
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Permissions != nil {
		user.Permissions = append([]string(nil), patch.Permissions...)
	}
	for origin, profile := range patch.Origins {
		key := originKey{origin, profile.ExternalID}
		if profile.ExternalID != "" {
			if owner, exists := s.byOrig[key]; exists && owner != userID {
				return nil, fmt.Errorf("%w: %s:%s", identity.ErrDuplicateIdentity, origin, profile.ExternalID)
			}
		}
		if prev, linked := user.LinkedOrigins[origin]; linked && prev.ExternalID != "" && prev.ExternalID != profile.ExternalID {
			delete(s.byOrig, originKey{origin, prev.ExternalID})
		}
		if user.LinkedOrigins == nil {
			user.LinkedOrigins = map[identity.Origin]identity.OriginProfile{}
		}
		user.LinkedOrigins[origin] = profile.Clone()
		if profile.ExternalID != "" {
			s.byOrig[key] = userID
		}
	}

	return user.Clone(), nil
}

func (s *Store) IncrementTokenVersion(ctx context.Context, userID string) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", identity.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return 0, identity.ErrUserNotFound
	}
	user.TokenVersion++
	return user.TokenVersion, nil
}
