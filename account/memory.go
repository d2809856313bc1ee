package account

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store backed by maps.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]string
	// byPending maps a pending address to the last account that requested
	// it.
	byPending map[string]string
	now       func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]*Account),
		byEmail:   make(map[string]string),
		byPending: make(map[string]string),
		now:       time.Now,
	}
}

// Create stores a copy of a. It fails with ErrEmailTaken when the email is
// in use.
func (s *MemoryStore) Create(_ context.Context, a *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[a.Email]; ok {
		return nil, ErrEmailTaken
	}
	stored := a.Clone()
	now := s.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.byID[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID
	if stored.PendingNewEmail != "" {
		s.byPending[stored.PendingNewEmail] = stored.ID
	}
	return stored.Clone(), nil
}

// FindByEmail returns the account whose current email is email.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// FindByPendingEmail returns the account that most recently requested email
// as its new address.
func (s *MemoryStore) FindByPendingEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if email == "" {
		return nil, ErrNotFound
	}
	id, ok := s.byPending[email]
	if !ok {
		return nil, ErrNotFound
	}
	a := s.byID[id]
	if a == nil || a.PendingNewEmail != email {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

// FindByID returns the account id.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

// Update applies p to the account id if every precondition of p holds.
func (s *MemoryStore) Update(_ context.Context, id string, p Patch) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !p.Holds(a) {
		return nil, ErrPreconditionFailed
	}
	if p.Email.Set && p.Email.Value != a.Email {
		if owner, taken := s.byEmail[p.Email.Value]; taken && owner != id {
			return nil, ErrEmailTaken
		}
		delete(s.byEmail, a.Email)
		s.byEmail[p.Email.Value] = id
	}
	if p.PendingNewEmail.Set {
		if old := a.PendingNewEmail; old != "" && s.byPending[old] == id {
			delete(s.byPending, old)
		}
		if p.PendingNewEmail.Value != "" {
			s.byPending[p.PendingNewEmail.Value] = id
		}
	}
	p.Apply(a, s.now())
	return a.Clone(), nil
}
