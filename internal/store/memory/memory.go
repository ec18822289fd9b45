// Package memory is an in-process CredentialStore used in dev mode and tests.
package memory

import (
	"context"
	"sync"

	"github.com/clearline/authd/internal/domain"
	"github.com/clearline/authd/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Principal
	byEmail map[string]string // email -> id
}

func New() *Store {
	return &Store{
		byID:    make(map[string]*domain.Principal),
		byEmail: make(map[string]string),
	}
}

// clone keeps callers from sharing memory with the stored row; mutations only
// land via Update.
func clone(p *domain.Principal) *domain.Principal {
	cp := *p
	if p.LastLogin != nil {
		t := *p.LastLogin
		cp.LastLogin = &t
	}
	if p.ResetTokenDigest != nil {
		d := *p.ResetTokenDigest
		cp.ResetTokenDigest = &d
	}
	if p.ResetTokenExpiry != nil {
		t := *p.ResetTokenExpiry
		cp.ResetTokenExpiry = &t
	}
	return &cp
}

func (s *Store) Create(ctx context.Context, p *domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[p.Email]; exists {
		return store.ErrEmailTaken
	}
	s.byID[p.ID] = clone(p)
	s.byEmail[p.Email] = p.ID
	return nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(p), nil
}

func (s *Store) GetByResetDigest(ctx context.Context, digest string) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.byID {
		if p.ResetTokenDigest != nil && *p.ResetTokenDigest == digest {
			return clone(p), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) Update(ctx context.Context, p *domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byID[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if old.Email != p.Email {
		if _, taken := s.byEmail[p.Email]; taken {
			return store.ErrEmailTaken
		}
		delete(s.byEmail, old.Email)
		s.byEmail[p.Email] = p.ID
	}
	s.byID[p.ID] = clone(p)
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }
