package account

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps accounts in process memory. It is the default backend
// for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*Account
	byEmail  map[string]string
	byGoogle map[string]string
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*Account),
		byEmail:  make(map[string]string),
		byGoogle: make(map[string]string),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, acc *Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[acc.Email]; ok {
		return ErrEmailTaken
	}
	if acc.GoogleID != "" {
		if _, ok := s.byGoogle[acc.GoogleID]; ok {
			return ErrGoogleIDTaken
		}
	}

	stored := clone(acc)
	s.byID[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID
	if stored.GoogleID != "" {
		s.byGoogle[stored.GoogleID] = stored.ID
	}
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(acc), nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *MemoryStore) FindByGoogleID(ctx context.Context, googleID string) (*Account, error) {
	s.mu.RLock()
	id, ok := s.byGoogle[googleID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.update(id, func(acc *Account) error {
		acc.PasswordHash = passwordHash
		return nil
	})
}

func (s *MemoryStore) LinkGoogleID(_ context.Context, id, googleID string) error {
	return s.update(id, func(acc *Account) error {
		if owner, ok := s.byGoogle[googleID]; ok && owner != id {
			return ErrGoogleIDTaken
		}
		if acc.GoogleID != "" {
			delete(s.byGoogle, acc.GoogleID)
		}
		acc.GoogleID = googleID
		s.byGoogle[googleID] = id
		return nil
	})
}

func (s *MemoryStore) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	return s.update(id, func(acc *Account) error {
		acc.ResetToken = token
		acc.ResetTokenExpiresAt = &expiresAt
		return nil
	})
}

func (s *MemoryStore) ClearResetToken(_ context.Context, id string) error {
	return s.update(id, func(acc *Account) error {
		acc.ResetToken = ""
		acc.ResetTokenExpiresAt = nil
		return nil
	})
}

func (s *MemoryStore) ConsumeResetToken(_ context.Context, token string, now time.Time, passwordHash string) (*Account, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.byID {
		if acc.ResetToken != token || !acc.ResetPending(now) {
			continue
		}
		acc.PasswordHash = passwordHash
		acc.ResetToken = ""
		acc.ResetTokenExpiresAt = nil
		acc.UpdatedAt = s.now()
		return clone(acc), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, acc := range s.byID {
		if acc.ResetTokenExpiresAt != nil && !now.Before(*acc.ResetTokenExpiresAt) {
			acc.ResetToken = ""
			acc.ResetTokenExpiresAt = nil
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) update(id string, fn func(*Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if err := fn(acc); err != nil {
		return err
	}
	acc.UpdatedAt = s.now()
	return nil
}

func clone(acc *Account) *Account {
	c := *acc
	if acc.ResetTokenExpiresAt != nil {
		t := *acc.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &t
	}
	return &c
}
