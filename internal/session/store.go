// Package session is the single source of truth for who is signed in.
package session

import (
	"sync"

	"iris-therapy-portal/internal/feedback"
	"iris-therapy-portal/internal/models"
)

// Flag is a transient boolean kept alongside the session.
type Flag string

const (
	// FlagLoginOTPPending is set after the password step of sign-in succeeds.
	FlagLoginOTPPending Flag = "login_otp_pending"
	// FlagResetOTPSent is set after /forgot-password succeeds and gates the
	// reset-code view.
	FlagResetOTPSent Flag = "otp_sent"
)

// Reader is the read side of a Store.
type Reader interface {
	Identity() (models.Identity, bool)
	Credential() (models.Credential, bool)
}

// Store holds at most one Identity and Credential. Writers are the auth flows
// and logout; everything else only reads.
type Store interface {
	Reader
	// SetSession persists both halves, replacing any prior session.
	SetSession(identity models.Identity, cred models.Credential) error
	// ClearSession removes identity and credential.
	ClearSession() error
	SetFlag(f Flag) error
	HasFlag(f Flag) bool
	ClearFlag(f Flag) error
	// SetNotice queues a notice for the next rendered view.
	SetNotice(n feedback.Notice) error
	// TakeNotice returns and forgets the queued notice.
	TakeNotice() (feedback.Notice, bool)
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	identity   *models.Identity
	credential models.Credential
	flags      map[Flag]bool
	notice     *feedback.Notice
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[Flag]bool)}
}

func (s *MemoryStore) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

func (s *MemoryStore) Credential() (models.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, !s.credential.Empty()
}

func (s *MemoryStore) SetSession(identity models.Identity, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
	s.credential = cred
	return nil
}

func (s *MemoryStore) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	s.credential = ""
	return nil
}

func (s *MemoryStore) SetFlag(f Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[f] = true
	return nil
}

func (s *MemoryStore) HasFlag(f Flag) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[f]
}

func (s *MemoryStore) ClearFlag(f Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, f)
	return nil
}

func (s *MemoryStore) SetNotice(n feedback.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = &n
	return nil
}

func (s *MemoryStore) TakeNotice() (feedback.Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return feedback.Notice{}, false
	}
	n := *s.notice
	s.notice = nil
	return n, true
}
