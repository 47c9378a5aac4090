package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PrecedenceMarkets/lexgate/internal/model"
)

// Store persists per-EOA session state. Keys are EOA addresses and are
// normalized to lower case so that address casing never splits a session.
type Store interface {
	Load(ctx context.Context, eoa string) (*model.Session, bool, error)
	Save(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, eoa string) error
}

func normalizeKey(eoa string) string {
	return strings.ToLower(strings.TrimSpace(eoa))
}

type memoryEntry struct {
	session   model.Session
	expiresAt time.Time
}

// cloneSession copies the record including the Stages map, so neither side
// can reach the other's map through a shared reference.
func cloneSession(s *model.Session) model.Session {
	out := *s
	if s.Stages != nil {
		out.Stages = make(map[string]model.StageStatus, len(s.Stages))
		for stage, status := range s.Stages {
			out.Stages[stage] = status
		}
	}
	return out
}

// MemoryStore is the in-process Store used for tests and single-node runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Load(_ context.Context, eoa string) (*model.Session, bool, error) {
	key := normalizeKey(eoa)

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}

	// Copy out so callers cannot mutate the stored record in place.
	session := cloneSession(&entry.session)
	return &session, true, nil
}

func (s *MemoryStore) Save(_ context.Context, session *model.Session) error {
	key := normalizeKey(session.EOAAddress)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{
		session:   cloneSession(session),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, eoa string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, normalizeKey(eoa))
	return nil
}
