package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps conversations in process. Entries older than the TTL
// are treated as missing.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Conversation
	ttl   time.Duration
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*Conversation),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Conversation, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	c, ok := s.items[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	if s.expired(c) {
		// a Save may have replaced the entry since the read lock was dropped
		s.mu.Lock()
		c, ok = s.items[sessionID]
		if ok && s.expired(c) {
			delete(s.items, sessionID)
			ok = false
		}
		s.mu.Unlock()
		if !ok {
			return nil, ErrStateNotFound
		}
	}
	return c.Clone(), nil
}

func (s *MemoryStore) expired(c *Conversation) bool {
	return s.ttl > 0 && s.now().Sub(c.UpdatedAt) > s.ttl
}

func (s *MemoryStore) Save(_ context.Context, c *Conversation) error {
	if err := prepareSave(c); err != nil {
		return err
	}
	s.mu.Lock()
	s.items[c.SessionID] = c.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, sessionID)
	s.mu.Unlock()
	return nil
}
