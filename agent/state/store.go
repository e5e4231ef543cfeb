package state

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrStateNotFound      = errors.New("conversation not found")
	ErrNilConversation    = errors.New("conversation is nil")
	ErrInvalidSession     = errors.New("session id is empty")
	ErrUnsupportedBackend = errors.New("unsupported history backend")
)

// History backends selectable through APP_HISTORY_BACKEND.
const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendUpstash = "upstash"
)

// DefaultTTL is how long an idle conversation is kept.
const DefaultTTL = 24 * time.Hour

const (
	defaultStoreKeyPrefix = "chat:session:"
	maxResponseSizeBytes  = 2 << 20
)

// Store is the persistence contract used by the orchestrator.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Conversation, error)
	Save(ctx context.Context, c *Conversation) error
	Delete(ctx context.Context, sessionID string) error
}

func checkSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	return nil
}

func redisKey(prefix, sessionID string) (string, error) {
	if err := checkSession(sessionID); err != nil {
		return "", err
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultStoreKeyPrefix
	}
	return prefix + sessionID, nil
}

// prepareSave normalizes c before it is written and reports whether it may
// be stored.
func prepareSave(c *Conversation) error {
	if c == nil {
		return ErrNilConversation
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Version <= 0 {
		c.Version = 1
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	} else {
		c.UpdatedAt = c.UpdatedAt.UTC()
	}
	return nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
