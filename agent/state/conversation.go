// Package state keeps per-session chat history and the stores that persist
// it between requests.
package state

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat line as the browser client renders it.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Conversation struct {
	SessionID string    `json:"session_id"`
	Version   int       `json:"version"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewConversation(sessionID string, now time.Time) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		Version:   1,
		Messages:  []Message{},
		UpdatedAt: now.UTC(),
	}
}

func (c *Conversation) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

func (c *Conversation) Append(role Role, content string, now time.Time) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
	c.Touch(now)
}

// Trim keeps the newest max messages. max <= 0 keeps everything.
func (c *Conversation) Trim(max int) {
	if max <= 0 || len(c.Messages) <= max {
		return
	}
	c.Messages = append([]Message(nil), c.Messages[len(c.Messages)-max:]...)
}

// Snapshot returns a copy of the messages that callers may keep.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Messages = c.Snapshot()
	return &cp
}

func (c *Conversation) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, m := range c.Messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("message %d has unknown role %q", i, m.Role)
		}
	}
	return nil
}
