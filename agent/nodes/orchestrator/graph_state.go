// Package orchestratornode holds the steps of the chat-turn graph. Each
// step takes and returns the shared *GraphState.
package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply     string
	Messages  []statex.Message
	ToolCalls []contractx.ToolResult
	GaveUp    bool
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Conversation *statex.Conversation

	Reply     string
	ToolCalls []contractx.ToolResult
	GaveUp    bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
