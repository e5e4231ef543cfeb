package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
)

func LoadHistory(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	c, err := store.Load(ctx, in.SessionID)
	switch {
	case err == nil:
	case errors.Is(err, statex.ErrStateNotFound):
		c = statex.NewConversation(in.SessionID, in.Now)
	default:
		return nil, fmt.Errorf("load history: %w", err)
	}
	in.Conversation = c
	return in, nil
}

// AppendTurn records the user text and the reply, then trims the history
// to maxMessages.
func AppendTurn(in *GraphState, maxMessages int) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}
	in.Conversation.Append(statex.RoleUser, in.Text, in.Now)
	in.Conversation.Append(statex.RoleAssistant, in.Reply, in.Now)
	in.Conversation.Trim(maxMessages)
	return in, nil
}

func SaveHistory(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	in.Conversation.Touch(in.Now)
	if err := in.Conversation.Validate(); err != nil {
		return nil, fmt.Errorf("history validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Conversation); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	return in, nil
}
