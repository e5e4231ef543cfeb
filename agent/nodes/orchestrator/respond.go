package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

// Respond asks the responder for a reply. When the responder runs out of
// iterations the turn still completes with fallback as the reply.
func Respond(ctx context.Context, in *GraphState, responder contractx.Responder, fallback string) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	resp, err := responder.Respond(ctx, contractx.RespondRequest{
		UserMessage: in.Text,
		History:     in.Conversation.Snapshot(),
	})
	in.ToolCalls = resp.ToolCalls
	if errors.Is(err, contractx.ErrIterationLimit) {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", in.SessionID).Msg("assistant gave up, sending fallback")
		in.Reply = fallback
		in.GaveUp = true
		return in, nil
	}
	if err != nil {
		return nil, err
	}

	in.Reply = resp.Message
	return in, nil
}
