package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Conversation == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: assistant returned empty message", contractx.ErrValidation)
	}
	return GraphOutput{
		Reply:     reply,
		Messages:  in.Conversation.Snapshot(),
		ToolCalls: in.ToolCalls,
		GaveUp:    in.GaveUp,
	}, nil
}
