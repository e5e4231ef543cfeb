package contract

import (
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
)

type AgentType string

const (
	AgentTypeAssistant AgentType = "assistant"
)

type RespondRequest struct {
	UserMessage string           `json:"user_message"`
	History     []statex.Message `json:"history,omitempty"`
}

type RespondResponse struct {
	Message    string       `json:"message"`
	ToolCalls  []ToolResult `json:"tool_calls,omitempty"`
	Iterations int          `json:"iterations"`
}

type ToolRequest struct {
	ID   string         `json:"id,omitempty"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	ID     string `json:"id,omitempty"`
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the tool answered with a structured error.
func (r ToolResult) Failed() bool {
	return r.Error != ""
}
