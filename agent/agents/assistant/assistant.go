// Package assistant is the reasoning collaborator: a tool-calling chat model
// that answers customers by running the order and policy tools.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	llmx "github.com/nextgensultan/agentic-policybased-chatbot/agent/llm"
	promptx "github.com/nextgensultan/agentic-policybased-chatbot/agent/prompt"
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/tool"
)

type Option func(*Assistant)

func WithMaxIterations(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

func WithSystemPrompt(p string) Option {
	return func(a *Assistant) {
		if strings.TrimSpace(p) != "" {
			a.systemPrompt = strings.TrimSpace(p)
		}
	}
}

func WithTools(infos []*schema.ToolInfo) Option {
	return func(a *Assistant) {
		if len(infos) > 0 {
			a.tools = infos
		}
	}
}

type Assistant struct {
	step          compose.Runnable[[]*schema.Message, *schema.Message]
	gateway       contractx.ToolGateway
	systemPrompt  string
	maxIterations int
	tools         []*schema.ToolInfo
	allowedTools  map[string]struct{}
}

var _ contractx.Responder = (*Assistant)(nil)

// New binds the tool catalog to chatModel. The gateway runs every tool call
// the model makes.
func New(ctx context.Context, chatModel einomodel.ToolCallingChatModel, gateway contractx.ToolGateway, opts ...Option) (*Assistant, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
	}

	a := &Assistant{
		gateway:       gateway,
		systemPrompt:  promptx.LoadPromptSet().Assistant,
		maxIterations: llmx.DefaultMaxIterations,
		tools:         tool.Infos(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.systemPrompt == "" {
		return nil, fmt.Errorf("%w: assistant system prompt", contractx.ErrPromptMissing)
	}

	toolModel, err := chatModel.WithTools(a.tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, contractx.AgentTypeAssistant, err)
	}
	step, err := compileStepGraph(ctx, toolModel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	a.step = step

	a.allowedTools = make(map[string]struct{}, len(a.tools))
	for _, t := range a.tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		a.allowedTools[t.Name] = struct{}{}
	}
	return a, nil
}

// Respond runs the model until it answers without tool calls. Tool failures
// are fed back to the model; only gateway errors end the turn.
func (a *Assistant) Respond(ctx context.Context, req contractx.RespondRequest) (contractx.RespondResponse, error) {
	userMessage := strings.TrimSpace(req.UserMessage)
	if userMessage == "" {
		return contractx.RespondResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	msgs := a.buildMessages(req.History, userMessage)
	var calls []contractx.ToolResult

	for i := 1; i <= a.maxIterations; i++ {
		msg, err := a.step.Invoke(ctx, msgs)
		if err != nil {
			return contractx.RespondResponse{}, fmt.Errorf("%w: assistant invoke: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return contractx.RespondResponse{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return contractx.RespondResponse{}, fmt.Errorf("%w: assistant answer is empty", contractx.ErrSchemaViolation)
			}
			return contractx.RespondResponse{Message: content, ToolCalls: calls, Iterations: i}, nil
		}

		msgs = append(msgs, schema.AssistantMessage(msg.Content, msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			res, err := a.runToolCall(ctx, call)
			if err != nil {
				return contractx.RespondResponse{}, err
			}
			calls = append(calls, res)

			payload, err := json.Marshal(res)
			if err != nil {
				return contractx.RespondResponse{}, fmt.Errorf("%w: marshal tool result: %v", contractx.ErrValidation, err)
			}
			msgs = append(msgs, schema.ToolMessage(string(payload), call.ID))
		}

		log.Ctx(ctx).Debug().
			Int("iteration", i).
			Int("tool_calls", len(msg.ToolCalls)).
			Msg("assistant ran tools")
	}

	return contractx.RespondResponse{ToolCalls: calls, Iterations: a.maxIterations},
		fmt.Errorf("%w: no answer after %d model calls", contractx.ErrIterationLimit, a.maxIterations)
}

func (a *Assistant) buildMessages(history []statex.Message, userMessage string) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(a.systemPrompt))
	for _, m := range history {
		switch m.Role {
		case statex.RoleUser:
			msgs = append(msgs, schema.UserMessage(m.Content))
		case statex.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		}
	}
	return append(msgs, schema.UserMessage(userMessage))
}

// runToolCall turns malformed or disallowed calls into tool-level errors the
// model can recover from.
func (a *Assistant) runToolCall(ctx context.Context, call schema.ToolCall) (contractx.ToolResult, error) {
	name := strings.TrimSpace(call.Function.Name)
	if _, ok := a.allowedTools[name]; !ok {
		return contractx.ToolResult{ID: call.ID, Tool: name, Error: fmt.Sprintf("tool %q is not available", name)}, nil
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&args); err != nil {
			return contractx.ToolResult{ID: call.ID, Tool: name, Error: fmt.Sprintf("invalid arguments for %s: %v", name, err)}, nil
		}
	}

	results, err := a.gateway.Execute(ctx, []contractx.ToolRequest{{ID: call.ID, Tool: name, Args: args}})
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("execute tool %s: %w", name, err)
	}
	if len(results) != 1 {
		return contractx.ToolResult{}, fmt.Errorf("%w: gateway returned %d results for one call", contractx.ErrSchemaViolation, len(results))
	}
	return results[0], nil
}
