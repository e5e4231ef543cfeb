package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/tool"
)

type LookupOrderInput struct {
	OrderID       *int64 `json:"order_id,omitempty" jsonschema:"the order id to look up"`
	CustomerEmail string `json:"customer_email,omitempty" jsonschema:"customer email to list orders for"`
}

type OrderInput struct {
	OrderID int64 `json:"order_id" jsonschema:"the order id"`
}

type ProcessReturnInput struct {
	OrderID int64  `json:"order_id" jsonschema:"the order id to return"`
	Reason  string `json:"reason,omitempty" jsonschema:"why the customer is returning the order"`
}

type SearchPolicyInput struct {
	Query string `json:"query" jsonschema:"question about the return policy"`
}

// ToolOutput mirrors the result the chat assistant sees for the same call.
type ToolOutput struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        tool.ToolLookupOrder,
		Description: tool.Descriptions[tool.ToolLookupOrder],
	}, s.handleLookupOrder)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        tool.ToolCheckReturnEligibility,
		Description: tool.Descriptions[tool.ToolCheckReturnEligibility],
	}, s.orderTool(tool.ToolCheckReturnEligibility))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        tool.ToolTrackOrderLocation,
		Description: tool.Descriptions[tool.ToolTrackOrderLocation],
	}, s.orderTool(tool.ToolTrackOrderLocation))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        tool.ToolProcessReturn,
		Description: tool.Descriptions[tool.ToolProcessReturn],
	}, s.handleProcessReturn)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        tool.ToolSearchReturnPolicy,
		Description: tool.Descriptions[tool.ToolSearchReturnPolicy],
	}, s.handleSearchPolicy)
}

func (s *Server) handleLookupOrder(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LookupOrderInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	args := map[string]any{}
	if input.OrderID != nil {
		args["order_id"] = *input.OrderID
	}
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		args["customer_email"] = email
	}
	return s.call(ctx, tool.ToolLookupOrder, args)
}

func (s *Server) orderTool(name string) mcp.ToolHandlerFor[OrderInput, ToolOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input OrderInput) (*mcp.CallToolResult, ToolOutput, error) {
		return s.call(ctx, name, map[string]any{"order_id": input.OrderID})
	}
}

func (s *Server) handleProcessReturn(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessReturnInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	return s.call(ctx, tool.ToolProcessReturn, map[string]any{
		"order_id": input.OrderID,
		"reason":   input.Reason,
	})
}

func (s *Server) handleSearchPolicy(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchPolicyInput,
) (*mcp.CallToolResult, ToolOutput, error) {
	return s.call(ctx, tool.ToolSearchReturnPolicy, map[string]any{"query": input.Query})
}

// call maps a tool-level failure to an error result the client can read;
// only hard failures become protocol errors.
func (s *Server) call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, ToolOutput, error) {
	res, err := s.tools.Call(ctx, name, args)
	if err != nil {
		return nil, ToolOutput{}, err
	}
	if res.Failed() {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: res.Error}},
		}, ToolOutput{Error: res.Error}, nil
	}
	return nil, ToolOutput{Result: res.Result}, nil
}
