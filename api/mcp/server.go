// Package mcp exposes the support tools over the Model Context Protocol so
// other agents can look up orders and process returns directly.
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

const (
	ServerName = "support-tools"
	Version    = "0.1.0"
)

// ToolCaller runs one named tool. *tool.Executor satisfies it.
type ToolCaller interface {
	Call(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)
}

type Server struct {
	tools  ToolCaller
	server *mcp.Server
}

func NewServer(tools ToolCaller) (*Server, error) {
	if tools == nil {
		return nil, errors.New("tool caller is required")
	}

	s := &Server{
		tools: tools,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves streamable HTTP on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("mcp server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
