package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpx "github.com/nextgensultan/agentic-policybased-chatbot/api/mcp"
	configx "github.com/nextgensultan/agentic-policybased-chatbot/pkg/config"
	logx "github.com/nextgensultan/agentic-policybased-chatbot/pkg/logger"
)

func mcpCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the support tools over the Model Context Protocol",
		Long: "Serve LookupOrder, CheckReturnEligibility, TrackOrderLocation, ProcessReturn and " +
			"SearchReturnPolicy as MCP tools, over stdio by default or streamable HTTP with --http.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if httpAddr == "" {
				// stdout belongs to the protocol.
				logCfg, err := configx.New[logx.Config]("LOG")
				if err != nil {
					return err
				}
				logx.InitTo(os.Stderr, *logCfg)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			a, err := newToolApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcpx.NewServer(a.executor)
			if err != nil {
				return err
			}
			if httpAddr != "" {
				return server.RunHTTP(ctx, httpAddr)
			}
			return server.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}
