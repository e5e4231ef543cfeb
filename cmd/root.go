// Package cmd wires the support assistant together behind a cobra CLI.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	configx "github.com/nextgensultan/agentic-policybased-chatbot/pkg/config"
)

func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "support-assistant",
		Short:         "Customer-support chat assistant for orders and returns",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				configx.SetEnvFile(envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default ./.env when present)")

	root.AddCommand(
		serveCmd(),
		chatCmd(),
		indexCmd(),
		mcpCmd(),
		seedCmd(),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
