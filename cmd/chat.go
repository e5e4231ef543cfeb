package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/agents/orchestrator"
)

func chatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			a, err := newToolApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			orch, err := a.orchestrator(ctx, false)
			if err != nil {
				return err
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s (type /clear to reset, /quit to exit)\n", sessionID)
			return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), orch, sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "resume an existing session id")
	return cmd
}

type chatter interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (orchestrator.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// chatLoop reads one message per line until EOF or /quit.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, chat chatter, sessionID string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			if err := chat.Clear(ctx, sessionID); err != nil {
				return err
			}
			fmt.Fprintln(out, "history cleared")
			continue
		}

		turn, err := chat.HandleMessage(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, turn.Reply)
	}
}
