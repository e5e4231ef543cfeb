package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nextgensultan/agentic-policybased-chatbot/api"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ListenAddr
			}

			a, err := newToolApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			orch, err := a.orchestrator(ctx, true)
			if err != nil {
				return err
			}

			apiCfg := api.Config{
				SessionCookie: cfg.SessionCookie,
				SecureCookie:  cfg.SecureCookie,
				Metrics:       a.metrics,
			}
			if a.receiver != nil {
				apiCfg.Returns = a.receiver
			}
			server, err := api.New(orch, apiCfg)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default APP_LISTEN_ADDR)")
	return cmd
}
