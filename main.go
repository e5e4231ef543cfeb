package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/nextgensultan/agentic-policybased-chatbot/cmd"
	_ "github.com/nextgensultan/agentic-policybased-chatbot/pkg/logger/autoload"
)

func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
