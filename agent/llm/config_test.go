package llm

import (
	"errors"
	"testing"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("missing key: error = %v", err)
	}
	if err := (Config{APIKey: "k"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("missing model: error = %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("valid config: error = %v", err)
	}
}

func TestOpenRouterAndIterations(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: " k ", Model: " openai/gpt-4o-mini ", MaxCompletionToken: 512, Temperature: 0.3}
	or := cfg.OpenRouter()
	if or.APIKey != "k" || or.Model != "openai/gpt-4o-mini" {
		t.Fatalf("OpenRouter() = %+v", or)
	}
	if or.MaxCompletionToken == nil || *or.MaxCompletionToken != 512 {
		t.Fatalf("MaxCompletionToken = %v", or.MaxCompletionToken)
	}
	if cfg.Iterations() != DefaultMaxIterations {
		t.Fatalf("Iterations() = %d", cfg.Iterations())
	}
	cfg.MaxIterations = 2
	if cfg.Iterations() != 2 {
		t.Fatalf("Iterations() = %d", cfg.Iterations())
	}
}
