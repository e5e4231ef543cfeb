package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

type Config struct {
	Provider       string        `split_words:"true" default:"openai"`
	BaseURL        string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey         string        `envconfig:"API_KEY" split_words:"true"`
	Model          string        `split_words:"true" default:"sentence-transformers/all-MiniLM-L6-v2"`
	Dimensions     int           `split_words:"true" default:"384"`
	SendDimensions bool          `split_words:"true" default:"false"`
	BatchSize      int           `split_words:"true" default:"64"`
	Timeout        time.Duration `split_words:"true" default:"30s"`
}

func (c *Config) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Dimensions)
	}
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case ProviderOpenAI:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("embedding api key is required for provider %q", c.Provider)
		}
	case ProviderHash:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Provider)
	}
	return nil
}

// Embedder is what the policy index needs from an embedding model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// New builds the embedder selected by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderHash:
		return NewHashEmbedder(cfg.Dimensions), nil
	default:
		return NewOpenAI(cfg), nil
	}
}
