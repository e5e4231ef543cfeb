// Package assemblyai is a small client for the AssemblyAI speech-to-text
// REST API: upload the audio, request a transcript, poll until it settles.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

const maxResponseSizeBytes = 1 << 20

const (
	statusCompleted = "completed"
	statusError     = "error"
)

var ErrEmptyAudio = errors.New("audio is empty")

type Config struct {
	BaseURL      string        `split_words:"true" default:"https://api.assemblyai.com"`
	APIKey       string        `split_words:"true" required:"true"`
	LanguageCode string        `split_words:"true" default:"en"`
	PollInterval time.Duration `split_words:"true" default:"3s"`
	Timeout      time.Duration `split_words:"true" default:"30s"`
}

type Client struct {
	baseURL      string
	apiKey       string
	languageCode string
	pollInterval time.Duration
	httpClient   *http.Client
}

var _ contractx.Transcriber = (*Client)(nil)

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Transcript is the subset of the transcript resource the client reads.
type Transcript struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error,omitempty"`
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.assemblyai.com"
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid assemblyai base url: %w", err)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("assemblyai api key is required")
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		languageCode: strings.TrimSpace(cfg.LanguageCode),
		pollInterval: pollInterval,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Transcribe returns the text spoken in audio. It blocks until AssemblyAI
// finishes or ctx is done.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	uploadURL, err := c.upload(ctx, audio)
	if err != nil {
		return "", err
	}

	id, err := c.requestTranscript(ctx, uploadURL)
	if err != nil {
		return "", err
	}
	log.Ctx(ctx).Debug().Str("transcript_id", id).Int("audio_bytes", len(audio)).Msg("transcript requested")

	return c.waitForTranscript(ctx, id)
}

func (c *Client) upload(ctx context.Context, audio []byte) (string, error) {
	var out uploadResponse
	if err := c.do(ctx, http.MethodPost, "/v2/upload", "application/octet-stream", bytes.NewReader(audio), &out); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if strings.TrimSpace(out.UploadURL) == "" {
		return "", fmt.Errorf("%w: upload returned no url", contractx.ErrUpstream)
	}
	return out.UploadURL, nil
}

func (c *Client) requestTranscript(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(transcriptRequest{AudioURL: audioURL, LanguageCode: c.languageCode})
	if err != nil {
		return "", fmt.Errorf("marshal transcript request: %w", err)
	}

	var out Transcript
	if err := c.do(ctx, http.MethodPost, "/v2/transcript", "application/json", bytes.NewReader(body), &out); err != nil {
		return "", fmt.Errorf("request transcript: %w", err)
	}
	if out.Status == statusError {
		return "", fmt.Errorf("%w: transcription error: %s", contractx.ErrUpstream, out.Error)
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", fmt.Errorf("%w: transcript request returned no id", contractx.ErrUpstream)
	}
	return out.ID, nil
}

func (c *Client) waitForTranscript(ctx context.Context, id string) (string, error) {
	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	path := "/v2/transcript/" + url.PathEscape(id)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("poll transcript %s: %w", id, err)
		}

		var out Transcript
		if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
			return "", fmt.Errorf("poll transcript %s: %w", id, err)
		}

		switch out.Status {
		case statusCompleted:
			return out.Text, nil
		case statusError:
			msg := strings.TrimSpace(out.Error)
			if msg == "" {
				msg = "Unknown error"
			}
			return "", fmt.Errorf("%w: transcription error: %s", contractx.ErrUpstream, msg)
		}
	}
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", contractx.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read assemblyai response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status=%d body=%s", contractx.ErrUpstream, resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode assemblyai response: %w", err)
	}
	return nil
}
