package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	nodex "github.com/nextgensultan/agentic-policybased-chatbot/agent/nodes/orchestrator"
	statex "github.com/nextgensultan/agentic-policybased-chatbot/agent/state"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/metrics"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
	ErrNoAudio        = errors.New("audio is empty")
	ErrNoTranscriber  = errors.New("transcription is not configured")
	ErrNoSpeech       = errors.New("no speech detected in audio")
)

// FallbackReply is sent when the assistant cannot settle on an answer.
const FallbackReply = "I'm sorry, I couldn't process that."

const DefaultMaxMessages = 20

const (
	ChannelText  = "text"
	ChannelAudio = "audio"
)

type Config struct {
	MaxMessages int
	Fallback    string
}

// Turn is the result of one exchange.
type Turn struct {
	Transcription string                 `json:"transcription,omitempty"`
	Reply         string                 `json:"response"`
	Messages      []statex.Message       `json:"messages"`
	ToolCalls     []contractx.ToolResult `json:"-"`
}

type Orchestrator struct {
	store       statex.Store
	responder   contractx.Responder
	transcriber contractx.Transcriber
	metrics     *metrics.Metrics

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	maxMessages int
	fallback    string

	now func() time.Time
}

type Option func(*Orchestrator)

func WithTranscriber(t contractx.Transcriber) Option {
	return func(o *Orchestrator) { o.transcriber = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(
	store statex.Store,
	responder contractx.Responder,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("history store is required")
	}
	if responder == nil {
		return nil, errors.New("responder is required")
	}

	maxMessages := cfg.MaxMessages
	if maxMessages == 0 {
		maxMessages = DefaultMaxMessages
	}
	fallback := strings.TrimSpace(cfg.Fallback)
	if fallback == "" {
		fallback = FallbackReply
	}

	o := &Orchestrator{
		store:       store,
		responder:   responder,
		maxMessages: maxMessages,
		fallback:    fallback,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (Turn, error) {
	return o.handle(ctx, ChannelText, sessionID, text)
}

// HandleAudio transcribes audio and runs the transcription as a text turn.
func (o *Orchestrator) HandleAudio(ctx context.Context, sessionID string, audio []byte) (Turn, error) {
	if o.transcriber == nil {
		return Turn{}, ErrNoTranscriber
	}
	if len(audio) == 0 {
		return Turn{}, ErrNoAudio
	}

	start := time.Now()
	text, err := o.transcriber.Transcribe(ctx, audio)
	o.metrics.ObserveTranscription(time.Since(start), err)
	if err != nil {
		o.metrics.ObserveTurn(ChannelAudio, metrics.OutcomeError)
		return Turn{}, fmt.Errorf("transcribe audio: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		o.metrics.ObserveTurn(ChannelAudio, metrics.OutcomeInvalid)
		return Turn{}, ErrNoSpeech
	}

	turn, err := o.handle(ctx, ChannelAudio, sessionID, text)
	if err != nil {
		return Turn{}, err
	}
	turn.Transcription = text
	return turn, nil
}

func (o *Orchestrator) handle(ctx context.Context, channel, sessionID, text string) (Turn, error) {
	logger := log.Ctx(ctx).With().Str("session_id", sessionID).Str("channel", channel).Logger()
	ctx = logger.WithContext(ctx)

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, ErrInvalidMessage) || errors.Is(err, ErrInvalidSession) {
			outcome = metrics.OutcomeInvalid
		}
		o.metrics.ObserveTurn(channel, outcome)
		logger.Error().Err(err).Msg("turn failed")
		return Turn{}, err
	}

	outcome := metrics.OutcomeOK
	if out.GaveUp {
		outcome = metrics.OutcomeGaveUp
	}
	o.metrics.ObserveTurn(channel, outcome)
	logger.Info().Int("tool_calls", len(out.ToolCalls)).Bool("gave_up", out.GaveUp).Msg("turn completed")

	return Turn{
		Reply:     out.Reply,
		Messages:  out.Messages,
		ToolCalls: out.ToolCalls,
	}, nil
}

// Messages returns the stored history, empty for an unknown session.
func (o *Orchestrator) Messages(ctx context.Context, sessionID string) ([]statex.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	c, err := o.store.Load(ctx, sessionID)
	if errors.Is(err, statex.ErrStateNotFound) {
		return []statex.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}

func (o *Orchestrator) Clear(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	return o.store.Delete(ctx, sessionID)
}
