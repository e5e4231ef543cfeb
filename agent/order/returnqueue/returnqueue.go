// Package returnqueue carries approved returns through QStash: Notifier
// publishes them and Receiver accepts the signed deliveries back.
package returnqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/qstash"
)

var (
	ErrInvalidSignature = qstash.ErrInvalidSignature
	ErrInvalidEvent     = errors.New("return event is invalid")
)

type Publisher interface {
	Publish(ctx context.Context, msg qstash.Message) (qstash.PublishResponse, error)
}

type Verifier interface {
	Verify(signature string, body []byte, url string) error
}

type Notifier struct {
	publisher Publisher
}

var _ order.ReturnNotifier = (*Notifier)(nil)

func NewNotifier(publisher Publisher) (*Notifier, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	return &Notifier{publisher: publisher}, nil
}

// ReturnApproved publishes ev keyed by its return id, so a retried approval
// on the same day is delivered once.
func (n *Notifier) ReturnApproved(ctx context.Context, ev order.ReturnEvent) error {
	resp, err := n.publisher.Publish(ctx, qstash.Message{
		DeduplicationID: ev.ReturnID,
		Body:            ev,
	})
	if err != nil {
		return fmt.Errorf("publish return %s: %w", ev.ReturnID, err)
	}
	log.Ctx(ctx).Info().
		Str("return_id", ev.ReturnID).
		Str("message_id", resp.MessageID).
		Bool("deduplicated", resp.Deduplicated).
		Msg("return event published")
	return nil
}

type HandleFunc func(ctx context.Context, ev order.ReturnEvent) error

// LogEvent is the default HandleFunc.
func LogEvent(ctx context.Context, ev order.ReturnEvent) error {
	log.Ctx(ctx).Info().
		Str("return_id", ev.ReturnID).
		Int64("order_id", ev.OrderID).
		Time("approved_at", ev.ApprovedAt).
		Msg("return event received")
	return nil
}

type Receiver struct {
	verifier Verifier
	url      string
	handle   HandleFunc
}

// NewReceiver checks deliveries with verifier. url is the public address of
// the hook; empty skips the subject check.
func NewReceiver(verifier Verifier, url string, handle HandleFunc) (*Receiver, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	if handle == nil {
		handle = LogEvent
	}
	return &Receiver{verifier: verifier, url: strings.TrimSpace(url), handle: handle}, nil
}

func (r *Receiver) Receive(ctx context.Context, signature string, body []byte) (order.ReturnEvent, error) {
	if err := r.verifier.Verify(signature, body, r.url); err != nil {
		return order.ReturnEvent{}, err
	}

	var ev order.ReturnEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return order.ReturnEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if strings.TrimSpace(ev.ReturnID) == "" || ev.OrderID <= 0 {
		return order.ReturnEvent{}, fmt.Errorf("%w: return_id and order_id are required", ErrInvalidEvent)
	}

	if err := r.handle(ctx, ev); err != nil {
		return ev, fmt.Errorf("handle return %s: %w", ev.ReturnID, err)
	}
	return ev, nil
}
