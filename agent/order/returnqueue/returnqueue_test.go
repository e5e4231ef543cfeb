package returnqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/qstash"
)

type fakePublisher struct {
	msgs []qstash.Message
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, msg qstash.Message) (qstash.PublishResponse, error) {
	if f.err != nil {
		return qstash.PublishResponse{}, f.err
	}
	f.msgs = append(f.msgs, msg)
	return qstash.PublishResponse{MessageID: "msg_1"}, nil
}

type fakeVerifier struct {
	err    error
	gotURL string
}

func (f *fakeVerifier) Verify(signature string, body []byte, url string) error {
	f.gotURL = url
	return f.err
}

func TestNotifierPublishesWithReturnIDAsDedupKey(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	n, err := NewNotifier(pub)
	if err != nil {
		t.Fatalf("NewNotifier() error = %v", err)
	}

	ev := order.ReturnEvent{ReturnID: "RET-1-20261016", OrderID: 1, CustomerEmail: "a@example.com"}
	if err := n.ReturnApproved(context.Background(), ev); err != nil {
		t.Fatalf("ReturnApproved() error = %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}
	if pub.msgs[0].DeduplicationID != "RET-1-20261016" {
		t.Fatalf("DeduplicationID = %q", pub.msgs[0].DeduplicationID)
	}
	if got, ok := pub.msgs[0].Body.(order.ReturnEvent); !ok || got.OrderID != 1 {
		t.Fatalf("Body = %#v", pub.msgs[0].Body)
	}
}

func TestNotifierPublishError(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: qstash.ErrPublish}
	n, _ := NewNotifier(pub)
	if err := n.ReturnApproved(context.Background(), order.ReturnEvent{ReturnID: "RET-1-20261016"}); !errors.Is(err, qstash.ErrPublish) {
		t.Fatalf("error = %v, want ErrPublish", err)
	}
}

func TestReceiverAcceptsVerifiedEvent(t *testing.T) {
	t.Parallel()

	verifier := &fakeVerifier{}
	var got []order.ReturnEvent
	r, err := NewReceiver(verifier, " https://shop.example/hooks/returns ", func(ctx context.Context, ev order.ReturnEvent) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("NewReceiver() error = %v", err)
	}

	body := []byte(`{"return_id":"RET-1-20261016","order_id":1,"customer_email":"a@example.com","approved_at":"2026-10-16T10:30:00Z"}`)
	ev, err := r.Receive(context.Background(), "sig", body)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if ev.ReturnID != "RET-1-20261016" || !ev.ApprovedAt.Equal(time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("event = %+v", ev)
	}
	if len(got) != 1 {
		t.Fatalf("handled %d events, want 1", len(got))
	}
	if verifier.gotURL != "https://shop.example/hooks/returns" {
		t.Fatalf("verify url = %q", verifier.gotURL)
	}
}

func TestReceiverRejects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	bad, _ := NewReceiver(&fakeVerifier{err: qstash.ErrInvalidSignature}, "", nil)
	if _, err := bad.Receive(ctx, "sig", []byte(`{}`)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}

	r, _ := NewReceiver(&fakeVerifier{}, "", nil)
	for name, body := range map[string]string{
		"not json": `{`,
		"no id":    `{"order_id":1}`,
		"no order": `{"return_id":"RET-1-20261016"}`,
	} {
		if _, err := r.Receive(ctx, "sig", []byte(body)); !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("%s: error = %v, want ErrInvalidEvent", name, err)
		}
	}
}
