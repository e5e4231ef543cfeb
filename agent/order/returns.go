package order

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type ReturnStatus string

const (
	ReturnApproved ReturnStatus = "approved"
	ReturnRejected ReturnStatus = "rejected"
)

// ReturnInstructions is sent with every approved return.
const ReturnInstructions = `1. Package the items in their original packaging
2. Include your order number on the return label
3. Ship to our return center
4. Refund will be processed within 5-7 business days after receipt`

type ReturnOutcome struct {
	Status       ReturnStatus
	ReturnID     string
	Instructions string
	Reason       string
}

// ReturnEvent describes an approved return for downstream systems.
type ReturnEvent struct {
	ReturnID      string    `json:"return_id"`
	OrderID       int64     `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	Reason        string    `json:"reason,omitempty"`
	ApprovedAt    time.Time `json:"approved_at"`
}

type ReturnNotifier interface {
	ReturnApproved(ctx context.Context, ev ReturnEvent) error
}

type ReturnsOption func(*Returns)

func WithNotifier(n ReturnNotifier) ReturnsOption {
	return func(r *Returns) {
		r.notifier = n
	}
}

func WithClock(now func() time.Time) ReturnsOption {
	return func(r *Returns) {
		if now != nil {
			r.now = now
		}
	}
}

type Returns struct {
	store    *Store
	notifier ReturnNotifier
	now      func() time.Time
}

func NewReturns(store *Store, opts ...ReturnsOption) *Returns {
	r := &Returns{store: store, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Process re-checks eligibility and, when eligible, marks the order returned.
// Evaluation and the write happen under one store lock.
func (r *Returns) Process(ctx context.Context, id int64, reason string) (ReturnOutcome, error) {
	now := r.now()

	var verdict Eligibility
	updated, err := r.store.Mutate(ctx, id, func(o *Order) (bool, error) {
		e, err := Evaluate(*o, now)
		if err != nil {
			return false, err
		}
		verdict = e
		if !e.Eligible {
			return false, nil
		}
		o.Status = StatusReturned
		return true, nil
	})
	if err != nil {
		return ReturnOutcome{}, err
	}

	if !verdict.Eligible {
		return ReturnOutcome{Status: ReturnRejected, Reason: verdict.Reason}, nil
	}

	outcome := ReturnOutcome{
		Status:       ReturnApproved,
		ReturnID:     ReturnID(id, now),
		Instructions: ReturnInstructions,
	}

	if r.notifier != nil {
		ev := ReturnEvent{
			ReturnID:      outcome.ReturnID,
			OrderID:       id,
			CustomerEmail: updated.CustomerEmail,
			Reason:        reason,
			ApprovedAt:    now.UTC(),
		}
		if err := r.notifier.ReturnApproved(ctx, ev); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("return_id", ev.ReturnID).Msg("return notification failed")
		}
	}

	return outcome, nil
}

// ReturnID formats RET-<order id>-<YYYYMMDD>.
func ReturnID(id int64, now time.Time) string {
	return fmt.Sprintf("RET-%d-%s", id, now.Format("20060102"))
}
