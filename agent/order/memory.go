package order

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

// MemoryRepository keeps orders in insertion order behind an id index. It
// does no locking of its own; wrap it in a Store.
type MemoryRepository struct {
	orders []Order
	byID   map[int64]int
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(orders []Order) (*MemoryRepository, error) {
	r := &MemoryRepository{
		orders: make([]Order, 0, len(orders)),
		byID:   make(map[int64]int, len(orders)),
	}
	for _, o := range orders {
		if _, dup := r.byID[o.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate order id %d", contractx.ErrCorruptData, o.ID)
		}
		r.byID[o.ID] = len(r.orders)
		r.orders = append(r.orders, o)
	}
	return r, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (Order, error) {
	idx, ok := r.byID[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: order %d", contractx.ErrNotFound, id)
	}
	return r.orders[idx], nil
}

func (r *MemoryRepository) ListByEmail(_ context.Context, email string) ([]Order, error) {
	email = strings.TrimSpace(email)
	out := make([]Order, 0)
	for _, o := range r.orders {
		if strings.EqualFold(strings.TrimSpace(o.CustomerEmail), email) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Order, error) {
	return append([]Order(nil), r.orders...), nil
}

func (r *MemoryRepository) Update(_ context.Context, o Order) error {
	idx, ok := r.byID[o.ID]
	if !ok {
		return fmt.Errorf("%w: order %d", contractx.ErrNotFound, o.ID)
	}
	r.orders[idx] = o
	return nil
}
