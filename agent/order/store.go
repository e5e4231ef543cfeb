package order

import (
	"context"
	"fmt"
	"strings"
	"sync"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

// Repository is the persistence contract for orders. Implementations may
// rewrite their whole backing table on Update or write a single row.
type Repository interface {
	Get(ctx context.Context, id int64) (Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o Order) error
}

// Store serializes writers over a Repository. Reads may overlap each other
// but never an in-flight write.
type Store struct {
	mu   sync.RWMutex
	repo Repository
}

func NewStore(repo Repository) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: order repository is required", contractx.ErrValidation)
	}
	return &Store{repo: repo}, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.Get(ctx, id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) ([]Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: customer_email is required", contractx.ErrInvalidArgument)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.ListByEmail(ctx, email)
}

func (s *Store) List(ctx context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo.List(ctx)
}

// MarkReturned sets the order's status to returned and persists it.
func (s *Store) MarkReturned(ctx context.Context, id int64) error {
	_, err := s.Mutate(ctx, id, func(o *Order) (bool, error) {
		o.Status = StatusReturned
		return true, nil
	})
	return err
}

// Mutate loads the order under the write lock and hands it to fn. The order
// is persisted only when fn reports a change. The returned order is the
// state fn saw or produced.
func (s *Store) Mutate(ctx context.Context, id int64, fn func(o *Order) (bool, error)) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	changed, err := fn(&o)
	if err != nil {
		return o, err
	}
	if !changed {
		return o, nil
	}
	if o.ID != id {
		return Order{}, fmt.Errorf("%w: order id changed from %d to %d", contractx.ErrValidation, id, o.ID)
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return Order{}, err
	}
	return o, nil
}
