// Package csvstore persists orders as a flat CSV table. The table is held in
// memory and rewritten in full after every update.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
)

var Header = []string{"id", "customer_email", "status", "order_date", "location"}

type Repository struct {
	path string
	mem  *order.MemoryRepository
}

var _ order.Repository = (*Repository)(nil)

// Open loads the table at path. Malformed rows fail with ErrCorruptData.
func Open(path string) (*Repository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open orders csv: %w", err)
	}
	defer f.Close()

	orders, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	mem, err := order.NewMemoryRepository(orders)
	if err != nil {
		return nil, err
	}
	return &Repository{path: path, mem: mem}, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (order.Order, error) {
	return r.mem.Get(ctx, id)
}

func (r *Repository) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	return r.mem.ListByEmail(ctx, email)
}

func (r *Repository) List(ctx context.Context) ([]order.Order, error) {
	return r.mem.List(ctx)
}

// Update replaces the order in memory and rewrites the file. On a failed
// write the in-memory row is rolled back.
func (r *Repository) Update(ctx context.Context, o order.Order) error {
	prev, err := r.mem.Get(ctx, o.ID)
	if err != nil {
		return err
	}
	if err := r.mem.Update(ctx, o); err != nil {
		return err
	}

	all, err := r.mem.List(ctx)
	if err == nil {
		err = WriteFile(r.path, all)
	}
	if err != nil {
		if rerr := r.mem.Update(ctx, prev); rerr != nil {
			return errors.Join(err, fmt.Errorf("%w: rollback order %d: %v", contractx.ErrCorruptData, prev.ID, rerr))
		}
		return err
	}
	return nil
}

// Read parses a CSV table whose header names the order columns in any order.
func Read(src io.Reader) ([]order.Order, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: orders csv is empty", contractx.ErrCorruptData)
		}
		return nil, fmt.Errorf("%w: header: %v", contractx.ErrCorruptData, err)
	}

	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range Header {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", contractx.ErrCorruptData, name)
		}
	}

	var orders []order.Order
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrCorruptData, err)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(rec[cols["id"]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad id %q", contractx.ErrCorruptData, line, rec[cols["id"]])
		}
		orders = append(orders, order.Order{
			ID:            id,
			CustomerEmail: strings.TrimSpace(rec[cols["customer_email"]]),
			Status:        order.Status(strings.TrimSpace(rec[cols["status"]])),
			OrderDate:     strings.TrimSpace(rec[cols["order_date"]]),
			Location:      strings.TrimSpace(rec[cols["location"]]),
		})
	}
	return orders, nil
}

func Write(dst io.Writer, orders []order.Order) error {
	w := csv.NewWriter(dst)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, o := range orders {
		rec := []string{
			strconv.FormatInt(o.ID, 10),
			o.CustomerEmail,
			string(o.Status),
			o.OrderDate,
			o.Location,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFile replaces path atomically through a temp file in the same dir.
func WriteFile(path string, orders []order.Order) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".orders-*.csv")
	if err != nil {
		return fmt.Errorf("create temp orders file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, orders); err != nil {
		tmp.Close()
		return fmt.Errorf("write orders csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp orders file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace orders csv: %w", err)
	}
	return nil
}
