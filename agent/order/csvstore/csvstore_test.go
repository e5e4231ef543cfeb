package csvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
)

const sampleCSV = `id,customer_email,status,order_date,location
1,customer1@example.com,shipped,2026-04-01,"In Transit - Denver, CO"
2,customer2@example.com,pending,2026-04-02,Warehouse
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestOpenAndGet(t *testing.T) {
	t.Parallel()

	repo, err := Open(writeSample(t, sampleCSV))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Location != "In Transit - Denver, CO" || got.Status != order.StatusShipped {
		t.Fatalf("Get() = %+v", got)
	}

	if _, err := repo.Get(context.Background(), 3); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("Get(3) error = %v, want ErrNotFound", err)
	}
}

func TestReadColumnOrderIndependent(t *testing.T) {
	t.Parallel()

	orders, err := Read(strings.NewReader("status,id,location,order_date,customer_email\nreturned,9,Return Center,2026-01-05,x@example.com\n"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(orders) != 1 || orders[0].ID != 9 || orders[0].Status != order.StatusReturned {
		t.Fatalf("Read() = %+v", orders)
	}
}

func TestOpenCorrupt(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":          "",
		"missing column": "id,customer_email,status\n1,a@example.com,shipped\n",
		"bad id":         "id,customer_email,status,order_date,location\nabc,a@example.com,shipped,2026-01-01,x\n",
		"duplicate id":   "id,customer_email,status,order_date,location\n1,a,shipped,2026-01-01,x\n1,b,shipped,2026-01-01,y\n",
		"short row":      "id,customer_email,status,order_date,location\n1,a,shipped\n",
	}
	for name, content := range cases {
		if _, err := Open(writeSample(t, content)); !errors.Is(err, contractx.ErrCorruptData) {
			t.Fatalf("%s: Open() error = %v, want ErrCorruptData", name, err)
		}
	}
}

func TestUpdateRewritesFile(t *testing.T) {
	t.Parallel()

	path := writeSample(t, sampleCSV)
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store, err := order.NewStore(repo)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := store.MarkReturned(context.Background(), 1); err != nil {
		t.Fatalf("MarkReturned() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, err := reopened.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != order.StatusReturned {
		t.Fatalf("persisted status = %s, want returned", got.Status)
	}
	if got.Location != "In Transit - Denver, CO" {
		t.Fatalf("persisted location = %q", got.Location)
	}

	other, _ := reopened.Get(context.Background(), 2)
	if other.Status != order.StatusPending {
		t.Fatalf("untouched order changed: %+v", other)
	}
}

func TestUpdateRollsBackOnWriteFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// point the repository at a directory that no longer exists
	repo.path = filepath.Join(dir, "gone", "orders.csv")
	o, _ := repo.Get(context.Background(), 2)
	o.Status = order.StatusReturned
	err = repo.Update(context.Background(), o)
	if err == nil {
		t.Fatal("Update() error = nil, want write failure")
	}
	if errors.Is(err, contractx.ErrCorruptData) {
		t.Fatalf("Update() error = %v, rollback should have succeeded", err)
	}

	got, err := repo.Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != order.StatusPending {
		t.Fatalf("status after failed write = %s, want pending", got.Status)
	}
}
