package tool

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/policy"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/embedding"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/metrics"
)

var fixedNow = time.Date(2026, time.October, 16, 10, 30, 0, 0, time.UTC)

func testOrders() []order.Order {
	return []order.Order{
		{ID: 1, CustomerEmail: "customer1@example.com", Status: order.StatusShipped, OrderDate: "2026-10-06", Location: "Delivered - Front Porch"},
		{ID: 2, CustomerEmail: "customer2@example.com", Status: order.StatusPending, OrderDate: "2026-10-14", Location: "Warehouse - Processing"},
		{ID: 3, CustomerEmail: "customer1@example.com", Status: order.StatusShipped, OrderDate: "2026-09-15", Location: "In Transit - Chicago Hub"},
		{ID: 4, CustomerEmail: "customer3@example.com", Status: order.StatusReturned, OrderDate: "2026-09-30", Location: "Return Center"},
		{ID: 5, CustomerEmail: "customer3@example.com", Status: order.StatusShipped, OrderDate: "2026-09-16", Location: "Out for Delivery"},
		{ID: 6, CustomerEmail: "customer4@example.com", Status: order.StatusShipped, OrderDate: "not-a-date", Location: "Local Carrier"},
	}
}

type countingRepo struct {
	*order.MemoryRepository
	updates int
}

func (r *countingRepo) Update(ctx context.Context, o order.Order) error {
	r.updates++
	return r.MemoryRepository.Update(ctx, o)
}

type fixture struct {
	exec *Executor
	repo *countingRepo
}

func newFixture(t *testing.T, searcher PolicySearcher) fixture {
	t.Helper()

	mem, err := order.NewMemoryRepository(testOrders())
	if err != nil {
		t.Fatalf("NewMemoryRepository() error = %v", err)
	}
	repo := &countingRepo{MemoryRepository: mem}
	store, err := order.NewStore(repo)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if searcher == nil {
		docs, err := policy.DefaultDocuments()
		if err != nil {
			t.Fatalf("DefaultDocuments() error = %v", err)
		}
		ix, err := policy.Build(context.Background(), embedding.NewHashEmbedder(384), docs)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		searcher = ix
	}

	exec, err := NewExecutor(Deps{
		Orders:  store,
		Policy:  searcher,
		Now:     func() time.Time { return fixedNow },
		Metrics: metrics.New(),
	})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	return fixture{exec: exec, repo: repo}
}

func call(t *testing.T, e *Executor, tool string, args map[string]any) contractx.ToolResult {
	t.Helper()
	out, err := e.Call(context.Background(), tool, args)
	if err != nil {
		t.Fatalf("Call(%s) error = %v", tool, err)
	}
	if out.Tool != tool {
		t.Fatalf("Tool = %q, want %q", out.Tool, tool)
	}
	return out
}

func TestInfosMatchNames(t *testing.T) {
	t.Parallel()

	infos := Infos()
	names := Names()
	if len(infos) != len(names) {
		t.Fatalf("len(infos) = %d, want %d", len(infos), len(names))
	}
	for i, info := range infos {
		if info.Name != names[i] {
			t.Fatalf("infos[%d] = %s, want %s", i, info.Name, names[i])
		}
		if info.Desc == "" || info.ParamsOneOf == nil {
			t.Fatalf("tool %s has no description or params", info.Name)
		}
	}
}

func TestLookupOrderByIDEveryOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	for _, o := range testOrders() {
		if o.ID == 6 {
			continue
		}
		text := strconv.FormatInt(o.ID, 10)
		for _, raw := range []any{o.ID, float64(o.ID), json.Number(text), " " + text} {
			out := call(t, f.exec, ToolLookupOrder, map[string]any{"order_id": raw})
			details, ok := out.Result.(OrderDetails)
			if !ok {
				t.Fatalf("Result type = %T (error %q)", out.Result, out.Error)
			}
			if details.ID != o.ID {
				t.Fatalf("id = %d, want %d", details.ID, o.ID)
			}
		}
	}
}

func TestLookupOrderEstimates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	cases := map[int64]string{
		1: "Delivered",
		2: "2026-10-19",
		3: "2026-10-18",
		4: "N/A - Order returned",
		5: "Today",
	}
	for id, want := range cases {
		out := call(t, f.exec, ToolLookupOrder, map[string]any{"order_id": id})
		if got := out.Result.(OrderDetails).EstimatedDelivery; got != want {
			t.Fatalf("order %d estimate = %q, want %q", id, got, want)
		}
	}
}

func TestLookupOrderByEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	out := call(t, f.exec, ToolLookupOrder, map[string]any{"customer_email": "Customer1@Example.com "})
	list, ok := out.Result.([]OrderDetails)
	if !ok {
		t.Fatalf("Result type = %T (error %q)", out.Result, out.Error)
	}
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 3 {
		t.Fatalf("orders = %+v", list)
	}
	if list[1].EstimatedDelivery != "2026-10-18" {
		t.Fatalf("estimate = %q", list[1].EstimatedDelivery)
	}
}

func TestLookupOrderErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	cases := []struct {
		args map[string]any
		want string
	}{
		{args: map[string]any{"order_id": 99}, want: "Order 99 not found"},
		{args: map[string]any{"customer_email": "nobody@example.com"}, want: "No orders found for nobody@example.com"},
		{args: map[string]any{}, want: "Please provide either order_id or customer_email"},
		{args: map[string]any{"order_id": "", "customer_email": " "}, want: "Please provide either order_id or customer_email"},
	}
	for _, tc := range cases {
		out := call(t, f.exec, ToolLookupOrder, tc.args)
		if out.Error != tc.want {
			t.Fatalf("args %v: Error = %q, want %q", tc.args, out.Error, tc.want)
		}
		if out.Result != nil {
			t.Fatalf("args %v: Result = %v, want nil", tc.args, out.Result)
		}
	}

	out := call(t, f.exec, ToolLookupOrder, map[string]any{"order_id": "abc"})
	if !out.Failed() || !strings.Contains(out.Error, "not an integer") {
		t.Fatalf("Error = %q", out.Error)
	}
}

func TestCheckReturnEligibility(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	out := call(t, f.exec, ToolCheckReturnEligibility, map[string]any{"order_id": 1})
	res := out.Result.(EligibilityResult)
	if !res.Eligible || res.DaysRemaining == nil || *res.DaysRemaining != 20 {
		t.Fatalf("order 1 = %+v", res)
	}
	if res.OrderDetails == nil || res.OrderDetails.ID != 1 {
		t.Fatalf("order_details = %+v", res.OrderDetails)
	}

	out = call(t, f.exec, ToolCheckReturnEligibility, map[string]any{"order_id": 3})
	res = out.Result.(EligibilityResult)
	if res.Eligible || !strings.Contains(res.Reason, "ordered 31 days ago") {
		t.Fatalf("order 3 = %+v", res)
	}

	out = call(t, f.exec, ToolCheckReturnEligibility, map[string]any{"order_id": 4})
	if res := out.Result.(EligibilityResult); res.Reason != order.ReasonAlreadyReturned {
		t.Fatalf("order 4 reason = %q", res.Reason)
	}
	out = call(t, f.exec, ToolCheckReturnEligibility, map[string]any{"order_id": 2})
	if res := out.Result.(EligibilityResult); res.Reason != order.ReasonStillPending {
		t.Fatalf("order 2 reason = %q", res.Reason)
	}

	out = call(t, f.exec, ToolCheckReturnEligibility, map[string]any{"order_id": 6})
	if !out.Failed() {
		t.Fatal("unparseable date must be a tool error")
	}
	out = call(t, f.exec, ToolCheckReturnEligibility, map[string]any{"order_id": 42})
	if out.Error != "Order 42 not found" {
		t.Fatalf("Error = %q", out.Error)
	}
}

func TestEligibilityJSONKeepsZeroDaysRemaining(t *testing.T) {
	t.Parallel()

	days := 0
	raw, err := json.Marshal(EligibilityResult{Eligible: true, DaysRemaining: &days})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(raw), `"days_remaining":0`) {
		t.Fatalf("json = %s", raw)
	}
}

func TestTrackOrderLocation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	out := call(t, f.exec, ToolTrackOrderLocation, map[string]any{"order_id": "5"})
	got := out.Result.(TrackingResult)
	want := TrackingResult{
		OrderID:           5,
		Status:            order.StatusShipped,
		Location:          "Out for Delivery",
		OrderDate:         "2026-09-16",
		EstimatedDelivery: "Today",
	}
	if got != want {
		t.Fatalf("TrackOrderLocation = %+v, want %+v", got, want)
	}
}

func TestProcessReturnRejectedDoesNotMutate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	check := call(t, f.exec, ToolCheckReturnEligibility, map[string]any{"order_id": 3})
	out := call(t, f.exec, ToolProcessReturn, map[string]any{"order_id": 3, "reason": "too late"})

	res := out.Result.(ReturnResult)
	if res.Status != order.ReturnRejected {
		t.Fatalf("Status = %s", res.Status)
	}
	if res.Reason != check.Result.(EligibilityResult).Reason {
		t.Fatalf("Reason = %q, want eligibility reason", res.Reason)
	}
	if f.repo.updates != 0 {
		t.Fatalf("updates = %d, want 0", f.repo.updates)
	}
}

func TestProcessReturnApproved(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	out := call(t, f.exec, ToolProcessReturn, map[string]any{"order_id": 1, "reason": "wrong size"})

	res := out.Result.(ReturnResult)
	if res.Status != order.ReturnApproved {
		t.Fatalf("Status = %s (reason %q)", res.Status, res.Reason)
	}
	if !regexp.MustCompile(`^RET-1-\d{8}$`).MatchString(res.ReturnID) || res.ReturnID != "RET-1-20261016" {
		t.Fatalf("ReturnID = %q", res.ReturnID)
	}
	if res.Instructions != order.ReturnInstructions {
		t.Fatalf("Instructions = %q", res.Instructions)
	}
	if f.repo.updates != 1 {
		t.Fatalf("updates = %d, want 1", f.repo.updates)
	}

	again := call(t, f.exec, ToolCheckReturnEligibility, map[string]any{"order_id": 1})
	if again.Result.(EligibilityResult).Reason != order.ReasonAlreadyReturned {
		t.Fatalf("second check = %+v", again.Result)
	}

	missing := call(t, f.exec, ToolProcessReturn, map[string]any{"order_id": 77})
	if missing.Error != "Order 77 not found" {
		t.Fatalf("Error = %q", missing.Error)
	}
}

func TestSearchReturnPolicy(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	out := call(t, f.exec, ToolSearchReturnPolicy, map[string]any{"query": "refund timeframe"})
	entries, ok := out.Result.(PolicyResult).Policy.([]PolicyEntry)
	if !ok || len(entries) == 0 {
		t.Fatalf("Policy = %#v", out.Result)
	}
	if entries[0].Category != "Refund Process & Timeframes" {
		t.Fatalf("top category = %q", entries[0].Category)
	}

	blank := call(t, f.exec, ToolSearchReturnPolicy, map[string]any{"query": " "})
	if !blank.Failed() {
		t.Fatal("blank query must fail")
	}
}

type emptySearcher struct{}

func (emptySearcher) Search(context.Context, string, int) ([]policy.Hit, error) { return nil, nil }

func TestSearchReturnPolicySentinel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, emptySearcher{})
	out := call(t, f.exec, ToolSearchReturnPolicy, map[string]any{"query": "electronics"})
	if out.Result.(PolicyResult).Policy != NoPolicyFound {
		t.Fatalf("Policy = %#v", out.Result)
	}
}

type corruptRepo struct{ order.Repository }

func (corruptRepo) Get(context.Context, int64) (order.Order, error) {
	return order.Order{}, contractx.ErrCorruptData
}

func TestCorruptDataIsHardError(t *testing.T) {
	t.Parallel()

	store, err := order.NewStore(corruptRepo{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	exec, err := NewExecutor(Deps{Orders: store, Policy: emptySearcher{}})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	_, err = exec.Call(context.Background(), ToolTrackOrderLocation, map[string]any{"order_id": 1})
	if !errors.Is(err, contractx.ErrCorruptData) {
		t.Fatalf("Call() error = %v, want ErrCorruptData", err)
	}

	results, err := exec.Execute(context.Background(), []contractx.ToolRequest{
		{ID: "a", Tool: ToolSearchReturnPolicy, Args: map[string]any{"query": "x"}},
		{ID: "b", Tool: ToolLookupOrder, Args: map[string]any{"order_id": 1}},
	})
	if !errors.Is(err, contractx.ErrCorruptData) {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("results = %+v", results)
	}
}

func TestUnknownTool(t *testing.T) {
	t.Parallel()

	f := newFixture(t, emptySearcher{})
	out := call(t, f.exec, "math.evaluate", nil)
	if !out.Failed() {
		t.Fatal("unknown tool must fail")
	}
}
