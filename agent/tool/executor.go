package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/policy"
	"github.com/nextgensultan/agentic-policybased-chatbot/pkg/metrics"
)

// PolicySearcher is satisfied by *policy.Index.
type PolicySearcher interface {
	Search(ctx context.Context, query string, k int) ([]policy.Hit, error)
}

type Deps struct {
	Orders  *order.Store
	Returns *order.Returns
	Policy  PolicySearcher
	TopK    int
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// Executor runs tool calls. Domain failures come back inside
// ToolResult.Error; only corrupt persisted data is returned as an error.
type Executor struct {
	orders  *order.Store
	returns *order.Returns
	policy  PolicySearcher
	topK    int
	now     func() time.Time
	metrics *metrics.Metrics
}

var _ contractx.ToolGateway = (*Executor)(nil)

func NewExecutor(deps Deps) (*Executor, error) {
	if deps.Orders == nil {
		return nil, fmt.Errorf("%w: order store is required", contractx.ErrValidation)
	}
	if deps.Policy == nil {
		return nil, fmt.Errorf("%w: policy index is required", contractx.ErrValidation)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	returns := deps.Returns
	if returns == nil {
		returns = order.NewReturns(deps.Orders, order.WithClock(now))
	}
	topK := deps.TopK
	if topK <= 0 {
		topK = policy.DefaultTopK
	}
	return &Executor{
		orders:  deps.Orders,
		returns: returns,
		policy:  deps.Policy,
		topK:    topK,
		now:     now,
		metrics: deps.Metrics,
	}, nil
}

// Execute runs reqs in order. It stops at the first hard error.
func (e *Executor) Execute(ctx context.Context, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	out := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		res, err := e.Call(ctx, req.Tool, req.Args)
		if err != nil {
			return out, err
		}
		res.ID = req.ID
		out = append(out, res)
	}
	return out, nil
}

func (e *Executor) Call(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	start := time.Now()

	var (
		result any
		err    error
	)
	switch tool {
	case ToolLookupOrder:
		result, err = e.lookupOrder(ctx, args)
	case ToolCheckReturnEligibility:
		result, err = e.checkReturnEligibility(ctx, args)
	case ToolTrackOrderLocation:
		result, err = e.trackOrderLocation(ctx, args)
	case ToolProcessReturn:
		result, err = e.processReturn(ctx, args)
	case ToolSearchReturnPolicy:
		result, err = e.searchReturnPolicy(ctx, args)
	default:
		err = fmt.Errorf("%w: unknown tool %q", contractx.ErrInvalidArgument, tool)
	}

	logger := log.Ctx(ctx).With().Str("tool", tool).Dur("took", time.Since(start)).Logger()
	switch {
	case err == nil:
		e.metrics.ObserveTool(tool, metrics.OutcomeOK)
		logger.Debug().Msg("tool executed")
		return contractx.ToolResult{Tool: tool, Result: result}, nil
	case errors.Is(err, contractx.ErrCorruptData):
		e.metrics.ObserveTool(tool, metrics.OutcomeError)
		logger.Error().Err(err).Msg("tool hit corrupt data")
		return contractx.ToolResult{Tool: tool}, err
	default:
		e.metrics.ObserveTool(tool, metrics.OutcomeFailed)
		logger.Info().Err(err).Msg("tool failed")
		return contractx.ToolResult{Tool: tool, Error: toolMessage(err)}, nil
	}
}

// toolError carries the exact text shown to the model.
type toolError struct {
	msg   string
	cause error
}

func (e *toolError) Error() string { return e.msg }
func (e *toolError) Unwrap() error { return e.cause }

func orderNotFound(id int64, cause error) error {
	return &toolError{msg: fmt.Sprintf("Order %d not found", id), cause: cause}
}

func toolMessage(err error) string {
	var te *toolError
	if errors.As(err, &te) {
		return te.msg
	}
	return err.Error()
}

func (e *Executor) findOrder(ctx context.Context, id int64) (order.Order, error) {
	o, err := e.orders.FindByID(ctx, id)
	if errors.Is(err, contractx.ErrNotFound) {
		return order.Order{}, orderNotFound(id, err)
	}
	return o, err
}

func (e *Executor) details(o order.Order, now time.Time) (OrderDetails, error) {
	est, err := order.EstimateDelivery(o, now)
	if err != nil {
		return OrderDetails{}, err
	}
	return OrderDetails{Order: o, EstimatedDelivery: est}, nil
}

func (e *Executor) lookupOrder(ctx context.Context, args map[string]any) (any, error) {
	now := e.now()

	if raw, ok := presentArg(args, "order_id"); ok {
		id, err := order.ParseID(raw)
		if err != nil {
			return nil, err
		}
		o, err := e.findOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return e.details(o, now)
	}

	email, err := stringArg(args, "customer_email")
	if err != nil {
		return nil, err
	}
	if email == "" {
		return nil, &toolError{msg: "Please provide either order_id or customer_email", cause: contractx.ErrInvalidArgument}
	}

	orders, err := e.orders.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, &toolError{msg: fmt.Sprintf("No orders found for %s", email), cause: contractx.ErrNotFound}
	}
	out := make([]OrderDetails, 0, len(orders))
	for _, o := range orders {
		d, err := e.details(o, now)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (e *Executor) checkReturnEligibility(ctx context.Context, args map[string]any) (any, error) {
	id, err := order.ParseID(args["order_id"])
	if err != nil {
		return nil, err
	}
	o, err := e.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	verdict, err := order.Evaluate(o, e.now())
	if err != nil {
		return nil, err
	}
	if !verdict.Eligible {
		return EligibilityResult{Reason: verdict.Reason}, nil
	}
	days := verdict.DaysRemaining
	snapshot := verdict.Order
	return EligibilityResult{Eligible: true, DaysRemaining: &days, OrderDetails: &snapshot}, nil
}

func (e *Executor) trackOrderLocation(ctx context.Context, args map[string]any) (any, error) {
	id, err := order.ParseID(args["order_id"])
	if err != nil {
		return nil, err
	}
	o, err := e.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	est, err := order.EstimateDelivery(o, e.now())
	if err != nil {
		return nil, err
	}
	return TrackingResult{
		OrderID:           o.ID,
		Status:            o.Status,
		Location:          o.Location,
		OrderDate:         o.OrderDate,
		EstimatedDelivery: est,
	}, nil
}

func (e *Executor) processReturn(ctx context.Context, args map[string]any) (any, error) {
	id, err := order.ParseID(args["order_id"])
	if err != nil {
		return nil, err
	}
	reason, err := stringArg(args, "reason")
	if err != nil {
		return nil, err
	}

	outcome, err := e.returns.Process(ctx, id, reason)
	if errors.Is(err, contractx.ErrNotFound) {
		return nil, orderNotFound(id, err)
	}
	if err != nil {
		return nil, err
	}
	return ReturnResult{
		Status:       outcome.Status,
		ReturnID:     outcome.ReturnID,
		Instructions: outcome.Instructions,
		Reason:       outcome.Reason,
	}, nil
}

func (e *Executor) searchReturnPolicy(ctx context.Context, args map[string]any) (any, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	hits, err := e.policy.Search(ctx, query, e.topK)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return PolicyResult{Policy: NoPolicyFound}, nil
	}
	entries := make([]PolicyEntry, 0, len(hits))
	for _, h := range hits {
		entries = append(entries, PolicyEntry{
			Content:        h.Content,
			Category:       h.Title,
			RelevanceScore: h.Score,
		})
	}
	return PolicyResult{Policy: entries}, nil
}

// presentArg reports a value for key unless it is missing, null or blank.
func presentArg(args map[string]any, key string) (any, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", contractx.ErrInvalidArgument, key)
	}
	return strings.TrimSpace(s), nil
}
