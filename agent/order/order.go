// Package order holds the order domain: records, the delivery estimator,
// the return-eligibility rules and return processing.
package order

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusShipped  Status = "shipped"
	StatusReturned Status = "returned"
)

// DateLayout is the persisted and displayed date format.
const DateLayout = "2006-01-02"

type Order struct {
	ID            int64  `json:"id"`
	CustomerEmail string `json:"customer_email"`
	Status        Status `json:"status"`
	OrderDate     string `json:"order_date"`
	Location      string `json:"location"`
}

// ParseID converts a caller-supplied identifier into an order id. JSON
// numbers, Go integers and decimal strings are accepted.
func ParseID(v any) (int64, error) {
	switch id := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: order_id is required", contractx.ErrInvalidArgument)
	case int:
		return int64(id), nil
	case int32:
		return int64(id), nil
	case int64:
		return id, nil
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) || id != math.Trunc(id) {
			return 0, fmt.Errorf("%w: order_id %v is not an integer", contractx.ErrInvalidArgument, id)
		}
		return int64(id), nil
	case json.Number:
		return parseIDString(id.String())
	case string:
		return parseIDString(id)
	default:
		return 0, fmt.Errorf("%w: order_id has unsupported type %T", contractx.ErrInvalidArgument, v)
	}
}

func parseIDString(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: order_id is required", contractx.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: order_id %q is not an integer", contractx.ErrInvalidArgument, s)
	}
	return id, nil
}

// ParseDate reads a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: order_date %q: %v", contractx.ErrInvalidArgument, s, err)
	}
	return t, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func wallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, m, d, h, mi, sec, t.Nanosecond(), time.UTC)
}
