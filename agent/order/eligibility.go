package order

import (
	"fmt"
	"time"
)

// ReturnWindowDays is how long after the order date a return is accepted.
const ReturnWindowDays = 30

const (
	ReasonAlreadyReturned = "This order has already been returned."
	ReasonStillPending    = "This order is still pending and hasn't shipped yet."
)

type Eligibility struct {
	Eligible      bool
	Reason        string
	DaysRemaining int
	ElapsedDays   int
	Order         Order
}

// Evaluate applies the return rules in order; the first match wins.
func Evaluate(o Order, now time.Time) (Eligibility, error) {
	switch o.Status {
	case StatusReturned:
		return Eligibility{Reason: ReasonAlreadyReturned, Order: o}, nil
	case StatusPending:
		return Eligibility{Reason: ReasonStillPending, Order: o}, nil
	}

	orderDate, err := ParseDate(o.OrderDate, now.Location())
	if err != nil {
		return Eligibility{}, err
	}

	elapsed := ElapsedDays(orderDate, now)
	if elapsed > ReturnWindowDays {
		return Eligibility{
			Reason: fmt.Sprintf(
				"Return period has expired. Items must be returned within %d days of order date (ordered %d days ago).",
				ReturnWindowDays, elapsed,
			),
			ElapsedDays: elapsed,
			Order:       o,
		}, nil
	}

	return Eligibility{
		Eligible:      true,
		DaysRemaining: ReturnWindowDays - elapsed,
		ElapsedDays:   elapsed,
		Order:         o,
	}, nil
}

// ElapsedDays is the number of whole days between midnight of orderDate and
// now, measured on the wall clock so DST shifts do not move the boundary.
// Orders dated in the future count as zero days old.
func ElapsedDays(orderDate, now time.Time) int {
	d := wallClock(now).Sub(wallClock(midnight(orderDate)))
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
