package order

import (
	"strings"
	"time"
)

const (
	EstimateDelivered      = "Delivered"
	EstimateToday          = "Today"
	EstimateReturned       = "N/A - Order returned"
	EstimateUnknown        = "Unknown"
	pendingShipLeadDays    = 5
	inTransitLeadDays      = 2
	localCarrierLeadDays   = 1
	defaultShippedLeadDays = 3
)

// EstimateDelivery renders the customer-facing delivery estimate for o as of
// now. The order date must parse whatever the status.
func EstimateDelivery(o Order, now time.Time) (string, error) {
	orderDate, err := ParseDate(o.OrderDate, now.Location())
	if err != nil {
		return "", err
	}

	switch o.Status {
	case StatusPending:
		return orderDate.AddDate(0, 0, pendingShipLeadDays).Format(DateLayout), nil
	case StatusShipped:
		switch {
		case strings.Contains(o.Location, "Delivered"):
			return EstimateDelivered, nil
		case strings.Contains(o.Location, "Out for Delivery"):
			return EstimateToday, nil
		case strings.Contains(o.Location, "In Transit"):
			return now.AddDate(0, 0, inTransitLeadDays).Format(DateLayout), nil
		case strings.Contains(o.Location, "Local Carrier"):
			return now.AddDate(0, 0, localCarrierLeadDays).Format(DateLayout), nil
		default:
			return now.AddDate(0, 0, defaultShippedLeadDays).Format(DateLayout), nil
		}
	case StatusReturned:
		return EstimateReturned, nil
	default:
		return EstimateUnknown, nil
	}
}
