package order

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/nextgensultan/agentic-policybased-chatbot/agent/contract"
)

func TestEstimateDelivery(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		name     string
		status   Status
		location string
		want     string
	}{
		{name: "pending ships five days after order", status: StatusPending, location: "Warehouse", want: "2026-04-06"},
		{name: "delivered", status: StatusShipped, location: "Delivered - Front Door", want: "Delivered"},
		{name: "out for delivery", status: StatusShipped, location: "Out for Delivery - Springfield", want: "Today"},
		{name: "in transit", status: StatusShipped, location: "In Transit - Chicago Hub", want: "2026-04-12"},
		{name: "local carrier", status: StatusShipped, location: "With Local Carrier", want: "2026-04-11"},
		{name: "other shipped", status: StatusShipped, location: "Departed Facility", want: "2026-04-13"},
		{name: "returned", status: StatusReturned, location: "Return Center", want: "N/A - Order returned"},
		{name: "unknown status", status: Status("cancelled"), location: "", want: "Unknown"},
	}

	for _, tc := range cases {
		got, err := EstimateDelivery(Order{
			ID:        1,
			Status:    tc.status,
			OrderDate: "2026-04-01",
			Location:  tc.location,
		}, now)
		if err != nil {
			t.Fatalf("%s: EstimateDelivery() error = %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: EstimateDelivery() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEstimateDeliveryBadDate(t *testing.T) {
	t.Parallel()

	_, err := EstimateDelivery(Order{Status: StatusShipped, OrderDate: "not-a-date", Location: "Delivered"}, time.Now())
	if !errors.Is(err, contractx.ErrInvalidArgument) {
		t.Fatalf("EstimateDelivery() error = %v, want ErrInvalidArgument", err)
	}
}
