package tool

import (
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order"
)

// NoPolicyFound is returned in place of an empty policy list.
const NoPolicyFound = "No specific policy information found for your query."

type OrderDetails struct {
	order.Order
	EstimatedDelivery string `json:"estimated_delivery"`
}

type EligibilityResult struct {
	Eligible      bool         `json:"eligible"`
	Reason        string       `json:"reason,omitempty"`
	DaysRemaining *int         `json:"days_remaining,omitempty"`
	OrderDetails  *order.Order `json:"order_details,omitempty"`
}

type TrackingResult struct {
	OrderID           int64        `json:"order_id"`
	Status            order.Status `json:"status"`
	Location          string       `json:"location"`
	OrderDate         string       `json:"order_date"`
	EstimatedDelivery string       `json:"estimated_delivery"`
}

type ReturnResult struct {
	Status       order.ReturnStatus `json:"status"`
	ReturnID     string             `json:"return_id,omitempty"`
	Instructions string             `json:"instructions,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}

type PolicyEntry struct {
	Content        string  `json:"content"`
	Category       string  `json:"category"`
	RelevanceScore float32 `json:"relevance_score"`
}

// PolicyResult.Policy holds either []PolicyEntry or the NoPolicyFound text.
type PolicyResult struct {
	Policy any `json:"policy"`
}
