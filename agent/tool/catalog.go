// Package tool is the surface the assistant acts through: five named tools
// over the order store, the return rules and the policy index.
package tool

import (
	"github.com/cloudwego/eino/schema"
)

const (
	ToolLookupOrder            = "LookupOrder"
	ToolCheckReturnEligibility = "CheckReturnEligibility"
	ToolTrackOrderLocation     = "TrackOrderLocation"
	ToolProcessReturn          = "ProcessReturn"
	ToolSearchReturnPolicy     = "SearchReturnPolicy"
)

// Descriptions double as the MCP tool descriptions.
var Descriptions = map[string]string{
	ToolLookupOrder:            "Look up order information by either order_id (number) or customer_email (string).",
	ToolCheckReturnEligibility: "Check if an order is eligible for return based on order_id (number).",
	ToolTrackOrderLocation:     "Track an order's current location and get estimated delivery date using order_id (number).",
	ToolProcessReturn:          "Process a return request using order_id (number) and optional reason (string).",
	ToolSearchReturnPolicy:     "Search for specific return policy information using a query. Use this for detailed policy questions.",
}

// Names lists the tools in catalog order.
func Names() []string {
	return []string{
		ToolLookupOrder,
		ToolCheckReturnEligibility,
		ToolTrackOrderLocation,
		ToolProcessReturn,
		ToolSearchReturnPolicy,
	}
}

func Infos() []*schema.ToolInfo {
	orderID := &schema.ParameterInfo{Type: schema.Integer, Desc: "Numeric order identifier", Required: true}

	return []*schema.ToolInfo{
		{
			Name: ToolLookupOrder,
			Desc: Descriptions[ToolLookupOrder],
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id":       {Type: schema.Integer, Desc: "Numeric order identifier"},
				"customer_email": {Type: schema.String, Desc: "Customer email address"},
			}),
		},
		{
			Name: ToolCheckReturnEligibility,
			Desc: Descriptions[ToolCheckReturnEligibility],
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": orderID,
			}),
		},
		{
			Name: ToolTrackOrderLocation,
			Desc: Descriptions[ToolTrackOrderLocation],
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": orderID,
			}),
		},
		{
			Name: ToolProcessReturn,
			Desc: Descriptions[ToolProcessReturn],
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": orderID,
				"reason":   {Type: schema.String, Desc: "Why the customer is returning the order"},
			}),
		},
		{
			Name: ToolSearchReturnPolicy,
			Desc: Descriptions[ToolSearchReturnPolicy],
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Question or keywords about return policies", Required: true},
			}),
		},
	}
}
