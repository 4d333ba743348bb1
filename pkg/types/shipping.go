package types

// ShipWindowOverride stores the dates a user chose for one planned shipment.
// Dates are YYYY-MM-DD strings, the format the planner compares directly.
type ShipWindowOverride struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ShipDateOverrides maps shipment id to the user's chosen dates. Persisted as
// jsonb on the cart record so overrides survive across sessions.
type ShipDateOverrides map[string]ShipWindowOverride

// ShipmentGroupings maps a combined shipment id to the ids of the shipments
// merged into it. Persisted as jsonb on the cart record.
type ShipmentGroupings map[string][]string

// ShippingAddress is the destination snapshot recorded on an order.
type ShippingAddress struct {
	Company    string `json:"company,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
