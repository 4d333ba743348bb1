package shipping

// PlanInput is one immutable snapshot of everything the engine derives the
// shipment plan from. Equal snapshots always produce equal plans, so callers
// may recompute freely.
type PlanInput struct {
	Items              []CartItem
	PersistedShipments []PersistedShipment
	Overrides          Overrides
	Groupings          Groupings
	OverrideConfirmed  bool
	// Today anchors DefaultWindow for unconstrained shipments, YYYY-MM-DD.
	Today string
	// DefaultWindowDays overrides DefaultWindowDays when positive.
	DefaultWindowDays int
}

// ShipmentErrors carries the per-field validation messages for one shipment.
type ShipmentErrors struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Plan is the derived view handed to the UI and the order submitter.
type Plan struct {
	Shipments []PlannedShipment
	// Errors maps shipment id to its date violations; only failing shipments
	// have an entry.
	Errors    map[string]ShipmentErrors
	HasErrors bool
	// CanSubmit gates order submission: no errors, or errors explicitly
	// overridden by the user.
	CanSubmit bool
}

// ComputeShipments partitions the cart into shipments, applies the user's
// combine groupings, computes combinability, and validates every shipment's
// proposed dates against its collection constraints.
func ComputeShipments(in PlanInput) Plan {
	shipments := partitionShipments(in.Items, in.PersistedShipments, in.Overrides, in.Today, in.DefaultWindowDays)
	shipments = applyGroupings(shipments, in.Items, in.Groupings, in.Overrides)
	analyzeCombinability(shipments)

	itemsBySKU := make(map[string]CartItem, len(in.Items))
	for _, item := range in.Items {
		itemsBySKU[item.SKU] = item
	}

	errs := map[string]ShipmentErrors{}
	for _, s := range shipments {
		result := Validate(s.PlannedShipStart, s.PlannedShipEnd, shipmentConstraints(s, itemsBySKU))
		if result.Valid {
			continue
		}
		var se ShipmentErrors
		for _, fe := range result.Errors {
			switch fe.Field {
			case FieldStart:
				if se.Start == "" {
					se.Start = fe.Message
				}
			case FieldEnd:
				if se.End == "" {
					se.End = fe.Message
				}
			}
		}
		errs[s.ID] = se
	}

	hasErrors := len(errs) > 0
	return Plan{
		Shipments: shipments,
		Errors:    errs,
		HasErrors: hasErrors,
		CanSubmit: !hasErrors || in.OverrideConfirmed,
	}
}

// shipmentConstraints builds the windows a shipment's dates must satisfy. A
// combined shipment answers to every distinct collection its members came
// from; a plain shipment answers to its own allowed bounds, if any.
func shipmentConstraints(s PlannedShipment, itemsBySKU map[string]CartItem) []CollectionWindow {
	if s.IsCombined {
		var members []CartItem
		for _, sku := range s.ItemSKUs {
			if item, ok := itemsBySKU[sku]; ok {
				members = append(members, item)
			}
		}
		return distinctWindows(members)
	}
	if s.MinAllowedStart == "" && s.MinAllowedEnd == "" {
		return nil
	}
	window := CollectionWindow{
		Name:            s.CollectionName,
		ShipWindowStart: s.MinAllowedStart,
		ShipWindowEnd:   s.MinAllowedEnd,
	}
	if s.CollectionID != nil {
		window.ID = *s.CollectionID
	}
	return []CollectionWindow{window}
}
