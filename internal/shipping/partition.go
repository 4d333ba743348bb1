package shipping

// partitionShipments turns the flat cart-item list, plus any shipments
// persisted on an order being edited, into the current set of planned
// shipments. The result is deterministic for identical inputs: groups appear
// in first-seen cart order and persisted shipments keep their stored order.
func partitionShipments(items []CartItem, persisted []PersistedShipment, overrides Overrides, today string, defaultDays int) []PlannedShipment {
	if len(persisted) == 0 {
		return partitionNewOrder(items, overrides, today, defaultDays)
	}
	return reconcilePersisted(items, persisted, overrides, today, defaultDays)
}

type itemGroup struct {
	collectionID *int64
	items        []CartItem
}

// groupByCollection buckets items by collection id, treating nil as its own
// available-to-ship group, preserving first-seen order.
func groupByCollection(items []CartItem) []itemGroup {
	var groups []itemGroup
	index := map[int64]int{}
	atsIndex := -1
	for _, item := range items {
		if item.CollectionID == nil {
			if atsIndex < 0 {
				atsIndex = len(groups)
				groups = append(groups, itemGroup{})
			}
			groups[atsIndex].items = append(groups[atsIndex].items, item)
			continue
		}
		id := *item.CollectionID
		at, ok := index[id]
		if !ok {
			at = len(groups)
			index[id] = at
			cid := id
			groups = append(groups, itemGroup{collectionID: &cid})
		}
		groups[at].items = append(groups[at].items, item)
	}
	return groups
}

func partitionNewOrder(items []CartItem, overrides Overrides, today string, defaultDays int) []PlannedShipment {
	groups := groupByCollection(items)
	shipments := make([]PlannedShipment, 0, len(groups))
	for _, g := range groups {
		shipments = append(shipments, shipmentFromGroup(g, provisionalIdentity(g.collectionID, false), overrides, today, defaultDays))
	}
	return shipments
}

func shipmentFromGroup(g itemGroup, identity shipmentIdentity, overrides Overrides, today string, defaultDays int) PlannedShipment {
	id := identity.String()
	s := PlannedShipment{
		ID:           id,
		CollectionID: g.collectionID,
		ItemSKUs:     skusOf(g.items),
	}
	window, constrained := g.items[0].collectionWindow()
	if constrained {
		s.CollectionName = window.Name
		s.MinAllowedStart = window.ShipWindowStart
		s.MinAllowedEnd = window.ShipWindowEnd
	}

	switch {
	case overrides.has(id):
		s.PlannedShipStart, s.PlannedShipEnd = overrides.dates(id)
	case constrained && !window.window().IsZero():
		s.PlannedShipStart = window.ShipWindowStart
		s.PlannedShipEnd = window.ShipWindowEnd
	default:
		fallback := DefaultWindow(today, defaultDays)
		s.PlannedShipStart = fallback.Start
		s.PlannedShipEnd = fallback.End
	}
	return s
}

func reconcilePersisted(items []CartItem, persisted []PersistedShipment, overrides Overrides, today string, defaultDays int) []PlannedShipment {
	claimed := map[string]bool{}
	var shipments []PlannedShipment
	var existingATS *PlannedShipment

	for _, p := range persisted {
		members := membersOf(items, p.ItemSKUs)
		if len(members) == 0 {
			// Every SKU was removed from the cart; dropping the shipment here
			// is the deletion-on-save signal consumed by the order updater.
			continue
		}
		for _, m := range members {
			claimed[m.SKU] = true
		}

		s := PlannedShipment{
			ID:                  p.ID,
			CollectionID:        p.CollectionID,
			CollectionName:      p.CollectionName,
			ItemSKUs:            skusOf(members),
			IsCombined:          p.IsCombined,
			OriginalShipmentIDs: p.OriginalShipmentIDs,
		}

		if p.IsCombined && p.CollectionID == nil {
			// Min-allowed bounds are not stored for combined shipments;
			// rebuild them from the collections the current members reference.
			min := MinimumAllowedDates(distinctWindows(members))
			s.MinAllowedStart = min.Start
			s.MinAllowedEnd = min.End
		} else if window, ok := members[0].collectionWindow(); ok {
			s.MinAllowedStart = window.ShipWindowStart
			s.MinAllowedEnd = window.ShipWindowEnd
		}

		if overrides.has(p.ID) {
			s.PlannedShipStart, s.PlannedShipEnd = overrides.dates(p.ID)
		} else {
			s.PlannedShipStart = p.PlannedShipStart
			s.PlannedShipEnd = p.PlannedShipEnd
		}

		shipments = append(shipments, s)
		if p.CollectionID == nil && !p.IsCombined && existingATS == nil {
			ats := s
			existingATS = &ats
		}
	}

	var unclaimed []CartItem
	for _, item := range items {
		if !claimed[item.SKU] {
			unclaimed = append(unclaimed, item)
		}
	}

	for _, g := range groupByCollection(unclaimed) {
		s := shipmentFromGroup(g, provisionalIdentity(g.collectionID, true), overrides, today, defaultDays)
		// A newly added unconstrained item joins the dates the user already
		// chose for the existing available-to-ship shipment instead of
		// resetting to the default window.
		if g.collectionID == nil && existingATS != nil && !overrides.has(s.ID) {
			s.PlannedShipStart = existingATS.PlannedShipStart
			s.PlannedShipEnd = existingATS.PlannedShipEnd
		}
		shipments = append(shipments, s)
	}
	return shipments
}

func membersOf(items []CartItem, skus []string) []CartItem {
	want := make(map[string]bool, len(skus))
	for _, sku := range skus {
		want[sku] = true
	}
	var members []CartItem
	for _, item := range items {
		if want[item.SKU] {
			members = append(members, item)
		}
	}
	return members
}

func skusOf(items []CartItem) []string {
	skus := make([]string, len(items))
	for i, item := range items {
		skus[i] = item.SKU
	}
	return skus
}

// distinctWindows collects the collection windows referenced by the given
// items, one per distinct collection id, first-seen window winning.
func distinctWindows(items []CartItem) []CollectionWindow {
	var windows []CollectionWindow
	seen := map[int64]bool{}
	for _, item := range items {
		window, ok := item.collectionWindow()
		if !ok || seen[window.ID] {
			continue
		}
		seen[window.ID] = true
		windows = append(windows, window)
	}
	return windows
}

func (o Overrides) has(id string) bool {
	if o == nil {
		return false
	}
	_, ok := o[id]
	return ok
}

func (o Overrides) dates(id string) (string, string) {
	w := o[id]
	return w.Start, w.End
}
