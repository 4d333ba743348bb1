package shipping

import (
	"sort"
	"strings"
)

// CombinedShipmentID derives the id recorded in the grouping map when the
// given shipments are merged. The constituent ids are sorted first, so the
// same set of shipments always maps to the same id regardless of selection
// order and a later override keeps targeting the merged shipment.
func CombinedShipmentID(originalIDs []string) string {
	ids := append([]string(nil), originalIDs...)
	sort.Strings(ids)
	return "combined-" + strings.Join(ids, "+")
}

// applyGroupings replaces each active group's constituent shipments with one
// combined shipment, leaving ungrouped shipments untouched. The combined
// entry takes the position of its first constituent. Groups whose recorded
// constituents have dwindled below two (items removed from the cart) are
// ignored until the user splits or re-combines.
func applyGroupings(shipments []PlannedShipment, items []CartItem, groupings Groupings, overrides Overrides) []PlannedShipment {
	if len(groupings) == 0 {
		return shipments
	}

	combinedIDs := make([]string, 0, len(groupings))
	for id := range groupings {
		combinedIDs = append(combinedIDs, id)
	}
	sort.Strings(combinedIDs)

	byID := make(map[string]int, len(shipments))
	for i, s := range shipments {
		byID[s.ID] = i
	}
	itemsBySKU := make(map[string]CartItem, len(items))
	for _, item := range items {
		itemsBySKU[item.SKU] = item
	}

	grouped := map[string]bool{}
	combinedAt := map[int]PlannedShipment{}
	for _, combinedID := range combinedIDs {
		var constituents []PlannedShipment
		first := -1
		for _, originalID := range groupings[combinedID] {
			at, ok := byID[originalID]
			if !ok {
				continue
			}
			if first < 0 || at < first {
				first = at
			}
			constituents = append(constituents, shipments[at])
		}
		if len(constituents) < 2 {
			continue
		}
		for _, c := range constituents {
			grouped[c.ID] = true
		}
		combinedAt[first] = combineShipments(combinedID, constituents, itemsBySKU, overrides)
	}

	out := make([]PlannedShipment, 0, len(shipments))
	for i, s := range shipments {
		if combined, ok := combinedAt[i]; ok {
			out = append(out, combined)
		}
		if grouped[s.ID] {
			continue
		}
		out = append(out, s)
	}
	return out
}

func combineShipments(combinedID string, constituents []PlannedShipment, itemsBySKU map[string]CartItem, overrides Overrides) PlannedShipment {
	var skus []string
	var names []string
	var originalIDs []string
	var members []CartItem
	for _, c := range constituents {
		originalIDs = append(originalIDs, c.ID)
		skus = append(skus, c.ItemSKUs...)
		if c.CollectionName != "" {
			names = append(names, c.CollectionName)
		}
		for _, sku := range c.ItemSKUs {
			if item, ok := itemsBySKU[sku]; ok {
				members = append(members, item)
			}
		}
	}

	windows := distinctWindows(members)
	min := MinimumAllowedDates(windows)
	s := PlannedShipment{
		ID:                  combinedID,
		CollectionName:      strings.Join(names, " + "),
		ItemSKUs:            skus,
		MinAllowedStart:     min.Start,
		MinAllowedEnd:       min.End,
		IsCombined:          true,
		OriginalShipmentIDs: originalIDs,
	}

	switch {
	case overrides.has(combinedID):
		s.PlannedShipStart, s.PlannedShipEnd = overrides.dates(combinedID)
	default:
		s.PlannedShipStart, s.PlannedShipEnd = combinedDefaultDates(windows, constituents[0])
	}
	return s
}

// combinedDefaultDates proposes dates for a freshly merged shipment: the
// common intersection when the constituent windows share one, else the most
// restrictive bounds, else the first constituent's own dates (all
// constituents unconstrained).
func combinedDefaultDates(windows []CollectionWindow, first PlannedShipment) (string, string) {
	if w := Overlap(windows); w != nil && w.Start != "" && w.End != "" {
		return w.Start, w.End
	}
	if min := MinimumAllowedDates(windows); min.Start != "" && min.End != "" {
		return min.Start, min.End
	}
	return first.PlannedShipStart, first.PlannedShipEnd
}

// analyzeCombinability fills each ungrouped shipment's CanCombineWith with
// the ids of the other ungrouped shipments whose allowed windows overlap its
// own. Combined shipments are never offered as combine sources or targets;
// fully unconstrained shipments combine with anything.
func analyzeCombinability(shipments []PlannedShipment) {
	for i := range shipments {
		shipments[i].CanCombineWith = nil
		if shipments[i].IsCombined {
			continue
		}
		for j := range shipments {
			if i == j || shipments[j].IsCombined {
				continue
			}
			if allowedWindowsOverlap(shipments[i], shipments[j]) {
				shipments[i].CanCombineWith = append(shipments[i].CanCombineWith, shipments[j].ID)
			}
		}
	}
}

func allowedWindowsOverlap(a, b PlannedShipment) bool {
	start := maxDate(a.MinAllowedStart, b.MinAllowedStart)
	end := minDate(a.MinAllowedEnd, b.MinAllowedEnd)
	if start == "" || end == "" {
		return true
	}
	return start <= end
}

func maxDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || a > b {
		return a
	}
	return b
}

func minDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" || a < b {
		return a
	}
	return b
}
