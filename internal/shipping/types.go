package shipping

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// CartItem is the engine's read-only view of one cart line. A nil
// CollectionID marks available-to-ship inventory with no window constraint.
type CartItem struct {
	SKU             string
	SKUVariantID    int64
	Quantity        int
	Price           decimal.Decimal
	CollectionID    *int64
	CollectionName  string
	ShipWindowStart string
	ShipWindowEnd   string
}

func (i CartItem) collectionWindow() (CollectionWindow, bool) {
	if i.CollectionID == nil {
		return CollectionWindow{}, false
	}
	return CollectionWindow{
		ID:              *i.CollectionID,
		Name:            i.CollectionName,
		ShipWindowStart: i.ShipWindowStart,
		ShipWindowEnd:   i.ShipWindowEnd,
	}, true
}

// PersistedShipment is a shipment already saved on an order being edited.
type PersistedShipment struct {
	ID                  string
	CollectionID        *int64
	CollectionName      string
	ItemSKUs            []string
	PlannedShipStart    string
	PlannedShipEnd      string
	IsCombined          bool
	OriginalShipmentIDs []string
}

// PlannedShipment is one entry of the derived shipment plan. Item membership,
// not the id, is the durable identity across recomputation.
type PlannedShipment struct {
	ID                  string
	CollectionID        *int64
	CollectionName      string
	ItemSKUs            []string
	PlannedShipStart    string
	PlannedShipEnd      string
	MinAllowedStart     string
	MinAllowedEnd       string
	IsCombined          bool
	OriginalShipmentIDs []string
	CanCombineWith      []string
}

// Overrides maps a shipment id to the dates the user chose for it. Entries
// survive recomputation until explicitly cleared.
type Overrides map[string]Window

// Groupings maps a combined shipment id to the ids of the shipments the user
// merged into it.
type Groupings map[string][]string

// shipmentIdentity distinguishes ids synthesized from a collection grouping
// from opaque ids of shipments already persisted on an order. Synthesized ids
// are deterministic so override lookups survive recomputation.
type shipmentIdentity struct {
	persisted    string
	collectionID *int64
	// fresh marks a group synthesized while editing an existing order, whose
	// items were not claimed by any persisted shipment.
	fresh bool
}

func persistedIdentity(id string) shipmentIdentity {
	return shipmentIdentity{persisted: id}
}

func provisionalIdentity(collectionID *int64, fresh bool) shipmentIdentity {
	return shipmentIdentity{collectionID: collectionID, fresh: fresh}
}

func (s shipmentIdentity) String() string {
	if s.persisted != "" {
		return s.persisted
	}
	if s.fresh {
		if s.collectionID == nil {
			return "new-ats"
		}
		return "new-" + strconv.FormatInt(*s.collectionID, 10)
	}
	if s.collectionID == nil {
		return "shipment-default"
	}
	return "shipment-" + strconv.FormatInt(*s.collectionID, 10)
}
