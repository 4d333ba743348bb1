package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
)

// CollectionDTO is the collection summary exposed to clients and to the
// shipment planner.
type CollectionDTO struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	ShipWindowStart *string `json:"ship_window_start,omitempty"`
	ShipWindowEnd   *string `json:"ship_window_end,omitempty"`
}

// SKUDTO is the lookup-table row the ordering flow consumes.
type SKUDTO struct {
	SKU         string          `json:"sku"`
	VariantID   int64           `json:"variant_id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    enums.Currency  `json:"currency"`
	Collection  *CollectionDTO  `json:"collection,omitempty"`
}

func collectionDTO(c *models.Collection) *CollectionDTO {
	if c == nil {
		return nil
	}
	return &CollectionDTO{
		ID:              c.ID,
		Name:            c.Name,
		ShipWindowStart: c.ShipWindowStart,
		ShipWindowEnd:   c.ShipWindowEnd,
	}
}

func skuDTO(row models.SKU) SKUDTO {
	return SKUDTO{
		SKU:         row.SKU,
		VariantID:   row.VariantID,
		Description: row.Description,
		Price:       row.Price,
		Currency:    row.Currency,
		Collection:  collectionDTO(row.Collection),
	}
}
