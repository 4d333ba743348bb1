package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/harborline/stockroom-backend/pkg/config"
	"github.com/harborline/stockroom-backend/pkg/db/models"
	"github.com/harborline/stockroom-backend/pkg/enums"
	"github.com/harborline/stockroom-backend/pkg/logger"
)

type executor interface {
	Execute(ctx context.Context, query string, variables map[string]any) (*GraphQLResponse, error)
}

type catalogStore interface {
	UpsertCollection(ctx context.Context, row *models.Collection) error
	UpsertSKUs(ctx context.Context, rows []models.SKU) error
	FindCollectionByShopifyID(ctx context.Context, shopifyID int64) (*models.Collection, error)
}

// Syncer mirrors collections and SKUs from the commerce platform into the
// local catalog tables the planner reads.
type Syncer struct {
	client   executor
	catalog  catalogStore
	pageSize int
	logg     *logger.Logger
}

// SyncResult reports how many rows each pass touched.
type SyncResult struct {
	Collections int
	SKUs        int
}

// NewSyncer wires the sync job.
func NewSyncer(client executor, catalog catalogStore, cfg config.ShopifyConfig, logg *logger.Logger) (*Syncer, error) {
	if client == nil {
		return nil, fmt.Errorf("shopify client required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Syncer{client: client, catalog: catalog, pageSize: pageSize, logg: logg}, nil
}

// SyncCatalog runs the collection pass, then the product pass. Bad rows are
// skipped and their errors aggregated so one malformed record cannot stall
// the whole sync.
func (s *Syncer) SyncCatalog(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}
	var errs error

	count, err := s.syncCollections(ctx)
	result.Collections = count
	errs = multierr.Append(errs, err)

	count, err = s.syncProducts(ctx)
	result.SKUs = count
	errs = multierr.Append(errs, err)

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"collections": result.Collections,
			"skus":        result.SKUs,
			"failures":    len(multierr.Errors(errs)),
		})
		s.logg.Info(logCtx, "catalog sync finished")
	}
	return result, errs
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type metafield struct {
	Value string `json:"value"`
}

type collectionsPayload struct {
	Collections struct {
		PageInfo pageInfo `json:"pageInfo"`
		Edges    []struct {
			Node struct {
				LegacyResourceID string     `json:"legacyResourceId"`
				Title            string     `json:"title"`
				ShipWindowStart  *metafield `json:"shipWindowStart"`
				ShipWindowEnd    *metafield `json:"shipWindowEnd"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"collections"`
}

func (s *Syncer) syncCollections(ctx context.Context) (int, error) {
	var errs error
	count := 0
	cursor := ""

	for {
		variables := map[string]any{"first": s.pageSize}
		if cursor != "" {
			variables["after"] = cursor
		}
		resp, err := s.client.Execute(ctx, CollectionsQuery, variables)
		if err != nil {
			return count, multierr.Append(errs, fmt.Errorf("fetch collections: %w", err))
		}

		var payload collectionsPayload
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return count, multierr.Append(errs, fmt.Errorf("decode collections: %w", err))
		}

		for _, edge := range payload.Collections.Edges {
			node := edge.Node
			remoteID, err := strconv.ParseInt(node.LegacyResourceID, 10, 64)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("collection %q: bad id %q", node.Title, node.LegacyResourceID))
				continue
			}
			row := &models.Collection{
				ShopifyCollectionID: &remoteID,
				Name:                node.Title,
				ShipWindowStart:     metafieldValue(node.ShipWindowStart),
				ShipWindowEnd:       metafieldValue(node.ShipWindowEnd),
			}
			if err := s.catalog.UpsertCollection(ctx, row); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("upsert collection %d: %w", remoteID, err))
				continue
			}
			count++
		}

		if !payload.Collections.PageInfo.HasNextPage {
			return count, errs
		}
		cursor = payload.Collections.PageInfo.EndCursor
	}
}

type productsPayload struct {
	Products struct {
		PageInfo pageInfo `json:"pageInfo"`
		Edges    []struct {
			Node struct {
				Title       string `json:"title"`
				Status      string `json:"status"`
				Collections struct {
					Edges []struct {
						Node struct {
							LegacyResourceID string `json:"legacyResourceId"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"collections"`
				Variants struct {
					Edges []struct {
						Node struct {
							LegacyResourceID string `json:"legacyResourceId"`
							SKU              string `json:"sku"`
							Title            string `json:"title"`
							Price            string `json:"price"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

func (s *Syncer) syncProducts(ctx context.Context) (int, error) {
	var errs error
	count := 0
	cursor := ""

	for {
		variables := map[string]any{"first": s.pageSize}
		if cursor != "" {
			variables["after"] = cursor
		}
		resp, err := s.client.Execute(ctx, ProductsQuery, variables)
		if err != nil {
			return count, multierr.Append(errs, fmt.Errorf("fetch products: %w", err))
		}

		var payload productsPayload
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return count, multierr.Append(errs, fmt.Errorf("decode products: %w", err))
		}

		var batch []models.SKU
		for _, edge := range payload.Products.Edges {
			product := edge.Node

			var collectionID *int64
			if len(product.Collections.Edges) > 0 {
				remote, err := strconv.ParseInt(product.Collections.Edges[0].Node.LegacyResourceID, 10, 64)
				if err == nil {
					if local, findErr := s.catalog.FindCollectionByShopifyID(ctx, remote); findErr == nil {
						collectionID = &local.ID
					}
				}
			}

			for _, variantEdge := range product.Variants.Edges {
				variant := variantEdge.Node
				if variant.SKU == "" {
					continue
				}
				variantID, err := strconv.ParseInt(variant.LegacyResourceID, 10, 64)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("sku %s: bad variant id %q", variant.SKU, variant.LegacyResourceID))
					continue
				}
				price, err := decimal.NewFromString(variant.Price)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("sku %s: bad price %q", variant.SKU, variant.Price))
					continue
				}
				batch = append(batch, models.SKU{
					SKU:          variant.SKU,
					VariantID:    variantID,
					Description:  variantDescription(product.Title, variant.Title),
					Price:        price,
					Currency:     enums.CurrencyUSD,
					CollectionID: collectionID,
					Active:       product.Status == "ACTIVE",
				})
			}
		}

		if err := s.catalog.UpsertSKUs(ctx, batch); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("upsert skus: %w", err))
		} else {
			count += len(batch)
		}

		if !payload.Products.PageInfo.HasNextPage {
			return count, errs
		}
		cursor = payload.Products.PageInfo.EndCursor
	}
}

func metafieldValue(m *metafield) *string {
	if m == nil || m.Value == "" {
		return nil
	}
	value := m.Value
	return &value
}

// variantDescription joins product and variant titles, skipping the
// placeholder Shopify uses for single-variant products.
func variantDescription(productTitle, variantTitle string) string {
	if variantTitle == "" || variantTitle == "Default Title" {
		return productTitle
	}
	return productTitle + " - " + variantTitle
}
