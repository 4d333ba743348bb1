package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/pagination"
)

// Service exposes catalog lookups to the API layer and the ordering flow.
type Service interface {
	GetSKU(ctx context.Context, sku string) (*SKUDTO, error)
	LookupSKUs(ctx context.Context, skus []string) (map[string]SKUDTO, error)
	ListSKUs(ctx context.Context, limit int, afterSKU string) ([]SKUDTO, error)
	ListCollections(ctx context.Context) ([]CollectionDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds the catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetSKU(ctx context.Context, sku string) (*SKUDTO, error) {
	row, err := s.repo.FindSKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sku")
	}
	dto := skuDTO(*row)
	return &dto, nil
}

// LookupSKUs returns the catalog rows for the given SKUs keyed by SKU string.
// Unknown SKUs are absent from the map; callers decide whether that is fatal.
func (s *service) LookupSKUs(ctx context.Context, skus []string) (map[string]SKUDTO, error) {
	rows, err := s.repo.FindSKUs(ctx, skus)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load skus")
	}
	out := make(map[string]SKUDTO, len(rows))
	for _, row := range rows {
		out[row.SKU] = skuDTO(row)
	}
	return out, nil
}

func (s *service) ListSKUs(ctx context.Context, limit int, afterSKU string) ([]SKUDTO, error) {
	rows, err := s.repo.ListSKUs(ctx, pagination.NormalizeLimit(limit), afterSKU)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list skus")
	}
	out := make([]SKUDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, skuDTO(row))
	}
	return out, nil
}

func (s *service) ListCollections(ctx context.Context) ([]CollectionDTO, error) {
	rows, err := s.repo.ListCollections(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list collections")
	}
	out := make([]CollectionDTO, 0, len(rows))
	for _, row := range rows {
		dto := collectionDTO(&row)
		out = append(out, *dto)
	}
	return out, nil
}
