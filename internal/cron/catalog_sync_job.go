package cron

import (
	"context"
	"fmt"

	"github.com/harborline/stockroom-backend/internal/shopify"
	"github.com/harborline/stockroom-backend/pkg/logger"
)

type catalogSyncer interface {
	SyncCatalog(ctx context.Context) (*shopify.SyncResult, error)
}

// CatalogSyncJobParams configure the scheduled catalog mirror refresh.
type CatalogSyncJobParams struct {
	Logger *logger.Logger
	Syncer catalogSyncer
}

// NewCatalogSyncJob builds the job that refreshes the local SKU and
// collection mirror from the commerce platform.
func NewCatalogSyncJob(params CatalogSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("syncer required")
	}
	return &catalogSyncJob{
		logg:   params.Logger,
		syncer: params.Syncer,
	}, nil
}

type catalogSyncJob struct {
	logg   *logger.Logger
	syncer catalogSyncer
}

func (j *catalogSyncJob) Name() string { return "catalog-sync" }

func (j *catalogSyncJob) Run(ctx context.Context) error {
	result, err := j.syncer.SyncCatalog(ctx)
	if err != nil {
		return fmt.Errorf("catalog sync: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"collections": result.Collections,
		"skus":        result.SKUs,
	})
	j.logg.Info(logCtx, "catalog sync complete")
	return nil
}
