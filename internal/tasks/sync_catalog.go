package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shelf/internal/library"
)

// SyncCatalogTask reconciles the local catalog against the remote one.
type SyncCatalogTask struct{}

// Config returns the queue configuration for catalog sync tasks.
func (t SyncCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_catalog",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
		},
	}
}

// SyncCatalogProcessor creates a processor function for SyncCatalogTask.
func SyncCatalogProcessor(svc *library.Service) backlite.QueueProcessor[SyncCatalogTask] {
	return func(ctx context.Context, task SyncCatalogTask) error {
		added, err := svc.SyncAll(ctx)
		if err != nil {
			return fmt.Errorf("sync catalog: %w", err)
		}
		log.Printf("[TASK] Catalog sync completed, %d new book(s)", added)
		return nil
	}
}

// NewSyncCatalogQueue creates a backlite queue for catalog sync tasks.
func NewSyncCatalogQueue(svc *library.Service) backlite.Queue {
	return backlite.NewQueue(SyncCatalogProcessor(svc))
}
