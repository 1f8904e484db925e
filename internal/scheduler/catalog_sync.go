// Package scheduler runs periodic catalog reconciliation against the
// remote store.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/shelf/internal/library"
)

// CatalogSyncScheduler periodically reconciles the local catalog with the
// remote one on a cron schedule.
type CatalogSyncScheduler struct {
	service  *library.Service
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewCatalogSyncScheduler creates a new scheduler instance.
func NewCatalogSyncScheduler(service *library.Service, schedule string) *CatalogSyncScheduler {
	return &CatalogSyncScheduler{
		service:  service,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *CatalogSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule catalog sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Catalog sync scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sync.
func (s *CatalogSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Catalog sync scheduler: stopped")
}

// RunNow triggers an immediate sync.
func (s *CatalogSyncScheduler) RunNow() {
	go s.runSync()
}

// IsRunning returns whether the scheduler is active.
func (s *CatalogSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sync is currently in progress.
func (s *CatalogSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

func (s *CatalogSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Catalog sync scheduler: sync already in progress, skipping")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	started := time.Now()
	added, err := s.service.SyncAll(ctx)
	if err != nil {
		log.Printf("Catalog sync scheduler: sync failed: %v", err)
		return
	}
	log.Printf("Catalog sync scheduler: sync completed in %v, %d new book(s)", time.Since(started), added)
}
