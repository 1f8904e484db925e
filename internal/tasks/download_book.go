package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/shelf/internal/library"
)

// DownloadBookTask fetches one book's content blob into the sandbox.
type DownloadBookTask struct {
	BookID string `json:"book_id"`
}

// Config returns the queue configuration for book download tasks.
func (t DownloadBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "download_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DownloadBookProcessor creates a processor function for DownloadBookTask.
func DownloadBookProcessor(svc *library.Service) backlite.QueueProcessor[DownloadBookTask] {
	return func(ctx context.Context, task DownloadBookTask) error {
		book, err := svc.Download(ctx, task.BookID, func(percent int) {
			if percent%25 == 0 {
				log.Printf("[TASK] Downloading book %s: %d%%", task.BookID, percent)
			}
		})
		if err != nil {
			// Another worker already has this book in flight; a retry of
			// this task would only race with it.
			if errors.Is(err, library.ErrDownloadInFlight) {
				log.Printf("[TASK] Download of %s skipped: already in flight", task.BookID)
				return nil
			}
			return fmt.Errorf("download book %s: %w", task.BookID, err)
		}

		log.Printf("[TASK] Downloaded book %s (%s, %d bytes)", book.ID, book.Title, book.ContentSize)
		return nil
	}
}

// NewDownloadBookQueue creates a backlite queue for book download tasks.
func NewDownloadBookQueue(svc *library.Service) backlite.Queue {
	return backlite.NewQueue(DownloadBookProcessor(svc))
}
