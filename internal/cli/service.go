// Package cli implements one-off commands that run against the local
// catalog without starting the HTTP server.
package cli

import (
	"fmt"

	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/reading"
	"github.com/mrlokans/shelf/internal/remote"
	"github.com/mrlokans/shelf/internal/sandbox"
	"github.com/mrlokans/shelf/internal/syncer"
	"github.com/mrlokans/shelf/internal/transfer"
)

// buildService wires a library service from config for short-lived command
// runs. The returned cleanup closes the database.
func buildService(cfg *config.Config) (*library.Service, func(), error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	store, err := sandbox.New(cfg.Sandbox.Dir)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open sandbox: %w", err)
	}

	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token)
	creds := remote.StaticCredentials{UserID: cfg.Remote.UserID}
	repo := books.NewRepository(db.DB)

	window := cfg.Reading.DebounceWindow
	if window <= 0 {
		window = reading.DefaultDebounceWindow
	}
	tracker := reading.NewTracker(repo, window)

	service := library.NewService(
		repo,
		store,
		transfer.New(client, store),
		syncer.New(client, creds),
		tracker,
		client,
		creds,
	)

	cleanup := func() {
		tracker.Flush()
		db.Close()
	}
	return service, cleanup, nil
}
