package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/shelf/internal/config"
)

// SyncCommand reconciles the local catalog with the remote store once.
type SyncCommand struct {
	Timeout time.Duration
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

// ParseFlags parses command line flags
func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.DurationVar(&cmd.Timeout, "timeout", 5*time.Minute, "Maximum time to wait for the sync to finish")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch the remote catalog and add any books not yet known locally.\n")
		fmt.Fprintf(os.Stderr, "Existing local records are never modified.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sync\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -timeout 30s\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the sync command
func (cmd *SyncCommand) Run() error {
	cfg := config.NewConfig()
	if cfg.Remote.BaseURL == "" {
		return fmt.Errorf("REMOTE_BASE_URL is not set")
	}

	service, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	added, err := service.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("sync catalog: %w", err)
	}

	fmt.Printf("Catalog sync complete, %d new book(s)\n", added)
	return nil
}
