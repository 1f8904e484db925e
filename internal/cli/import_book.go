package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/library"
)

// ImportBookCommand uploads a local file as a new book.
type ImportBookCommand struct {
	SourcePath string
	Title      string
	Author     string
	CoverPath  string
	Timeout    time.Duration
}

// NewImportBookCommand creates a new ImportBookCommand
func NewImportBookCommand() *ImportBookCommand {
	return &ImportBookCommand{}
}

// ParseFlags parses command line flags
func (cmd *ImportBookCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.SourcePath, "file", "", "Path to the book file to import (required)")
	fs.StringVar(&cmd.Title, "title", "", "Book title (required)")
	fs.StringVar(&cmd.Author, "author", "", "Book author")
	fs.StringVar(&cmd.CoverPath, "cover", "", "Optional path to a cover image")
	fs.DurationVar(&cmd.Timeout, "timeout", 10*time.Minute, "Maximum time to wait for the upload to finish")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Copy a local book file into the sandbox, upload it to the remote\n")
		fmt.Fprintf(os.Stderr, "store and register it in both catalogs.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file ~/books/dune.epub -title \"Dune\" -author \"Frank Herbert\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file notes.txt -title \"Notes\" -cover cover.jpg\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.SourcePath == "" {
		fs.Usage()
		return fmt.Errorf("-file is required")
	}
	if cmd.Title == "" {
		fs.Usage()
		return fmt.Errorf("-title is required")
	}
	return nil
}

// Run executes the import command
func (cmd *ImportBookCommand) Run() error {
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

	fmt.Printf("Importing %s\n", cmd.SourcePath)

	book, err := service.Upload(ctx, library.UploadRequest{
		SourcePath: cmd.SourcePath,
		Title:      cmd.Title,
		Author:     cmd.Author,
		CoverPath:  cmd.CoverPath,
	}, func(percent int) {
		fmt.Printf("\rUploading... %d%%", percent)
	})
	if err != nil {
		fmt.Println()
		return fmt.Errorf("import book: %w", err)
	}

	fmt.Printf("\nImported %q as %s\n", book.Title, book.ID)
	return nil
}
