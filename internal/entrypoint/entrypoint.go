package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/config"
	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/database/books"
	http_controllers "github.com/mrlokans/shelf/internal/http"
	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/reading"
	"github.com/mrlokans/shelf/internal/remote"
	"github.com/mrlokans/shelf/internal/sandbox"
	"github.com/mrlokans/shelf/internal/scheduler"
	"github.com/mrlokans/shelf/internal/syncer"
	"github.com/mrlokans/shelf/internal/tasks"
	"github.com/mrlokans/shelf/internal/transfer"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Shelf v%s", version)

	if cfg.Remote.BaseURL == "" {
		log.Printf("WARNING: Remote base URL is not set. Catalog sync, downloads and uploads will fail. Set 'REMOTE_BASE_URL' to enable.")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	store, err := sandbox.New(cfg.Sandbox.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize sandbox directory %s: %v", cfg.Sandbox.Dir, err)
	}
	log.Printf("Sandbox directory: %s", cfg.Sandbox.Dir)

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

	// Task queue for background downloads and sync runs.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewDownloadBookQueue(service),
			tasks.NewSyncCatalogQueue(service),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	var syncScheduler *scheduler.CatalogSyncScheduler
	if cfg.Sync.Enabled {
		syncScheduler = scheduler.NewCatalogSyncScheduler(service, cfg.Sync.Schedule)
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start catalog sync scheduler: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Service: service,
		Queue:   taskClient,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		// Pending position writes go to the database before it closes.
		tracker.Flush()
	}

	Serve(router, cfg, onShutdown)
}
