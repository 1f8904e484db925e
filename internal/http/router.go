package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/tasks"
)

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	Service *library.Service
	Queue   *tasks.Client // nil disables background downloads
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	booksController := NewBooksController(cfg.Service)
	contentController := NewContentController(cfg.Service)
	transfersController := NewTransfersController(cfg.Service, cfg.Queue)

	api := router.Group("/api")
	{
		api.GET("/books", booksController.GetAllBooks)
		api.GET("/books/search", booksController.SearchBooks)
		api.POST("/books", transfersController.UploadBook)
		api.POST("/books/sync", booksController.SyncBooks)
		api.GET("/books/:id", booksController.GetBookByID)
		api.DELETE("/books/:id", booksController.DeleteBook)
		api.POST("/books/:id/download", transfersController.DownloadBook)
		api.GET("/books/:id/content", contentController.GetContent)
		api.PUT("/books/:id/position", contentController.UpdatePosition)
	}

	router.GET("/health", Health)

	return router
}
