package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/library"
	"github.com/mrlokans/shelf/internal/tasks"
)

// TransfersController triggers downloads and uploads. Downloads can run
// inline or be queued on the task client when one is configured.
type TransfersController struct {
	service *library.Service
	queue   *tasks.Client
}

func NewTransfersController(service *library.Service, queue *tasks.Client) *TransfersController {
	return &TransfersController{
		service: service,
		queue:   queue,
	}
}

// DownloadBook fetches a book's content into the sandbox. With a task
// queue configured the download runs in the background and 202 is
// returned; otherwise it runs inline.
// POST /api/books/:id/download
func (controller *TransfersController) DownloadBook(c *gin.Context) {
	id := c.Param("id")

	if controller.queue != nil {
		if _, err := controller.queue.Add(tasks.DownloadBookTask{BookID: id}).Save(); err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.IndentedJSON(http.StatusAccepted, gin.H{"id": id, "status": "queued"})
		return
	}

	book, err := controller.service.Download(c.Request.Context(), id, nil)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrNotFound):
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case errors.Is(err, library.ErrDownloadInFlight):
			c.IndentedJSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

type uploadRequest struct {
	SourcePath string `json:"source_path" binding:"required"`
	Title      string `json:"title" binding:"required"`
	Author     string `json:"author"`
	CoverPath  string `json:"cover_path"`
}

// UploadBook adds a new book from a local file.
// POST /api/books
func (controller *TransfersController) UploadBook(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := controller.service.Upload(c.Request.Context(), library.UploadRequest{
		SourcePath: req.SourcePath,
		Title:      req.Title,
		Author:     req.Author,
		CoverPath:  req.CoverPath,
	}, nil)
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusCreated, book)
}
