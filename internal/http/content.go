package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/library"
)

// ContentController serves decoded book content and reading positions.
type ContentController struct {
	service *library.Service
}

func NewContentController(service *library.Service) *ContentController {
	return &ContentController{
		service: service,
	}
}

// GetContent returns a downloaded book's decoded plain text. Decode
// failures arrive as readable text in the content field, not as errors.
// GET /api/books/:id/content
func (controller *ContentController) GetContent(c *gin.Context) {
	book, content, err := controller.service.Open(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, books.ErrNotFound):
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case errors.Is(err, library.ErrNotDownloaded), errors.Is(err, library.ErrContentMissing):
			c.IndentedJSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"book":     book,
		"content":  content,
		"position": book.LastReadPosition,
	})
}

// UpdatePosition records a new reading position. Positions that do not
// advance past the recorded one are accepted and dropped.
// PUT /api/books/:id/position
func (controller *ContentController) UpdatePosition(c *gin.Context) {
	position, err := strconv.ParseInt(c.Query("position"), 10, 64)
	if err != nil || position < 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "position must be a non-negative integer"})
		return
	}

	id := c.Param("id")
	if _, err := controller.service.Get(id); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	controller.service.RecordPosition(id, position)
	c.IndentedJSON(http.StatusAccepted, gin.H{"id": id, "position": position})
}
