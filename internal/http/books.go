package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/library"
)

type BooksController struct {
	service *library.Service
}

func NewBooksController(service *library.Service) *BooksController {
	return &BooksController{
		service: service,
	}
}

// GetAllBooks returns every book in the local catalog.
// GET /api/books
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	list, err := controller.service.List()
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// GetBookByID returns a single book.
// GET /api/books/:id
func (controller *BooksController) GetBookByID(c *gin.Context) {
	book, err := controller.service.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			c.IndentedJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// SearchBooks finds books by title or author.
// GET /api/books/search?q=...
func (controller *BooksController) SearchBooks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	found, err := controller.service.Search(query)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": found, "count": len(found)})
}

// DeleteBook removes a book from the local catalog and sandbox. The remote
// record and blob are untouched.
// DELETE /api/books/:id
func (controller *BooksController) DeleteBook(c *gin.Context) {
	if err := controller.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// SyncBooks reconciles the catalog with the remote store.
// POST /api/books/sync
func (controller *BooksController) SyncBooks(c *gin.Context) {
	added, err := controller.service.SyncAll(c.Request.Context())
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"new_books": added})
}
