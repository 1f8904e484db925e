// Package books provides database operations for the local book catalog.
//
// The repository is the source of truth for "what is downloaded" on this
// device. Writes for a given book id go through a single gorm connection
// and are applied in submission order.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID("a1")
package books

import (
	"errors"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/shelf/internal/entities"
)

// ErrNotFound is returned when no book exists for the requested id.
var ErrNotFound = errors.New("book not found")

// Repository handles all book catalog database operations.
type Repository struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers []chan struct{}
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAll retrieves every book in the local catalog.
func (r *Repository) GetAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("created_at ASC").Find(&books).Error
	return books, err
}

// GetAllIDs retrieves the ids of every locally known book.
func (r *Repository) GetAllIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&entities.Book{}).Pluck("id", &ids).Error
	return ids, err
}

// GetByOwner retrieves all books owned by the given user.
func (r *Repository) GetByOwner(owner string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("owner = ?", owner).Find(&books).Error
	return books, err
}

// GetByID retrieves a book by its id, or ErrNotFound.
func (r *Repository) GetByID(id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Search finds books whose title or author contains the query,
// case-insensitive.
func (r *Repository) Search(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern).
		Find(&books).Error
	return books, err
}

// Upsert inserts or fully replaces a book record keyed by id.
func (r *Repository) Upsert(book *entities.Book) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(book).Error
	if err != nil {
		return err
	}
	r.notify()
	return nil
}

// Delete removes the catalog row for id. Deleting a missing id is not an
// error.
func (r *Repository) Delete(id string) error {
	err := r.db.Where("id = ?", id).Delete(&entities.Book{}).Error
	if err != nil {
		return err
	}
	r.notify()
	return nil
}

// UpdatePosition writes the last read position for a single book without
// touching any other column.
func (r *Repository) UpdatePosition(id string, position int64) error {
	err := r.db.Model(&entities.Book{}).
		Where("id = ?", id).
		Update("last_read_position", position).Error
	if err != nil {
		return err
	}
	r.notify()
	return nil
}

// Watch returns a channel that receives a signal after every catalog
// mutation. Subscribers re-read the catalog on signal; notifications are
// coalesced, not queued.
func (r *Repository) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	r.watchers = append(r.watchers, ch)
	r.mu.Unlock()
	return ch
}

func (r *Repository) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
