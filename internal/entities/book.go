package entities

import (
	"time"
)

// Format identifies a supported document format.
type Format string

const (
	FormatTXT          Format = "txt"
	FormatPDF          Format = "pdf"
	FormatEPUB         Format = "epub"
	FormatUnrecognized Format = "unrecognized"
)

// Book is the unit of catalog state. The local catalog owns IsDownloaded,
// LocalPath and ContentSize for this device; the remote catalog is the
// cross-device source of truth for Title, Author, ContentURL, CoverURL
// and Owner.
type Book struct {
	ID               string    `gorm:"primaryKey;size:128" json:"id"`
	Owner            string    `gorm:"index;size:128" json:"owner"`
	Title            string    `gorm:"index;size:512" json:"title"`
	Author           string    `gorm:"index;size:256" json:"author"`
	CoverURL         string    `gorm:"size:2048" json:"cover_url,omitempty"`
	ContentURL       string    `gorm:"size:2048" json:"content_url"`
	LocalPath        string    `gorm:"size:1024" json:"local_path,omitempty"`
	IsDownloaded     bool      `json:"is_downloaded"`
	ContentSize      int64     `json:"content_size"`
	LastReadPosition int64     `json:"last_read_position"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}
