// Package decode turns locally stored documents into a uniform plain-text
// stream. The supported formats are txt, pdf and epub.
//
// Decode never fails hard: malformed or unsupported content is converted
// into a human-readable inline message that becomes the displayed content,
// so the reading surface stays functional on a bad file.
package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/simp-lee/epub"

	"github.com/mrlokans/shelf/internal/entities"
)

// DetectFormat resolves a document format from the file's extension.
func DetectFormat(path string) entities.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return entities.FormatTXT
	case ".pdf":
		return entities.FormatPDF
	case ".epub":
		return entities.FormatEPUB
	default:
		return entities.FormatUnrecognized
	}
}

// Decode reads the file at path as the declared format and returns its
// plain text. Unrecognized formats return the path itself as a defensive
// placeholder. Decode failures return an inline error message, never an
// error value.
func Decode(path string, format entities.Format) string {
	switch format {
	case entities.FormatTXT:
		return decodeTxt(path)
	case entities.FormatPDF:
		return decodePDF(path)
	case entities.FormatEPUB:
		return decodeEPUB(path)
	default:
		return path
	}
}

// DecodeFile is Decode with the format detected from the path.
func DecodeFile(path string) string {
	return Decode(path, DetectFormat(path))
}

func decodeTxt(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error reading book: %v", err)
	}
	return string(data)
}

// decodePDF extracts text from pages 1..N in order. Each page's text is
// trimmed of trailing whitespace and followed by a single space. Pages
// with no extractable text contribute an empty string.
func decodePDF(path string) (content string) {
	defer func() {
		if r := recover(); r != nil {
			content = fmt.Sprintf("Error reading PDF: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return fmt.Sprintf("Error reading PDF: %v", err)
	}
	defer f.Close()

	var text strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			text.WriteString(" ")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			pageText = ""
		}
		text.WriteString(strings.TrimRight(pageText, " \t\r\n"))
		text.WriteString(" ")
	}
	return text.String()
}

// decodeEPUB joins the plain text of the declared content chapters in
// spine order, separated by blank lines. HTML markup is stripped and
// entities are decoded by the epub library.
func decodeEPUB(path string) (content string) {
	defer func() {
		if r := recover(); r != nil {
			content = fmt.Sprintf("Error reading EPUB: %v", r)
		}
	}()

	book, err := epub.Open(path)
	if err != nil {
		return fmt.Sprintf("Error reading EPUB: %v", err)
	}
	defer book.Close()

	var text strings.Builder
	for _, chapter := range book.Chapters() {
		plain, err := chapter.TextContent()
		if err != nil {
			continue
		}
		text.WriteString(plain)
		text.WriteString("\n\n")
	}
	return text.String()
}
