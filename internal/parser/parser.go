// Package parser converts uploaded documents into plain text ready for
// chunking. Each supported format has its own parser; all of them produce
// an Extract holding the full text plus per-page segments where the format
// carries real pagination (currently only PDF).
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Page is one page-sized segment of a document. Page numbers start at 1.
// Formats without native pagination report the whole document as page 1.
type Page struct {
	Number int
	Text   string
}

// Extract is the parsed form of a document.
type Extract struct {
	Text  string
	Pages []Page
}

// Paged reports whether the document carried real pagination.
func (e *Extract) Paged() bool {
	return len(e.Pages) > 1
}

// Parser converts one document format into an Extract.
type Parser interface {
	Parse(r io.Reader, filename string) (*Extract, error)
}

// ForFile returns a parser for the file's extension.
func ForFile(filename string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DocxParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
}

// IsSupportedExtension reports whether the extension has a parser.
func IsSupportedExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".txt", ".md", ".markdown", ".html", ".htm", ".csv", ".pdf", ".docx":
		return true
	}
	return false
}

// singlePage wraps text as a one-page extract.
func singlePage(text string) *Extract {
	return &Extract{
		Text:  text,
		Pages: []Page{{Number: 1, Text: text}},
	}
}
