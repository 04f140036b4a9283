package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser handles .pdf files. It is the one parser that reports real
// pagination, which lets the ingest pipeline split very long PDFs into
// page windows before chunking.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Extract, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading pdf file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)
	var all []string
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: content})
		all = append(all, content)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf %s contains no extractable text", filename)
	}

	return &Extract{
		Text:  strings.Join(all, "\n\n"),
		Pages: pages,
	}, nil
}
