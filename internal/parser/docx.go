package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DocxParser handles .docx files. Word stores no fixed pagination, so the
// whole document is reported as a single page.
type DocxParser struct{}

func (p *DocxParser) Parse(r io.Reader, filename string) (*Extract, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading docx file: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing docx: %w", err)
	}

	var blocks []string
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			if t := strings.TrimSpace(v.String()); t != "" {
				blocks = append(blocks, t)
			}
		case *docx.Table:
			if t := strings.TrimSpace(v.String()); t != "" {
				blocks = append(blocks, t)
			}
		}
	}

	return singlePage(strings.Join(blocks, "\n\n")), nil
}
