package parser

import (
	"fmt"
	"io"
	"strings"
)

// TextParser handles plain .txt files.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Extract, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)

	return singlePage(text), nil
}
