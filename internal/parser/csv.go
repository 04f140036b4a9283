package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser handles .csv files. Each data row is rendered as
// "header: value" pairs on one line so the rows read as sentences to the
// chunker and keyword matcher.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Extract, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return singlePage(""), nil
	}

	header := records[0]
	var lines []string
	for _, row := range records[1:] {
		var pairs []string
		for i, field := range row {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				pairs = append(pairs, strings.TrimSpace(header[i])+": "+field)
			} else {
				pairs = append(pairs, field)
			}
		}
		if len(pairs) > 0 {
			lines = append(lines, strings.Join(pairs, ", ")+".")
		}
	}

	return singlePage(strings.Join(lines, "\n")), nil
}
