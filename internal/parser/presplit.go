package parser

import "strings"

// Window is a contiguous run of pages treated as one unit for chunking
// and embedding. Page numbers are inclusive.
type Window struct {
	FirstPage int
	LastPage  int
	Text      string
}

// Windows slices a paged extract into runs of at most limit pages.
// Documents at or under the limit, and documents without real
// pagination, come back as a single window covering the whole text.
func Windows(ex *Extract, limit int) []Window {
	if limit <= 0 || len(ex.Pages) <= limit {
		first, last := 1, 1
		if n := len(ex.Pages); n > 0 {
			first = ex.Pages[0].Number
			last = ex.Pages[n-1].Number
		}
		return []Window{{FirstPage: first, LastPage: last, Text: ex.Text}}
	}

	var windows []Window
	for start := 0; start < len(ex.Pages); start += limit {
		end := start + limit
		if end > len(ex.Pages) {
			end = len(ex.Pages)
		}
		run := ex.Pages[start:end]
		texts := make([]string, len(run))
		for i, pg := range run {
			texts[i] = pg.Text
		}
		windows = append(windows, Window{
			FirstPage: run[0].Number,
			LastPage:  run[len(run)-1].Number,
			Text:      strings.Join(texts, "\n\n"),
		})
	}
	return windows
}
