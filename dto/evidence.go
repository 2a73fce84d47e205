package dto

import "strings"

// Cell is a single OCR table cell. Row and Col come straight from the
// analyzer and are not guaranteed to be contiguous or sorted.
type Cell struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Text string `json:"text"`
}

// Table is the ordered list of cells as emitted by the analyzer.
type Table []Cell

// RawEvidence is the OCR output for one document: line-ordered text and
// the tables found on its pages.
type RawEvidence struct {
	FullText string  `json:"full_text"`
	Tables   []Table `json:"tables"`
}

// IsEmpty reports whether there is nothing at all to extract from.
func (e RawEvidence) IsEmpty() bool {
	if strings.TrimSpace(e.FullText) != "" {
		return false
	}
	for _, t := range e.Tables {
		if len(t) > 0 {
			return false
		}
	}
	return true
}

// CellCount returns the number of cells across all tables.
func (e RawEvidence) CellCount() int {
	n := 0
	for _, t := range e.Tables {
		n += len(t)
	}
	return n
}
