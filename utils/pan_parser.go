package utils

import (
	"regexp"
	"strings"

	"github.com/Aashish23092/affidavit-ocr/dto"
)

// PAN confidence matrix.
const (
	PANTableConfidence = 0.85
	PANTextConfidence  = 0.70

	PANReasonTable    = "extracted from table cell"
	PANReasonText     = "extracted from OCR text (fallback)"
	PANReasonNotFound = "not detected"
)

var (
	panCellRegex = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	panTextRegex = regexp.MustCompile(`[A-Z]{5}[0-9]{4}[A-Z]`)
)

// ExtractPAN finds the permanent account number. A table cell that is
// exactly a PAN always wins over a match in the running text, even when
// the two differ.
func ExtractPAN(ev dto.RawEvidence) dto.FieldExtraction[string] {
	if pan, ok := panFromTables(ev.Tables); ok {
		return dto.Found(pan, PANTableConfidence, PANReasonTable)
	}
	if pan, ok := panFromText(ev.FullText); ok {
		return dto.Found(pan, PANTextConfidence, PANReasonText)
	}
	return dto.Absent[string](PANReasonNotFound)
}

// DecidePAN is ExtractPAN in the shape written to the pan artifact.
func DecidePAN(ev dto.RawEvidence) dto.PANDecision {
	f := ExtractPAN(ev)
	return dto.PANDecision{PAN: f.Value, Confidence: f.Confidence, Reason: f.Reason}
}

func panFromTables(tables []dto.Table) (string, bool) {
	for _, table := range tables {
		for _, cell := range table {
			text := strings.TrimSpace(cell.Text)
			if panCellRegex.MatchString(text) {
				return text, true
			}
		}
	}
	return "", false
}

// OCR tends to split the code with spaces or line breaks, so all
// whitespace is dropped before searching.
func panFromText(raw string) (string, bool) {
	t := strings.Join(strings.Fields(strings.ToUpper(raw)), "")
	pan := panTextRegex.FindString(t)
	return pan, pan != ""
}
