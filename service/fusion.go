package service

import (
	"math"
	"strings"

	"github.com/Aashish23092/affidavit-ocr/dto"
)

// FieldResults gathers the per-field outcomes of one run.
type FieldResults struct {
	PAN     dto.FieldExtraction[string]
	Name    dto.FieldExtraction[string]
	Parent  dto.FieldExtraction[string]
	Age     dto.FieldExtraction[int]
	Address dto.FieldExtraction[string]
	Mobile  dto.FieldExtraction[string]
}

// Assemble builds the final record. Pattern results are authoritative;
// the semantic guess, when given, is attached only as corroboration.
func Assemble(runID, source string, fields FieldResults, semantic *dto.SemanticGuess, model string) dto.FinalRecord {
	rec := dto.FinalRecord{
		RunID:              runID,
		SourceDocument:     source,
		FullName:           fields.Name,
		FatherOrSpouseName: fields.Parent,
		Age:                fields.Age,
		Address:            fields.Address,
		PAN:                fields.PAN,
		MobileNumber:       fields.Mobile,
		OverallConfidence:  OverallConfidence(fields),
	}
	if semantic != nil {
		rec.Semantic = &dto.SemanticCorroboration{
			SemanticGuess: *semantic,
			Model:         model,
			Agrees:        Agrees(*semantic, fields.Name, fields.Parent),
		}
	}
	return rec
}

// OverallConfidence is the highest of the PAN, name, age and address
// confidences rounded to two decimals. Mobile is not counted.
func OverallConfidence(f FieldResults) float64 {
	best := max(f.PAN.Confidence, f.Name.Confidence, f.Age.Confidence, f.Address.Confidence)
	return math.Round(best*100) / 100
}

// Agrees reports whether a successful guess names the same declarant and
// guardian as the pattern result, comparing whitespace-normalized text.
func Agrees(g dto.SemanticGuess, name, parent dto.FieldExtraction[string]) bool {
	if g.Status != dto.SemanticOK {
		return false
	}
	return sameOptional(g.FullName, name.Value) && sameOptional(g.FatherOrSpouseName, parent.Value)
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return normalizeName(*a) == normalizeName(*b)
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
