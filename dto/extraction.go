package dto

// FieldExtraction is the outcome of extracting one identity field.
// A nil Value means the field is absent; absent fields always carry a
// zero confidence and present ones a positive confidence.
type FieldExtraction[T string | int] struct {
	Value      *T      `json:"value"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Found builds a present extraction.
func Found[T string | int](value T, confidence float64, reason string) FieldExtraction[T] {
	return FieldExtraction[T]{Value: &value, Confidence: confidence, Reason: reason}
}

// Absent builds an absent extraction with zero confidence.
func Absent[T string | int](reason string) FieldExtraction[T] {
	return FieldExtraction[T]{Reason: reason}
}

// Present reports whether a value was extracted.
func (f FieldExtraction[T]) Present() bool {
	return f.Value != nil
}

// Get returns the value or the zero value of T when absent.
func (f FieldExtraction[T]) Get() T {
	var zero T
	if f.Value == nil {
		return zero
	}
	return *f.Value
}

// Consistent checks the absent/confidence invariant.
func (f FieldExtraction[T]) Consistent() bool {
	if f.Value == nil {
		return f.Confidence == 0
	}
	return f.Confidence > 0 && f.Confidence <= 1
}

// PANDecision is the persisted form of the PAN extractor's result.
type PANDecision struct {
	PAN        *string `json:"pan"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Extraction converts the decision back into a field extraction.
func (d PANDecision) Extraction() FieldExtraction[string] {
	return FieldExtraction[string]{Value: d.PAN, Confidence: d.Confidence, Reason: d.Reason}
}

// Semantic guess statuses.
const (
	SemanticOK         = "ok"
	SemanticDisabled   = "disabled"
	SemanticNoSnippet  = "no_snippet"
	SemanticModelError = "model_error"
	SemanticUnparsable = "unparsable"
)

// SemanticGuess is the bounded result of the language-model name extractor.
// Unlike FieldExtraction, a present parent may carry zero confidence: the
// confidence is forced to 0 whenever FullName is absent.
type SemanticGuess struct {
	FullName           *string `json:"full_name" bson:"full_name"`
	FatherOrSpouseName *string `json:"father_or_spouse_name" bson:"father_or_spouse_name"`
	Confidence         float64 `json:"confidence" bson:"confidence"`
	Status             string  `json:"status" bson:"status"`
}

// SemanticCorroboration records the semantic guess next to the
// deterministic result. It is never used as the record's value.
type SemanticCorroboration struct {
	SemanticGuess `bson:",inline"`
	Model         string `json:"model,omitempty" bson:"model,omitempty"`
	Agrees        bool   `json:"agrees" bson:"agrees"`
}
