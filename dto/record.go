package dto

import "time"

// Provenance tag stored with every inserted record.
const RecordSource = "ocr+llm"

// FinalRecord is the assembled extraction result for one affidavit.
type FinalRecord struct {
	RunID              string                  `json:"run_id"`
	SourceDocument     string                  `json:"source_document,omitempty"`
	FullName           FieldExtraction[string] `json:"full_name"`
	FatherOrSpouseName FieldExtraction[string] `json:"father_or_spouse_name"`
	Age                FieldExtraction[int]    `json:"age"`
	Address            FieldExtraction[string] `json:"address"`
	PAN                FieldExtraction[string] `json:"pan"`
	MobileNumber       FieldExtraction[string] `json:"mobile_number"`
	OverallConfidence  float64                 `json:"overall_confidence"`
	Semantic           *SemanticCorroboration  `json:"semantic,omitempty"`
}

// PANStatus mirrors the PAN decision inside the stored document.
type PANStatus struct {
	Confidence float64 `json:"confidence" bson:"confidence"`
	Reason     string  `json:"reason" bson:"reason"`
}

// AdditionalInformation holds fields that are kept but not scored.
type AdditionalInformation struct {
	MobileNumber *string `json:"mobile_number" bson:"mobile_number"`
}

// FieldConfidences lists the per-field confidences that are persisted.
// Mobile is intentionally not part of it.
type FieldConfidences struct {
	FullName           float64 `json:"full_name" bson:"full_name"`
	FatherOrSpouseName float64 `json:"father_or_spouse_name" bson:"father_or_spouse_name"`
	Age                float64 `json:"age" bson:"age"`
	Address            float64 `json:"address" bson:"address"`
	PAN                float64 `json:"pan" bson:"pan"`
}

// FieldReasons lists the per-field reasons that are persisted.
type FieldReasons struct {
	FullName           string `json:"full_name" bson:"full_name"`
	FatherOrSpouseName string `json:"father_or_spouse_name" bson:"father_or_spouse_name"`
	Age                string `json:"age" bson:"age"`
	Address            string `json:"address" bson:"address"`
	PAN                string `json:"pan" bson:"pan"`
	MobileNumber       string `json:"mobile_number" bson:"mobile_number"`
}

// StoredRecord is the document handed to the persistence collaborator.
type StoredRecord struct {
	RunID                 string                 `json:"run_id" bson:"run_id"`
	SourceDocument        string                 `json:"source_document,omitempty" bson:"source_document,omitempty"`
	PAN                   *string                `json:"pan" bson:"pan"`
	FullName              *string                `json:"full_name" bson:"full_name"`
	FatherOrSpouseName    *string                `json:"father_or_spouse_name" bson:"father_or_spouse_name"`
	Age                   *int                   `json:"age" bson:"age"`
	Address               *string                `json:"address" bson:"address"`
	PANStatus             PANStatus              `json:"pan_status" bson:"pan_status"`
	AdditionalInformation AdditionalInformation  `json:"additional_information" bson:"additional_information"`
	Confidence            FieldConfidences       `json:"confidence" bson:"confidence"`
	Reasons               FieldReasons           `json:"reasons" bson:"reasons"`
	OverallConfidence     float64                `json:"overall_confidence" bson:"overall_confidence"`
	Semantic              *SemanticCorroboration `json:"semantic,omitempty" bson:"semantic,omitempty"`
	ExtractedAt           time.Time              `json:"extracted_at" bson:"extracted_at"`
	Source                string                 `json:"source" bson:"source"`
}

// ToStored flattens the record into the persisted document shape.
func (r FinalRecord) ToStored(extractedAt time.Time) StoredRecord {
	return StoredRecord{
		RunID:              r.RunID,
		SourceDocument:     r.SourceDocument,
		PAN:                r.PAN.Value,
		FullName:           r.FullName.Value,
		FatherOrSpouseName: r.FatherOrSpouseName.Value,
		Age:                r.Age.Value,
		Address:            r.Address.Value,
		PANStatus: PANStatus{
			Confidence: r.PAN.Confidence,
			Reason:     r.PAN.Reason,
		},
		AdditionalInformation: AdditionalInformation{
			MobileNumber: r.MobileNumber.Value,
		},
		Confidence: FieldConfidences{
			FullName:           r.FullName.Confidence,
			FatherOrSpouseName: r.FatherOrSpouseName.Confidence,
			Age:                r.Age.Confidence,
			Address:            r.Address.Confidence,
			PAN:                r.PAN.Confidence,
		},
		Reasons: FieldReasons{
			FullName:           r.FullName.Reason,
			FatherOrSpouseName: r.FatherOrSpouseName.Reason,
			Age:                r.Age.Reason,
			Address:            r.Address.Reason,
			PAN:                r.PAN.Reason,
			MobileNumber:       r.MobileNumber.Reason,
		},
		OverallConfidence: r.OverallConfidence,
		Semantic:          r.Semantic,
		ExtractedAt:       extractedAt.UTC(),
		Source:            RecordSource,
	}
}
