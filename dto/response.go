package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Persist statuses reported next to an extracted record.
const (
	PersistInserted = "inserted"
	PersistFailed   = "failed"
	PersistSkipped  = "skipped"
)

// PersistResult describes what happened when the record was handed to the store.
type PersistResult struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ExtractResponse is the final response structure
type ExtractResponse struct {
	Record      FinalRecord   `json:"record"`
	Persist     PersistResult `json:"persist"`
	ProcessedAt string        `json:"processed_at"`
}
