package client

import (
	"context"

	"github.com/Aashish23092/affidavit-ocr/dto"
)

// DocumentAnalyzer turns a document into OCR evidence.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, data []byte, contentType string) (dto.RawEvidence, error)
	Name() string
}
