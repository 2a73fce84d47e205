// Package store persists extracted affidavit records. Records are only ever
// inserted; there is no update or delete path.
package store

import (
	"context"
	"time"

	"github.com/Aashish23092/affidavit-ocr/dto"
)

// InsertResult identifies the stored document.
type InsertResult struct {
	ID     string
	Status string
}

// RecordStore is the persistence collaborator of the extraction pipeline.
type RecordStore interface {
	Insert(ctx context.Context, rec dto.FinalRecord, extractedAt time.Time) (InsertResult, error)
	Close(ctx context.Context) error
}
