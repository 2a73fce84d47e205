package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Aashish23092/affidavit-ocr/dto"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS affidavits (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    source_document TEXT,
    pan TEXT,
    full_name TEXT,
    father_or_spouse_name TEXT,
    age INTEGER,
    address TEXT,
    mobile_number TEXT,
    overall_confidence REAL NOT NULL,
    source TEXT NOT NULL,
    extracted_at TEXT NOT NULL,
    document JSON NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_affidavits_extracted_at ON affidavits(extracted_at);
CREATE INDEX IF NOT EXISTS idx_affidavits_pan ON affidavits(pan);
`

// SQLiteStore is a local append-only audit log of extraction results.
type SQLiteStore struct {
	db *sql.DB
}

// StoredRow is a persisted record together with its row id.
type StoredRow struct {
	ID     string
	Record dto.StoredRecord
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec dto.FinalRecord, extractedAt time.Time) (InsertResult, error) {
	stored := rec.ToStored(extractedAt)
	doc, err := json.Marshal(stored)
	if err != nil {
		return InsertResult{}, fmt.Errorf("encoding record: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO affidavits (id, run_id, source_document, pan, full_name, father_or_spouse_name,
			age, address, mobile_number, overall_confidence, source, extracted_at, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, stored.RunID, stored.SourceDocument, stored.PAN, stored.FullName, stored.FatherOrSpouseName,
		stored.Age, stored.Address, stored.AdditionalInformation.MobileNumber, stored.OverallConfidence,
		stored.Source, stored.ExtractedAt.Format(time.RFC3339Nano), string(doc),
	)
	if err != nil {
		return InsertResult{}, fmt.Errorf("inserting record: %w", err)
	}
	return InsertResult{ID: id, Status: dto.PersistInserted}, nil
}

// List returns every stored record, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]StoredRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, document FROM affidavits ORDER BY extracted_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var rec dto.StoredRecord
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", id, err)
		}
		out = append(out, StoredRow{ID: id, Record: rec})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}
