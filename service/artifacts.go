package service

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aashish23092/affidavit-ocr/dto"
	"go.uber.org/zap"
)

// Artifact file names inside a run directory.
const (
	TextArtifact   = "ocr_text.txt"
	TablesArtifact = "tables.jsonl"
	PANArtifact    = "pan.json"
)

type tableRecord struct {
	Table int    `json:"table"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Text  string `json:"text"`
}

// WriteArtifacts stores the evidence and the PAN decision in dir so a later
// run can extract without calling OCR again.
func WriteArtifacts(dir string, ev dto.RawEvidence, pan dto.PANDecision) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, TextArtifact), []byte(ev.FullText), 0o644); err != nil {
		return fmt.Errorf("write text artifact: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, table := range ev.Tables {
		for _, cell := range table {
			if err := enc.Encode(tableRecord{Table: i, Row: cell.Row, Col: cell.Col, Text: cell.Text}); err != nil {
				return fmt.Errorf("encode table cell: %w", err)
			}
		}
	}
	if err := os.WriteFile(filepath.Join(dir, TablesArtifact), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write tables artifact: %w", err)
	}

	panJSON, err := json.MarshalIndent(pan, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pan artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, PANArtifact), panJSON, 0o644); err != nil {
		return fmt.Errorf("write pan artifact: %w", err)
	}
	return nil
}

// LoadArtifacts reads a run directory back. Only the text artifact is
// required. Unreadable tables are dropped with a warning, and an unusable
// PAN artifact is returned as nil so the caller recomputes it.
func LoadArtifacts(dir string, logger *zap.Logger) (dto.RawEvidence, *dto.PANDecision, error) {
	text, err := os.ReadFile(filepath.Join(dir, TextArtifact))
	if err != nil {
		return dto.RawEvidence{}, nil, fmt.Errorf("read text artifact: %w", err)
	}
	ev := dto.RawEvidence{FullText: string(text)}

	tables, err := readTables(filepath.Join(dir, TablesArtifact))
	if err != nil {
		logger.Warn("artifacts.tables.unusable", zap.String("dir", dir), zap.Error(err))
	} else {
		ev.Tables = tables
	}

	pan, err := readPANDecision(filepath.Join(dir, PANArtifact))
	if err != nil {
		logger.Warn("artifacts.pan.unusable", zap.String("dir", dir), zap.Error(err))
		return ev, nil, nil
	}
	return ev, pan, nil
}

// readTables groups cells by table index in order of first appearance.
func readTables(path string) ([]dto.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tables []dto.Table
	index := map[int]int{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec tableRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pos, ok := index[rec.Table]
		if !ok {
			pos = len(tables)
			index[rec.Table] = pos
			tables = append(tables, nil)
		}
		tables[pos] = append(tables[pos], dto.Cell{Row: rec.Row, Col: rec.Col, Text: rec.Text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

var errInconsistentPAN = errors.New("pan decision violates the confidence invariant")

func readPANDecision(path string) (*dto.PANDecision, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d dto.PANDecision
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	if !d.Extraction().Consistent() || d.Reason == "" {
		return nil, errInconsistentPAN
	}
	return &d, nil
}
