package store

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Affidavits"

var exportHeaders = []string{
	"Record ID",
	"Run ID",
	"Source Document",
	"Extracted At (UTC)",
	"PAN",
	"PAN Confidence",
	"PAN Reason",
	"Full Name",
	"Father/Spouse Name",
	"Name Confidence",
	"Name Reason",
	"Age",
	"Address",
	"Mobile",
	"Overall Confidence",
	"Semantic Status",
	"Semantic Agrees",
}

// ExportXLSX renders stored records as an audit workbook.
func ExportXLSX(rows []StoredRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(exportSheet)
	f.SetActiveSheet(idx)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	for r, row := range rows {
		rec := row.Record
		semStatus, semAgrees := "", ""
		if rec.Semantic != nil {
			semStatus = rec.Semantic.Status
			semAgrees = strconv.FormatBool(rec.Semantic.Agrees)
		}
		values := []any{
			row.ID,
			rec.RunID,
			rec.SourceDocument,
			rec.ExtractedAt.Format("2006-01-02 15:04:05"),
			deref(rec.PAN),
			rec.PANStatus.Confidence,
			rec.PANStatus.Reason,
			deref(rec.FullName),
			deref(rec.FatherOrSpouseName),
			rec.Confidence.FullName,
			rec.Reasons.FullName,
			derefInt(rec.Age),
			deref(rec.Address),
			deref(rec.AdditionalInformation.MobileNumber),
			rec.OverallConfidence,
			semStatus,
			semAgrees,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "B", 38)
	_ = f.SetColWidth(exportSheet, "C", "D", 22)
	_ = f.SetColWidth(exportSheet, "E", "E", 14)
	_ = f.SetColWidth(exportSheet, "G", "G", 34)
	_ = f.SetColWidth(exportSheet, "H", "I", 26)
	_ = f.SetColWidth(exportSheet, "K", "K", 44)
	_ = f.SetColWidth(exportSheet, "M", "M", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}
