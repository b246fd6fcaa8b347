package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"importex/internal"
)

var exportHeaders = []string{"numero_aceptacion", "referencia", "marca", "cantidad", "cantidad_original"}

// Placeholder the output files use for an absent reference or brand.
const absentValue = "NO TIENE"

// WriteRecordsCSV writes the records as pipe-delimited text in a stable
// order.
func WriteRecordsCSV(records []internal.CandidateRecord, outputPath string) error {
	SortRecords(records)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '|'

	if err := w.Write(exportHeaders); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.AcceptanceNumber,
			derefOr(rec.Reference, absentValue),
			derefOr(rec.Brand, absentValue),
			strconv.Itoa(rec.Quantity),
			rec.QuantityOriginal,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ExportRecordsToXLSX writes the records to a single-sheet workbook.
func ExportRecordsToXLSX(records []internal.CandidateRecord, outputPath string) error {
	SortRecords(records)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, rec.AcceptanceNumber)
		set(2, derefOr(rec.Reference, absentValue))
		set(3, derefOr(rec.Brand, absentValue))
		set(4, rec.Quantity)
		set(5, rec.QuantityOriginal)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
