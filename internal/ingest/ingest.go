package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"importex/internal"
)

// Column probes for the declaration workbooks. Matching is lowercase
// substring, so accent and spacing variations across files still hit.
var (
	acceptanceProbes = []string{"aceptaci"}
	quantityProbes   = []string{"cantidad"}
	unitProbes       = []string{"unidad comercial", "unidad"}
	detailProbe      = "detallada"
)

const maxDetailColumns = 5

// ScanWorkbooks reads every .xlsx declaration file under rawDir (Excel
// lock files are skipped), joins the detail description columns of the
// given sheet into one description per row, and returns the flat lines.
func ScanWorkbooks(rawDir, sheet string) ([]internal.RawLine, error) {
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("read raw dir: %w", err)
	}

	lines := []internal.RawLine{}
	found := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		found++
		fileLines, err := readWorkbook(filepath.Join(rawDir, name), sheet)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		lines = append(lines, fileLines...)
	}
	if found == 0 {
		return nil, fmt.Errorf("no .xlsx files in %s", rawDir)
	}

	for i := range lines {
		lines[i].LineNo = i + 1
	}
	return lines, nil
}

func readWorkbook(path, sheet string) ([]internal.RawLine, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	acceptIdx := findColumn(header, acceptanceProbes)
	qtyIdx := findColumn(header, quantityProbes)
	unitIdx := findColumn(header, unitProbes)
	detailIdx := findDetailColumns(header)
	if acceptIdx < 0 || len(detailIdx) == 0 {
		return nil, fmt.Errorf("sheet %s: acceptance or detail columns not found", sheet)
	}

	out := make([]internal.RawLine, 0, len(rows)-1)
	for _, row := range rows[1:] {
		acceptance := cleanCell(pick(row, acceptIdx))
		description := joinDetails(row, detailIdx)
		if acceptance == "" && description == "" {
			continue
		}
		out = append(out, internal.RawLine{
			AcceptanceNumber: acceptance,
			Description:      description,
			QuantityOriginal: cleanCell(pick(row, qtyIdx)),
			Unit:             cleanCell(pick(row, unitIdx)),
		})
	}
	return out, nil
}

// WriteRawFile writes the pipe-delimited intermediate file the
// processing stage consumes.
func WriteRawFile(lines []internal.RawLine, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "numeroaceptacion|descripcion|cantidad|unidades"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(f, "%s|%s|%s|%s\n", line.AcceptanceNumber, line.Description, line.QuantityOriginal, line.Unit); err != nil {
			return err
		}
	}
	return nil
}

func findColumn(header []string, probes []string) int {
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, probe := range probes {
			if strings.Contains(lower, probe) {
				return i
			}
		}
	}
	return -1
}

// findDetailColumns locates the numbered detail-description columns, in
// workbook order, up to the five the source format carries.
func findDetailColumns(header []string) []int {
	out := []int{}
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), detailProbe) {
			out = append(out, i)
			if len(out) == maxDetailColumns {
				break
			}
		}
	}
	return out
}

func joinDetails(row []string, idx []int) string {
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		if cell := cleanCell(pick(row, i)); cell != "" {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, " ")
}

func pick(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

// cleanCell trims a cell and strips pipes, which are reserved as the
// intermediate file delimiter.
func cleanCell(cell string) string {
	return strings.TrimSpace(strings.ReplaceAll(cell, "|", ""))
}
