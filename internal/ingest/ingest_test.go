package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const testSheet = "DatosParte1"

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), testSheet); err != nil {
		t.Fatal(err)
	}
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(testSheet, cell, value); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

var declarationHeader = []string{
	"Número de Aceptación",
	"Descripción de la Mercancía Detallada 1",
	"Descripción de la Mercancía Detallada 2",
	"Cantidad",
	"Unidad Comercial",
}

func TestScanWorkbooks(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "declaracion.xlsx"), [][]string{
		declarationHeader,
		{"2023001", "BATERIA AA", "MARCA: DURACELL", "4", "Unidad"},
		{"2023002", "PILA | BOTON", "", "7.00", "Unidad"},
		{"", "", "", "", ""},
	})

	// Excel lock files and non-workbook files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "~$declaracion.xlsx"), []byte("lock"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notas.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := ScanWorkbooks(dir, testSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines: %+v", lines)
	}

	first := lines[0]
	if first.LineNo != 1 || first.AcceptanceNumber != "2023001" {
		t.Fatalf("first line: %+v", first)
	}
	if first.Description != "BATERIA AA MARCA: DURACELL" {
		t.Fatalf("detail columns not joined: %q", first.Description)
	}
	if first.QuantityOriginal != "4" || first.Unit != "Unidad" {
		t.Fatalf("first line: %+v", first)
	}

	second := lines[1]
	if second.LineNo != 2 {
		t.Fatalf("renumbering: %+v", second)
	}
	if strings.Contains(second.Description, "|") {
		t.Fatalf("pipe not stripped: %q", second.Description)
	}
	if second.QuantityOriginal != "7.00" {
		t.Fatalf("second line: %+v", second)
	}
}

func TestScanWorkbooksNoFiles(t *testing.T) {
	if _, err := ScanWorkbooks(t.TempDir(), testSheet); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestScanWorkbooksMissingColumns(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "roto.xlsx"), [][]string{
		{"Columna A", "Columna B"},
		{"1", "2"},
	})

	if _, err := ScanWorkbooks(dir, testSheet); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestScanWorkbooksRenumbersAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "a.xlsx"), [][]string{
		declarationHeader,
		{"2023001", "PILA AAA", "", "1", "Unidad"},
	})
	writeWorkbook(t, filepath.Join(dir, "b.xlsx"), [][]string{
		declarationHeader,
		{"2023002", "PILA AA", "", "2", "Unidad"},
	})

	lines, err := ScanWorkbooks(dir, testSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines: %+v", lines)
	}
	for i, line := range lines {
		if line.LineNo != i+1 {
			t.Fatalf("line %d numbered %d", i, line.LineNo)
		}
	}
}

func TestWriteRawFile(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "declaracion.xlsx"), [][]string{
		declarationHeader,
		{"2023001", "BATERIA AA", "", "4", "Unidad"},
	})

	lines, err := ScanWorkbooks(dir, testSheet)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "data", "dataraw.csv")
	if err := WriteRawFile(lines, out); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "numeroaceptacion|descripcion|cantidad|unidades\n" +
		"2023001|BATERIA AA|4|Unidad\n"
	if string(content) != want {
		t.Fatalf("raw file:\n%s", content)
	}
}
