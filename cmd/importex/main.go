package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"importex/internal"
	"importex/internal/config"
	"importex/internal/ingest"
	"importex/internal/pipeline"
	"importex/internal/rules"
	"importex/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "prepare":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		rawDir := fs.String("raw-dir", cfg.RawDir, "directory with declaration .xlsx files")
		out := fs.String("out", filepath.Join(cfg.DataDir, "dataraw.csv"), "output raw file")
		_ = fs.Parse(os.Args[2:])
		lines := prepare(cfg, *rawDir, *out)
		fmt.Printf("prepare done files=%s lines=%d\n", *rawDir, len(lines))
	case "process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", filepath.Join(cfg.DataDir, "dataraw.csv"), "raw pipe-delimited input file")
		out := fs.String("out", filepath.Join(cfg.OutputDir, "resultado_procesado.csv"), "output csv path")
		xlsxOut := fs.String("xlsx", "", "optional xlsx output path")
		_ = fs.Parse(os.Args[2:])
		process(cfg, *input, *out, *xlsxOut, nil)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		rawDir := fs.String("raw-dir", cfg.RawDir, "directory with declaration .xlsx files")
		out := fs.String("out", filepath.Join(cfg.OutputDir, "resultado_procesado.csv"), "output csv path")
		xlsxOut := fs.String("xlsx", "", "optional xlsx output path")
		_ = fs.Parse(os.Args[2:])
		rawPath := filepath.Join(cfg.DataDir, "dataraw.csv")
		lines := prepare(cfg, *rawDir, rawPath)
		process(cfg, rawPath, *out, *xlsxOut, lines)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		trace := fs.String("run", "", "trace id of a stored run")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		exportXLSX(cfg, *trace, *out)
	default:
		usage()
		os.Exit(1)
	}
}

func prepare(cfg config.Config, rawDir, outPath string) []internal.RawLine {
	lines, err := ingest.ScanWorkbooks(rawDir, cfg.SheetName)
	must(err)
	must(ingest.WriteRawFile(lines, outPath))
	return lines
}

func process(cfg config.Config, input, out, xlsxOut string, lines []internal.RawLine) {
	pc, err := rules.Load(cfg.DictionaryPath, cfg.ExpressionsPath)
	must(err)
	for _, diag := range pc.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: rule %s skipped: %s\n", diag.Rule, diag.Err)
	}

	processor := pipeline.NewProcessor(cfg, pc)
	collector := pipeline.NewDedupCollector()
	stats, err := processor.ProcessFile(input, collector)
	must(err)

	records := collector.All()
	must(pipeline.WriteRecordsCSV(records, out))
	if strings.TrimSpace(xlsxOut) != "" {
		must(pipeline.ExportRecordsToXLSX(records, xlsxOut))
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	traceID := uuid.NewString()
	runID, err := db.InsertRun(traceID, input, stats)
	must(err)
	if len(lines) > 0 {
		must(db.InsertLines(runID, lines))
	}
	must(db.InsertRecords(runID, records))

	fmt.Printf("processing complete trace=%s lines=%d malformed=%d capped=%d unique=%d\n",
		traceID, stats.Lines, stats.Malformed, stats.Capped, len(records))
	fmt.Printf("output: %s\n", out)
}

func exportXLSX(cfg config.Config, trace, out string) {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	if strings.TrimSpace(trace) == "" {
		run, err := db.LatestRun()
		must(err)
		trace = run.TraceID
	}

	records, err := db.RecordsByTrace(trace)
	must(err)
	if len(records) == 0 {
		must(fmt.Errorf("no records for run %s", trace))
	}
	must(pipeline.ExportRecordsToXLSX(records, out))
	fmt.Printf("exported %d records to %s\n", len(records), out)
}

func usage() {
	fmt.Println("usage: importex <command>")
	fmt.Println("commands:")
	fmt.Println("  prepare --raw-dir=./dataraw --out=./data/dataraw.csv")
	fmt.Println("  process --input=./data/dataraw.csv --out=./out/resultado_procesado.csv [--xlsx=./out/result.xlsx]")
	fmt.Println("  run --raw-dir=./dataraw --out=./out/resultado_procesado.csv [--xlsx=./out/result.xlsx]")
	fmt.Println("  export:xlsx [--run=<traceId>] --out=./out/result.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
