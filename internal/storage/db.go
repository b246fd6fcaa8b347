package storage

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"importex/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL UNIQUE,
  input TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lines (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  acceptanceNumber TEXT NOT NULL,
  description TEXT NOT NULL,
  quantityOriginal TEXT,
  unit TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  acceptanceNumber TEXT NOT NULL,
  reference TEXT,
  brand TEXT,
  quantity INTEGER NOT NULL,
  quantityOriginal TEXT,
  dedupKey TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(runId, dedupKey),
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_records_acceptance ON records(acceptanceNumber);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun stores a run row with its counters serialized as JSON and
// returns the run id.
func (d *DB) InsertRun(traceID, input string, stats internal.RunStats) (int64, error) {
	counts, err := json.Marshal(map[string]int{
		"lines":     stats.Lines,
		"malformed": stats.Malformed,
		"capped":    stats.Capped,
		"emitted":   stats.Emitted,
	})
	if err != nil {
		return 0, err
	}
	res, err := d.conn.Exec(`INSERT INTO runs (traceId, input, countsJson) VALUES (?, ?, ?)`, traceID, input, string(counts))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) InsertLines(runID int64, lines []internal.RawLine) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO lines (runId, lineNo, acceptanceNumber, description, quantityOriginal, unit) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, line := range lines {
		if _, err := stmt.Exec(runID, line.LineNo, line.AcceptanceNumber, line.Description, line.QuantityOriginal, line.Unit); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) InsertRecords(runID int64, records []internal.CandidateRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO records (runId, acceptanceNumber, reference, brand, quantity, quantityOriginal, dedupKey)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(runId, dedupKey) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(runID, rec.AcceptanceNumber, rec.Reference, rec.Brand, rec.Quantity, rec.QuantityOriginal, rec.Key()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordsByTrace returns the stored records of one run, for re-export.
func (d *DB) RecordsByTrace(traceID string) ([]internal.CandidateRecord, error) {
	rows, err := d.conn.Query(`
SELECT r.acceptanceNumber, r.reference, r.brand, r.quantity, r.quantityOriginal
FROM records r JOIN runs ON runs.id = r.runId
WHERE runs.traceId = ?`, traceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.CandidateRecord{}
	for rows.Next() {
		var rec internal.CandidateRecord
		var reference, brand, qtyOriginal sql.NullString
		if err := rows.Scan(&rec.AcceptanceNumber, &reference, &brand, &rec.Quantity, &qtyOriginal); err != nil {
			return nil, err
		}
		if reference.Valid {
			rec.Reference = internal.StringPtr(reference.String)
		}
		if brand.Valid {
			rec.Brand = internal.StringPtr(brand.String)
		}
		rec.QuantityOriginal = qtyOriginal.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) LatestRun() (internal.RunRow, error) {
	var run internal.RunRow
	err := d.conn.QueryRow(`SELECT id, traceId, input, countsJson, createdAt FROM runs ORDER BY id DESC LIMIT 1`).
		Scan(&run.ID, &run.TraceID, &run.Input, &run.CountsRaw, &run.CreatedAt)
	return run, err
}
