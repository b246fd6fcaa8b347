package internal

import "fmt"

// RawLine is one record of the pipe-delimited intermediate file:
// acceptance number, joined description, declared quantity and unit.
type RawLine struct {
	LineNo           int
	AcceptanceNumber string
	Description      string
	QuantityOriginal string
	Unit             string
}

// CandidateRecord is one extracted (reference, brand, quantity)
// combination attributed to a single input line. Nil reference/brand
// mean the field was absent from the description.
type CandidateRecord struct {
	AcceptanceNumber string
	Reference        *string
	Brand            *string
	Quantity         int
	QuantityOriginal string
}

// Key returns the full-tuple dedup key. Two records are the same output
// row iff their keys are equal.
func (r CandidateRecord) Key() string {
	ref, brand := "\x00", "\x00"
	if r.Reference != nil {
		ref = *r.Reference
	}
	if r.Brand != nil {
		brand = *r.Brand
	}
	return fmt.Sprintf("%s|%s|%s|%d|%s", r.AcceptanceNumber, ref, brand, r.Quantity, r.QuantityOriginal)
}

// RunStats aggregates the per-run counters surfaced to the caller.
type RunStats struct {
	Lines     int
	Malformed int
	Capped    int
	Emitted   int
}

type RunRow struct {
	ID        int
	TraceID   string
	Input     string
	CountsRaw string
	CreatedAt string
}

func StringPtr(v string) *string { return &v }
