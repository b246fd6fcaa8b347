package pipeline

import (
	"sort"
	"sync"

	"importex/internal"
)

// DedupCollector accumulates candidate records with set semantics over
// the full record tuple. It is the only mutable state shared across
// lines, so Add is safe for concurrent callers.
type DedupCollector struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	records []internal.CandidateRecord
}

func NewDedupCollector() *DedupCollector {
	return &DedupCollector{seen: map[string]struct{}{}}
}

// Add inserts a record unless an equal one is already present. Returns
// whether the record was new.
func (c *DedupCollector) Add(rec internal.CandidateRecord) bool {
	key := rec.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.seen[key]; exists {
		return false
	}
	c.seen[key] = struct{}{}
	c.records = append(c.records, rec)
	return true
}

// All returns the collected records. No ordering is guaranteed; callers
// needing deterministic output must sort (see SortRecords).
func (c *DedupCollector) All() []internal.CandidateRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]internal.CandidateRecord, len(c.records))
	copy(out, c.records)
	return out
}

func (c *DedupCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// SortRecords orders records by acceptance number, then reference, then
// brand, then quantity, for stable output files.
func SortRecords(records []internal.CandidateRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.AcceptanceNumber != b.AcceptanceNumber {
			return a.AcceptanceNumber < b.AcceptanceNumber
		}
		if ar, br := derefOr(a.Reference, ""), derefOr(b.Reference, ""); ar != br {
			return ar < br
		}
		if ab, bb := derefOr(a.Brand, ""), derefOr(b.Brand, ""); ab != bb {
			return ab < bb
		}
		return a.Quantity < b.Quantity
	})
}

func derefOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
