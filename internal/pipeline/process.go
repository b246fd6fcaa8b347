package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"importex/internal"
	"importex/internal/config"
	"importex/internal/rules"
)

// Processor turns raw input lines into candidate records. It never
// fails on malformed input; rows degrade to nulls and counters.
type Processor struct {
	pc        *rules.PatternConfig
	maxCombos int
}

func NewProcessor(cfg config.Config, pc *rules.PatternConfig) *Processor {
	maxCombos := cfg.MaxCombinations
	if maxCombos <= 0 {
		maxCombos = 24
	}
	return &Processor{pc: pc, maxCombos: maxCombos}
}

type LineResult struct {
	Records   []internal.CandidateRecord
	Malformed bool
	Capped    bool
}

var reQtyDecimalZeros = regexp.MustCompile(`(\d+)[.,]00\b`)

// ProcessLine normalizes one line's description, extracts the entities
// and expands them into candidate records: the cross-product of
// references x brands x quantities, with a nil placeholder substituted
// for any empty set, capped at maxCombos combinations.
func (p *Processor) ProcessLine(line internal.RawLine) LineResult {
	text := Canonicalize(line.Description, p.pc)

	refs := ExtractReferences(text, p.pc)
	brands := ExtractBrands(text, p.pc)
	qtys := ExtractQuantities(text)

	result := LineResult{}
	if len(qtys) == 0 {
		fallback, ok := parseOriginalQuantity(line.QuantityOriginal)
		if !ok {
			result.Malformed = true
		}
		qtys = []int{fallback}
	}

	refPtrs := toPtrSet(refs)
	brandPtrs := toPtrSet(brands)

	for _, ref := range refPtrs {
		for _, brand := range brandPtrs {
			for _, qty := range qtys {
				if len(result.Records) >= p.maxCombos {
					result.Capped = true
					return result
				}
				result.Records = append(result.Records, internal.CandidateRecord{
					AcceptanceNumber: line.AcceptanceNumber,
					Reference:        ref,
					Brand:            brand,
					Quantity:         qty,
					QuantityOriginal: line.QuantityOriginal,
				})
			}
		}
	}

	return result
}

// ProcessFile runs every line of a pipe-delimited raw file through the
// processor and feeds the records into the collector.
func (p *Processor) ProcessFile(path string, collector *DedupCollector) (internal.RunStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return internal.RunStats{}, err
	}
	defer f.Close()

	stats := internal.RunStats{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		lineNo++
		if lineNo == 1 && isHeaderLine(text) {
			continue
		}

		raw, ok := parseRawLine(lineNo, text)
		if !ok {
			stats.Malformed++
			continue
		}

		stats.Lines++
		result := p.ProcessLine(raw)
		if result.Malformed {
			stats.Malformed++
		}
		if result.Capped {
			stats.Capped++
		}
		for _, rec := range result.Records {
			stats.Emitted++
			collector.Add(rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read %s: %w", path, err)
	}

	return stats, nil
}

// parseRawLine splits a raw record on pipes. Extra pipes belong to the
// description; the last two fields are always quantity and unit. A line
// missing the trailing fields is still processed with what it has.
func parseRawLine(lineNo int, text string) (internal.RawLine, bool) {
	parts := strings.Split(text, "|")
	if len(parts) >= 4 {
		return internal.RawLine{
			LineNo:           lineNo,
			AcceptanceNumber: strings.TrimSpace(parts[0]),
			Description:      strings.TrimSpace(strings.Join(parts[1:len(parts)-2], "|")),
			QuantityOriginal: strings.TrimSpace(parts[len(parts)-2]),
			Unit:             strings.TrimSpace(parts[len(parts)-1]),
		}, true
	}
	if len(parts) >= 2 {
		return internal.RawLine{
			LineNo:           lineNo,
			AcceptanceNumber: strings.TrimSpace(parts[0]),
			Description:      strings.TrimSpace(strings.Join(parts[1:], " ")),
		}, true
	}
	return internal.RawLine{}, false
}

func isHeaderLine(text string) bool {
	return strings.HasPrefix(strings.ToLower(text), "numeroaceptacion|")
}

// parseOriginalQuantity parses the declared quantity field, tolerating
// the trailing-zero decimal notation of the source files ("4.00", "4,00").
func parseOriginalQuantity(raw string) (int, bool) {
	cleaned := reQtyDecimalZeros.ReplaceAllString(strings.TrimSpace(raw), "${1}")
	if cleaned == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(cleaned, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return int(parsed), true
}

func toPtrSet(values []string) []*string {
	if len(values) == 0 {
		return []*string{nil}
	}
	out := make([]*string, 0, len(values))
	for i := range values {
		out = append(out, &values[i])
	}
	return out
}
