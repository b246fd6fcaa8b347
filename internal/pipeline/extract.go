package pipeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"importex/internal/rules"
)

// Boundary patterns, most specific first. Capture group 1 is the field
// value; the match may extend into the next label keyword, which acts as
// the boundary so one field's value never swallows the start of the
// next. Looser patterns only claim occurrences the earlier ones missed.
var (
	refBoundary = `(?:,\s*(?:MARCA|CANTIDAD|REFERENCIA|PRODUCTO|MODELO|CODIGO|SERIAL)|$)`
	refPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i),\s*REFERENCIA:\s*([^,]+?)\s*` + refBoundary),
		regexp.MustCompile(`(?i)REFERENCIA:\s*([^,]+?)\s*` + refBoundary),
		regexp.MustCompile(`(?i),\s*REFERENCIA:\s*([^,.;:]+?)\s*(?:[,.;:]|$)`),
	}

	brandBoundary = `(?:,\s*(?:MODELO|REFERENCIA|CANTIDAD|MARCA|PRODUCTO|CODIGO|SERIAL)|$)`
	brandPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i),\s*MARCA:\s*([^,]+?)\s*` + brandBoundary),
		regexp.MustCompile(`(?i)MARCA:\s*([^,]+?)\s*` + brandBoundary),
		regexp.MustCompile(`(?i),\s*MARCA:\s*([^,.;:]+?)\s*(?:[,.;:]|$)`),
	}

	// U must not be the start of UNIDAD, or the unit word would be
	// double-matched.
	qtyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i),\s*CANTIDAD:\s*(\d+)\s*UNIDADES?`),
		regexp.MustCompile(`(?i),\s*CANTIDAD:\s*(\d+)\s*U(?:[^A-Za-z]|$)`),
		regexp.MustCompile(`(?i),\s*CANTIDAD:\s*\(?(\d+)\)?\s*U(?:[^A-Za-z]|$)`),
		regexp.MustCompile(`(?i),\s*CANTIDAD:\s*(\d+)`),
		regexp.MustCompile(`(?i)CANTIDAD:\s*(\d+)\s*UNIDADES?`),
		regexp.MustCompile(`(?i)CANTIDAD:\s*(\d+)\s*U(?:[^A-Za-z]|$)`),
		regexp.MustCompile(`(?i)CANTIDAD:\s*\(?(\d+)\)?\s*U(?:[^A-Za-z]|$)`),
		regexp.MustCompile(`(?i)CANTIDAD:\s*(\d+)`),
	}

	reTrailingPunct = regexp.MustCompile(`[,;.:\s]+$`)
	reHyphenSpaces  = regexp.MustCompile(`\s*-\s*`)
)

// Placeholder phrases that mean "value absent", not a real value.
var invalidPlaceholders = map[string]struct{}{
	"NO TIENE":      {},
	"SEGUN FACTURA": {},
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

// findFieldValues applies the ordered patterns to text. The first
// pattern that captures a given occurrence wins it; later patterns only
// add occurrences whose value span is still unclaimed. Scanning resumes
// at the end of each captured value so an adjacent label consumed as a
// boundary stays visible to the next match.
func findFieldValues(text string, patterns []*regexp.Regexp) []string {
	claimed := []span{}
	values := []string{}

	for _, re := range patterns {
		pos := 0
		for pos <= len(text) {
			loc := re.FindStringSubmatchIndex(text[pos:])
			if loc == nil {
				break
			}
			if loc[2] < 0 || loc[3] < loc[2] {
				break
			}
			value := span{start: pos + loc[2], end: pos + loc[3]}
			taken := false
			for _, c := range claimed {
				if value.overlaps(c) {
					taken = true
					break
				}
			}
			if !taken {
				claimed = append(claimed, value)
				values = append(values, text[value.start:value.end])
			}

			next := value.end
			if next <= pos {
				next = pos + 1
			}
			pos = next
		}
	}

	return values
}

// ExtractReferences returns the distinct corrected references found in
// canonical text, sorted for deterministic downstream pairing.
func ExtractReferences(text string, pc *rules.PatternConfig) []string {
	seen := map[string]struct{}{}
	for _, match := range findFieldValues(text, refPatterns) {
		ref := reTrailingPunct.ReplaceAllString(strings.TrimSpace(match), "")
		if !validFieldValue(ref) {
			continue
		}
		seen[correctReference(ref, pc)] = struct{}{}
	}
	return sortedKeys(seen)
}

// ExtractBrands returns the distinct brands found in canonical text,
// corrected against the known-brand map.
func ExtractBrands(text string, pc *rules.PatternConfig) []string {
	seen := map[string]struct{}{}
	for _, match := range findFieldValues(text, brandPatterns) {
		brand := reTrailingPunct.ReplaceAllString(strings.TrimSpace(match), "")
		if !validFieldValue(brand) {
			continue
		}
		if canonical, ok := pc.KnownBrands[brand]; ok && canonical != "" {
			brand = canonical
		}
		seen[brand] = struct{}{}
	}
	return sortedKeys(seen)
}

// ExtractQuantities returns the distinct positive quantities found in
// canonical text, ascending.
func ExtractQuantities(text string) []int {
	seen := map[int]struct{}{}
	for _, match := range findFieldValues(text, qtyPatterns) {
		qty, err := strconv.Atoi(match)
		if err != nil || qty <= 0 {
			continue
		}
		seen[qty] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for qty := range seen {
		out = append(out, qty)
	}
	sort.Ints(out)
	return out
}

func validFieldValue(value string) bool {
	if len(value) < 2 {
		return false
	}
	_, invalid := invalidPlaceholders[strings.ToUpper(value)]
	return !invalid
}

// correctReference resolves a raw reference through the correction map,
// falling back to hyphen and whitespace normalization.
func correctReference(ref string, pc *rules.PatternConfig) string {
	key := strings.ToUpper(strings.TrimSpace(ref))
	for wrong, right := range pc.ReferenceCorrections {
		if key == strings.ToUpper(strings.TrimSpace(wrong)) {
			return right
		}
	}
	normalized := reHyphenSpaces.ReplaceAllString(ref, "-")
	return strings.TrimSpace(reSpaces.ReplaceAllString(normalized, " "))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
