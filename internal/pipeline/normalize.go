package pipeline

import (
	"regexp"
	"strings"

	"importex/internal/rules"
)

var (
	// Alternate label separators and bracketing seen in source data.
	symbolReplacer = strings.NewReplacer(
		"|", ":",
		"_", ":",
		"=", ":",
		"(", " ",
		")", " ",
		";", ",",
	)
	reSpaces    = regexp.MustCompile(`\s+`)
	reCommaRuns = regexp.MustCompile(`,(?:\s*,)+`)
)

// Literal corrections for known malformed label spellings. Applied in
// order before the regex rules, which key off correctly spelled labels.
// Pairs that insert a comma are preceded by a pair stripping an existing
// one, so re-normalizing canonical text leaves it unchanged.
var termCorrections = [][2]string{
	{", PAIS", "PAIS"},
	{"PAIS", ", PAIS"},
	{"P. ORIGEN:", ", PAIS:"},
	{"CANTIDAD DECLARADA: ", ", DECLARADA :"},
	{"CANTIDAD FACTURADA:", ", CANTIDAD: "},
	{"N O TIENE", "NO TIENE"},
	{"NO TI ENE", "NO TIENE"},
	{"NO TIEN E", "NO TIENE"},
	{"NO TIE NE", "NO TIENE"},
	{", WC", " WC"},
	{" WC", ", WC"},
	{"REFERENCIA: ARANCELARIA", ", ARANCEL"},
	{"REFERENCIA: ARANCELARI A", ", ARANCEL"},
	{"PARTE NUMERO ", ""},
	{"PA RTE NUMERO ", ""},
	{"UNIDADES:", "UNIDADES."},
	{"MARCA: IMPORTADOR:", ""},
	{", MODELO", "MODELO"},
	{"MODELO", ", MODELO"},
	{", ITEM", "ITEM"},
	{"ITEM", ", ITEM"},
	{", MARCA: SEGUN FACTURA", ", MARCA: "},
	{", SERIAL:", "SERIAL:"},
	{"SERIAL:", ", SERIAL:"},
	{"YMARCA:", "Y, MARCA: "},
	{"QU6224", "U6224"},
	{"U 6224", "U6224"},
	{"U6224", "QU6224"},
	{"SEGUN ORDEN DE COMPRA", ""},
	{". USO", ", USO"},
	{", USO", " USO"},
	{" USO", ", USO"},
	{", BATERIA", " BATERIA"},
	{" BATERIA", ", BATERIA"},
	{"/", ","},
}

// Normalize rewrites a raw description into canonical form. Stages run
// in a fixed order; each stage consumes the previous stage's output.
// Empty input yields an empty string.
func Normalize(raw string, pc *rules.PatternConfig) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	s := symbolReplacer.Replace(raw)

	for _, pair := range termCorrections {
		s = strings.ReplaceAll(s, pair[0], pair[1])
	}

	for _, rule := range pc.Rules {
		s = rule.Pattern.ReplaceAllString(s, rule.Replacement)
	}

	s = strings.ToUpper(s)

	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// ApplyLabelVariants replaces every configured surface variant with its
// canonical labeled form, turning vendor phrasing into the
// label-punctuated text the extractors key on.
func ApplyLabelVariants(text string, pc *rules.PatternConfig) string {
	if text == "" {
		return ""
	}
	for _, group := range pc.Labels {
		for _, variant := range group.Variants {
			if strings.Contains(text, variant) {
				text = strings.ReplaceAll(text, variant, group.Replacement)
			}
		}
	}
	// Replacements insert a leading comma, so a label that already had
	// one ends up doubled.
	text = reCommaRuns.ReplaceAllString(text, ",")
	return strings.TrimSpace(reSpaces.ReplaceAllString(text, " "))
}

// Canonicalize is the full normalization applied per input line.
func Canonicalize(raw string, pc *rules.PatternConfig) string {
	return ApplyLabelVariants(Normalize(raw, pc), pc)
}
