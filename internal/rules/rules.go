package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// RewriteRule is one compiled normalization rule. Rules are applied in
// the configured order; each rule rewrites the previous rule's output.
type RewriteRule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Diagnostic records a configured rule that could not be compiled and
// was skipped for the run.
type Diagnostic struct {
	Rule string
	Err  string
}

// LabelGroup maps the surface variants of one field label to its
// canonical labeled form (e.g. "MARCA=", "MARCA :" -> ", MARCA: ").
type LabelGroup struct {
	Key         string
	Replacement string
	Variants    []string
}

// PatternConfig is the loaded, read-only rule set shared by the whole
// run. No component mutates it after Load.
type PatternConfig struct {
	Rules                []RewriteRule
	Diagnostics          []Diagnostic
	Labels               []LabelGroup
	KnownBrands          map[string]string
	ReferenceCorrections map[string]string
}

// Application order used when the expressions file does not carry its
// own orden_aplicacion list.
var defaultRuleOrder = []string{
	"normalizar_cantidad_unidad_decimales",
	"normalizar_cantidad_unidad_enteros",
	"separar_cantidad_producto",
	"normalizar_espacios_antes_producto",
	"normalizar_cantidad_punto_coma",
	"normalizar_cantidad_coma",
	"eliminar_decimales",
	"normalizar_punto_coma_mercancia",
	"limpiar_espacios_multiples",
	"patron_palabra_cantidad",
	"normalizar_cantidad_espacio",
}

type dictionaryFile struct {
	SegunVariants            []string          `json:"segun_variants"`
	FacturaVariants          []string          `json:"factura_variants"`
	ReferenciaVariants       []string          `json:"referencia_variants"`
	MarcaVariants            []string          `json:"marca_variants"`
	CantidadVariants         []string          `json:"cantidad_variants"`
	CodigoVariants           []string          `json:"codigo_variants"`
	ProductoVariants         []string          `json:"producto_variants"`
	MarcasConocidas          map[string]string `json:"marcas_conocidas"`
	ReferenciaModeloVariants map[string]string `json:"referencia_modelo_variants"`
}

type expressionsFile struct {
	Order []string `json:"orden_aplicacion"`
	Rules map[string]struct {
		Patron    string `json:"patron"`
		Reemplazo string `json:"reemplazo"`
	} `json:"expresiones_regulares"`
}

// Load reads the dictionary and expressions files. A missing or
// structurally invalid file is fatal; an individual rule that fails to
// compile is skipped and reported through Diagnostics.
func Load(dictionaryPath, expressionsPath string) (*PatternConfig, error) {
	dictRaw, err := os.ReadFile(dictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	exprRaw, err := os.ReadFile(expressionsPath)
	if err != nil {
		return nil, fmt.Errorf("read expressions: %w", err)
	}
	return Parse(dictRaw, exprRaw)
}

// Parse decodes and validates the two configuration documents.
func Parse(dictRaw, exprRaw []byte) (*PatternConfig, error) {
	var dict dictionaryFile
	if err := json.Unmarshal(dictRaw, &dict); err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}
	if dict.ReferenciaVariants == nil || dict.MarcaVariants == nil || dict.CantidadVariants == nil {
		return nil, fmt.Errorf("dictionary: referencia_variants, marca_variants and cantidad_variants are required")
	}

	var expr expressionsFile
	if err := json.Unmarshal(exprRaw, &expr); err != nil {
		return nil, fmt.Errorf("expressions: %w", err)
	}
	if expr.Rules == nil {
		return nil, fmt.Errorf("expressions: expresiones_regulares is required")
	}

	order := expr.Order
	if len(order) == 0 {
		order = defaultRuleOrder
	}

	pc := &PatternConfig{
		KnownBrands:          dict.MarcasConocidas,
		ReferenceCorrections: dict.ReferenciaModeloVariants,
		Labels: []LabelGroup{
			{Key: "SEGUN", Replacement: " SEGUN ", Variants: dict.SegunVariants},
			{Key: "FACTURA", Replacement: " FACTURA ", Variants: dict.FacturaVariants},
			{Key: "REFERENCIA", Replacement: ", REFERENCIA: ", Variants: dict.ReferenciaVariants},
			{Key: "MARCA", Replacement: ", MARCA: ", Variants: dict.MarcaVariants},
			{Key: "CANTIDAD", Replacement: ", CANTIDAD: ", Variants: dict.CantidadVariants},
			{Key: "CODIGO", Replacement: ", CODIGO: ", Variants: dict.CodigoVariants},
			{Key: "PRODUCTO", Replacement: ", PRODUCTO: ", Variants: dict.ProductoVariants},
		},
	}
	if pc.KnownBrands == nil {
		pc.KnownBrands = map[string]string{}
	}
	if pc.ReferenceCorrections == nil {
		pc.ReferenceCorrections = map[string]string{}
	}

	for _, name := range order {
		raw, ok := expr.Rules[name]
		if !ok {
			continue
		}
		if raw.Patron == "" {
			continue
		}
		compiled, err := regexp.Compile(raw.Patron)
		if err != nil {
			pc.Diagnostics = append(pc.Diagnostics, Diagnostic{Rule: name, Err: err.Error()})
			continue
		}
		pc.Rules = append(pc.Rules, RewriteRule{
			Name:        name,
			Pattern:     compiled,
			Replacement: translateBackrefs(raw.Reemplazo),
		})
	}

	return pc, nil
}

var backref = regexp.MustCompile(`\\([0-9])`)

// translateBackrefs rewrites \1-style backreferences, the syntax the
// shipped expression files use, into Go's ${1} form.
func translateBackrefs(replacement string) string {
	return backref.ReplaceAllString(replacement, "$${${1}}")
}
