package pipeline

import (
	"reflect"
	"testing"
)

func TestExtractBoundaries(t *testing.T) {
	pc := loadTestConfig(t)
	text := "PILA ALCALINA, MARCA: DURACELL, CANTIDAD: 4 UNIDADES, REFERENCIA: AA-1.5V"

	if got := ExtractBrands(text, pc); !reflect.DeepEqual(got, []string{"DURACELL"}) {
		t.Fatalf("brands: %v", got)
	}
	if got := ExtractQuantities(text); !reflect.DeepEqual(got, []int{4}) {
		t.Fatalf("quantities: %v", got)
	}
	if got := ExtractReferences(text, pc); !reflect.DeepEqual(got, []string{"AA-1.5V"}) {
		t.Fatalf("references: %v", got)
	}
}

func TestExtractMultipleOccurrences(t *testing.T) {
	pc := loadTestConfig(t)
	text := "REFERENCIA: A1-X, MARCA: TRONEX, REFERENCIA: B2-Y, MARCA: MAXELL"

	if got := ExtractReferences(text, pc); !reflect.DeepEqual(got, []string{"A1-X", "B2-Y"}) {
		t.Fatalf("references: %v", got)
	}
	if got := ExtractBrands(text, pc); !reflect.DeepEqual(got, []string{"MAXELL", "TRONEX"}) {
		t.Fatalf("brands: %v", got)
	}
}

func TestExtractReferencePlaceholdersDiscarded(t *testing.T) {
	pc := loadTestConfig(t)

	cases := []struct {
		name string
		text string
	}{
		{name: "no tiene", text: "PILA, REFERENCIA: NO TIENE, MARCA: VARTA"},
		{name: "segun factura", text: "PILA, REFERENCIA: SEGUN FACTURA, MARCA: VARTA"},
		{name: "single char", text: "PILA, REFERENCIA: X, MARCA: VARTA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractReferences(tc.text, pc); len(got) != 0 {
				t.Fatalf("expected no references, got %v", got)
			}
		})
	}
}

func TestExtractBrandCorrection(t *testing.T) {
	pc := loadTestConfig(t)

	// Misspelled brand resolves through the known-brand map.
	got := ExtractBrands("PILA, MARCA: DURACEL, CANTIDAD: 2 UNIDADES", pc)
	if !reflect.DeepEqual(got, []string{"DURACELL"}) {
		t.Fatalf("brands: %v", got)
	}

	// Trailing whitespace is trimmed before lookup.
	got = ExtractBrands("PILA, MARCA: DURACELL , CANTIDAD: 2 UNIDADES", pc)
	if !reflect.DeepEqual(got, []string{"DURACELL"}) {
		t.Fatalf("brands: %v", got)
	}
}

func TestExtractReferenceCorrection(t *testing.T) {
	pc := loadTestConfig(t)

	// Exact-key dictionary correction.
	got := ExtractReferences("PILA, REFERENCIA: AA 1.5V, MARCA: VARTA", pc)
	if !reflect.DeepEqual(got, []string{"AA-1.5V"}) {
		t.Fatalf("references: %v", got)
	}

	// Hyphen spacing normalized when the dictionary has no entry.
	got = ExtractReferences("PILA, REFERENCIA: ZZ - 99, MARCA: VARTA", pc)
	if !reflect.DeepEqual(got, []string{"ZZ-99"}) {
		t.Fatalf("references: %v", got)
	}
}

func TestExtractQuantities(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []int
	}{
		{name: "unit word", text: "X, CANTIDAD: 4 UNIDADES", want: []int{4}},
		{name: "singular unit word", text: "X, CANTIDAD: 1 UNIDAD", want: []int{1}},
		{name: "bare u", text: "X, CANTIDAD: 10 U, MARCA: VARTA", want: []int{10}},
		{name: "parenthesized", text: "X, CANTIDAD: (8) U", want: []int{8}},
		{name: "no unit suffix", text: "X, CANTIDAD: 7", want: []int{7}},
		{name: "no leading comma", text: "CANTIDAD: 3 UNIDADES", want: []int{3}},
		{name: "multiple", text: "X, CANTIDAD: 2 UNIDADES, CANTIDAD: 5 UNIDADES", want: []int{2, 5}},
		{name: "unit word not double matched", text: "X, CANTIDAD: 6 UNIDADES Y MAS", want: []int{6}},
		{name: "zero discarded", text: "X, CANTIDAD: 0 UNIDADES", want: []int{}},
		{name: "no label", text: "X 5 UNIDADES", want: []int{}},
		{name: "empty", text: "", want: []int{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractQuantities(tc.text)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestExtractEmptyText(t *testing.T) {
	pc := loadTestConfig(t)
	if got := ExtractReferences("", pc); len(got) != 0 {
		t.Fatalf("references: %v", got)
	}
	if got := ExtractBrands("", pc); len(got) != 0 {
		t.Fatalf("brands: %v", got)
	}
}
