package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Empty", "", ""},
		{"WhitespaceOnly", "   \t\n  ", ""},
		{"Lowercases", "URGENTE", "urgente"},
		{"StripsDiacritics", "Referência", "referencia"},
		{"StripsPortugueseAccents", "Atenção: dívida em execução", "atencao: divida em execucao"},
		{"CollapsesWhitespace", "pague  a\t taxa \n agora", "pague a taxa agora"},
		{"TrimsEdges", "  ola  ", "ola"},
		{"PreservesDigitsAndPunctuation", "Entidade: 10611, Ref: 123 456 789", "entidade: 10611, ref: 123 456 789"},
		{"MixedCaseAccents", "CONFIRMEÇÃO Já", "confirmecao ja"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"URGENTE: Confirme os seus dados",
		"Última    chance\tantes da penhora",
		"entidade 10611 referencia 123456789",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
