package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_Basic(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "PADARIA", "padaria"},
		{"strips accents", "Salão de Beleza", "salao de beleza"},
		{"cedilla", "Serviços", "servicos"},
		{"collapses whitespace", "  a   b\t c ", "a b c"},
		{"keeps comma period hyphen", "Loja 12, Shopping-Center. SP", "loja 12, shopping-center. sp"},
		{"drops symbols", "Pão & Cia (Matriz)", "pao cia matriz"},
		{"empty", "", ""},
		{"only symbols", "@#$%", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"Salão de Beleza",
		"  PÃO   QUENTE!!  ",
		"café-com-leite, açúcar.",
		"",
		"loja 12, shopping center",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "normalize must be idempotent for %q", in)
	}
}

func TestStripLabelPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Loja de Roupas", "Roupas"},
		{"Loja Roupas", "Roupas"},
		{"Casa de Carnes", "Carnes"},
		{"Centro Automotivo", "Automotivo"},
		{"Padaria", "Padaria"},
		{"Salão de Beleza", "Salão de Beleza"},
		{"Loja", "Loja"},
		{"Loja de", "Loja de"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripLabelPrefix(tt.input), "input %q", tt.input)
	}
}
