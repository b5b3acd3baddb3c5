// Package normalize canonicalizes free-form Portuguese business text so the
// catalog and semantic stages can match on stable keys.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes to NFD, drops combining marks, and recomposes.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// labelPrefixNouns are generic storefront nouns that carry no category signal
// when they lead a subcategory label ("Loja de Roupas" vs "Roupas").
var labelPrefixNouns = []string{"loja", "lojas", "casa", "empresa", "centro", "comercio"}

// labelPrefixPreps are the prepositions that may follow a prefix noun.
var labelPrefixPreps = []string{"de", "da", "do", "das", "dos"}

// Text canonicalizes text for matching: lowercase, accents stripped, any rune
// outside word/whitespace/comma/period/hyphen replaced with a space, runs of
// whitespace collapsed, surrounding whitespace trimmed. Total over all input.
func Text(text string) string {
	out, _, err := transform.String(stripAccents, text)
	if err != nil {
		// runes.Remove never fails on valid UTF-8; fall back to the raw
		// input so the function stays total.
		out = text
	}
	out = strings.ToLower(out)

	var b strings.Builder
	b.Grow(len(out))
	space := true // leading spaces are dropped
	for _, r := range out {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ',' || r == '.' || r == '-':
			b.WriteRune(r)
			space = false
		default:
			// Whitespace and every other symbol collapse to one space.
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// StripLabelPrefix removes a leading storefront noun, optionally followed by a
// preposition, from a subcategory label. The comparison is accent and case
// insensitive but the returned remainder keeps its original form.
func StripLabelPrefix(label string) string {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return label
	}
	if !isLabelPrefixNoun(fields[0]) {
		return label
	}
	rest := fields[1:]
	if len(rest) == 1 && isLabelPrefixPrep(rest[0]) {
		// Noun plus bare preposition carries nothing to keep.
		return label
	}
	if len(rest) > 1 && isLabelPrefixPrep(rest[0]) {
		rest = rest[1:]
	}
	return strings.Join(rest, " ")
}

func isLabelPrefixNoun(word string) bool {
	w := Text(word)
	for _, noun := range labelPrefixNouns {
		if w == noun {
			return true
		}
	}
	return false
}

func isLabelPrefixPrep(word string) bool {
	w := Text(word)
	for _, prep := range labelPrefixPreps {
		if w == prep {
			return true
		}
	}
	return false
}
