// Package catalog builds the curated subcategory catalog into the lookup
// structures the reclassification pipeline matches against.
package catalog

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/brain-insights/microclass-cli/internal/model"
	"github.com/brain-insights/microclass-cli/internal/normalize"
)

// Row is one raw catalog mapping as loaded from a sheet tab or CSV file.
type Row struct {
	OriginalLabel  string `json:"original_label"`
	CanonicalLabel string `json:"canonical_label"`
	OwningCategory string `json:"owning_category"`
}

// Entry is a deduplicated catalog row plus its normalized matching keys.
type Entry struct {
	OriginalLabel  string
	CanonicalLabel string
	OwningCategory string
	KOriginal      string
	KCanonical     string
	KCategory      string
}

// FormatError reports a catalog table whose header is missing a required
// logical column after alias resolution.
type FormatError struct {
	Missing []string
	Header  []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("catalog: required columns %v not found in header %v",
		e.Missing, e.Header)
}

// HeaderAliases maps each logical catalog field to its accepted header
// spellings. Matching is case-insensitive on normalized header cells.
type HeaderAliases struct {
	Original  []string `json:"original" mapstructure:"original"`
	Canonical []string `json:"canonical" mapstructure:"canonical"`
	Category  []string `json:"category" mapstructure:"category"`
}

// DefaultHeaderAliases covers the spellings observed across catalog exports.
func DefaultHeaderAliases() HeaderAliases {
	return HeaderAliases{
		Original:  []string{"SubCat Original", "SubCat_Original", "Subcategoria Original", "Original Subcategory"},
		Canonical: []string{"Nova SubCat", "Nova_SubCat", "Nova Subcategoria", "New Subcategory"},
		Category:  []string{"categoria_oficial", "Categoria Oficial", "Categoria", "Category"},
	}
}

// ParseTable resolves the header against the aliases and converts raw rows
// into catalog rows. When category is non-empty it is used as the owning
// category for every row (the Sheets loader passes the tab name) and the
// category column becomes optional. Returns *FormatError when a required
// column cannot be resolved.
func ParseTable(header []string, rows [][]string, aliases HeaderAliases, category string) ([]Row, error) {
	origIdx := findColumn(header, aliases.Original)
	canonIdx := findColumn(header, aliases.Canonical)
	catIdx := findColumn(header, aliases.Category)

	var missing []string
	if origIdx < 0 {
		missing = append(missing, "original subcategory")
	}
	if canonIdx < 0 {
		missing = append(missing, "new subcategory")
	}
	if catIdx < 0 && category == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return nil, &FormatError{Missing: missing, Header: header}
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		r := Row{
			OriginalLabel:  cell(row, origIdx),
			CanonicalLabel: cell(row, canonIdx),
			OwningCategory: category,
		}
		if r.OwningCategory == "" {
			r.OwningCategory = cell(row, catIdx)
		}
		if r.OriginalLabel == "" || r.CanonicalLabel == "" || r.OwningCategory == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func findColumn(header, candidates []string) int {
	for i, col := range header {
		key := normalize.Text(col)
		for _, cand := range candidates {
			if key == normalize.Text(cand) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(row[idx], "\uFEFF"))
}

// Index holds the read-only lookup structures for one pipeline invocation.
type Index struct {
	entries []Entry

	originalToCanonical map[string]string // normalized original -> pretty canonical
	originalToCanonKey  map[string]string // normalized original -> normalized canonical
	canonKeyToCategory  map[string]string // normalized canonical -> owning category
	canonKeyToPretty    map[string]string // normalized canonical -> pretty canonical
}

// Build deduplicates rows on the normalized (original, canonical, category)
// triple — later rows win, so session additions override earlier curation —
// and derives the four lookup maps.
func Build(rows []Row) *Index {
	type key struct{ o, c, cat string }
	seen := make(map[key]int, len(rows))
	entries := make([]Entry, 0, len(rows))

	for _, row := range rows {
		e := Entry{
			OriginalLabel:  strings.TrimSpace(row.OriginalLabel),
			CanonicalLabel: strings.TrimSpace(row.CanonicalLabel),
			OwningCategory: strings.TrimSpace(row.OwningCategory),
		}
		e.KOriginal = normalize.Text(e.OriginalLabel)
		e.KCanonical = normalize.Text(e.CanonicalLabel)
		e.KCategory = normalize.Text(e.OwningCategory)
		if e.KOriginal == "" || e.KCanonical == "" {
			continue
		}
		k := key{e.KOriginal, e.KCanonical, e.KCategory}
		if i, ok := seen[k]; ok {
			entries[i] = e
			continue
		}
		seen[k] = len(entries)
		entries = append(entries, e)
	}

	idx := &Index{
		entries:             entries,
		originalToCanonical: make(map[string]string, len(entries)),
		originalToCanonKey:  make(map[string]string, len(entries)),
		canonKeyToCategory:  make(map[string]string, len(entries)),
		canonKeyToPretty:    make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		idx.originalToCanonical[e.KOriginal] = e.CanonicalLabel
		idx.originalToCanonKey[e.KOriginal] = e.KCanonical
		idx.canonKeyToCategory[e.KCanonical] = e.OwningCategory
		idx.canonKeyToPretty[e.KCanonical] = e.CanonicalLabel
	}
	return idx
}

// Extend returns a new index with additional rows merged in. Existing entries
// are kept; duplicated triples take the later (extended) row, matching the
// session-curation flow where the caller extends the catalog between runs.
func (idx *Index) Extend(rows []Row) *Index {
	merged := make([]Row, 0, len(idx.entries)+len(rows))
	for _, e := range idx.entries {
		merged = append(merged, Row{
			OriginalLabel:  e.OriginalLabel,
			CanonicalLabel: e.CanonicalLabel,
			OwningCategory: e.OwningCategory,
		})
	}
	merged = append(merged, rows...)
	return Build(merged)
}

// Entries returns the deduplicated catalog entries in build order. The slice
// must not be mutated; it defines the deterministic iteration order for the
// substring matcher.
func (idx *Index) Entries() []Entry {
	return idx.entries
}

// Len returns the number of deduplicated entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// CanonicalFor looks up the pretty canonical label for a normalized original
// label key.
func (idx *Index) CanonicalFor(kOriginal string) (string, bool) {
	v, ok := idx.originalToCanonical[kOriginal]
	return v, ok
}

// CanonicalKeyFor looks up the normalized canonical key for a normalized
// original label key.
func (idx *Index) CanonicalKeyFor(kOriginal string) (string, bool) {
	v, ok := idx.originalToCanonKey[kOriginal]
	return v, ok
}

// CategoryFor looks up the owning category for a normalized canonical key.
func (idx *Index) CategoryFor(kCanonical string) (string, bool) {
	v, ok := idx.canonKeyToCategory[kCanonical]
	return v, ok
}

// PrettyCanonical looks up the display form for a normalized canonical key.
func (idx *Index) PrettyCanonical(kCanonical string) (string, bool) {
	v, ok := idx.canonKeyToPretty[kCanonical]
	return v, ok
}

// CanonicalLabels returns the unique pretty canonical labels in build order.
// This is the target vocabulary for the inference semantic index and includes
// the exclusion sentinel.
func (idx *Index) CanonicalLabels() []string {
	seen := make(map[string]struct{}, len(idx.entries))
	out := make([]string, 0, len(idx.entries))
	for _, e := range idx.entries {
		if _, ok := seen[e.KCanonical]; ok {
			continue
		}
		seen[e.KCanonical] = struct{}{}
		out = append(out, e.CanonicalLabel)
	}
	return out
}

// OriginalLabels returns the unique pretty original labels in build order,
// the target vocabulary for the validator semantic index.
func (idx *Index) OriginalLabels() []string {
	seen := make(map[string]struct{}, len(idx.entries))
	out := make([]string, 0, len(idx.entries))
	for _, e := range idx.entries {
		if _, ok := seen[e.KOriginal]; ok {
			continue
		}
		seen[e.KOriginal] = struct{}{}
		out = append(out, e.OriginalLabel)
	}
	return out
}

// Categories returns the distinct owning categories in build order.
func (idx *Index) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, e := range idx.entries {
		if _, ok := seen[e.KCategory]; ok {
			continue
		}
		seen[e.KCategory] = struct{}{}
		out = append(out, e.OwningCategory)
	}
	return out
}

// IsExclusion reports whether a canonical label is the exclusion sentinel.
func IsExclusion(canonicalLabel string) bool {
	return normalize.Text(canonicalLabel) == normalize.Text(model.ExclusionSentinel)
}

// ParseCSV converts a raw CSV table (header first) into catalog rows using
// the default aliases; used for catalog extension files.
func ParseCSV(table [][]string, aliases HeaderAliases) ([]Row, error) {
	if len(table) == 0 {
		return nil, eris.New("catalog: empty table")
	}
	return ParseTable(table[0], table[1:], aliases, "")
}
