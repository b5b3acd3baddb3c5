package pipeline

import (
	"strings"

	"github.com/brain-insights/microclass-cli/internal/model"
	"github.com/brain-insights/microclass-cli/internal/normalize"
)

// applyExactStage resolves records whose current subcategory normalizes to a
// catalog original label. Stage 1 of the fallback: only undecided records are
// touched. A second lookup with the storefront prefix stripped catches labels
// like "Loja de Roupas" cataloged as "Roupas".
func (p *Pipeline) applyExactStage(records []model.Record) int {
	matched := 0
	for i := range records {
		r := &records[i]
		if r.Decided() {
			continue
		}
		key := normalize.Text(r.CurrentSubcategory)
		canonical, ok := p.cat.CanonicalFor(key)
		if !ok {
			key = normalize.Text(normalize.StripLabelPrefix(r.CurrentSubcategory))
			canonical, ok = p.cat.CanonicalFor(key)
		}
		if !ok {
			continue
		}
		p.assignCanonical(r, canonical, model.ActionCorrect, model.SourceCatalog, exactConfidence)
		matched++
	}
	return matched
}

// applyContainsStage resolves still-undecided records by searching the
// normalized name (and optionally address) for catalog original-label keys.
// Catalog build order is the tie-break: the first containing entry wins, with
// no ranking by length or specificity. Single-character keys are skipped as
// noise.
func (p *Pipeline) applyContainsStage(records []model.Record) int {
	matched := 0
	for i := range records {
		r := &records[i]
		if r.Decided() {
			continue
		}
		hay := r.Name
		if p.opts.IncludeAddressInHaystack {
			hay += " " + r.Address
		}
		hayNorm := normalize.Text(hay)
		if hayNorm == "" {
			continue
		}
		for _, e := range p.cat.Entries() {
			if len(e.KOriginal) < 2 {
				continue
			}
			if !strings.Contains(hayNorm, e.KOriginal) {
				continue
			}
			p.assignCanonical(r, e.CanonicalLabel, model.ActionCorrect, model.SourceCatalogContains, p.opts.ContainsConfidence)
			matched++
			break
		}
	}
	return matched
}
