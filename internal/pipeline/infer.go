package pipeline

import (
	"strings"

	"github.com/brain-insights/microclass-cli/internal/model"
	"github.com/brain-insights/microclass-cli/internal/normalize"
)

// applyInferenceStage is the last-resort classifier for records no earlier
// stage resolved. It queries the canonical-label index with a bag built from
// name, address, and current category — doubling the name's weight when the
// subcategory is blank, since the name is then the strongest signal — and
// applies the best label when similarity clears the low threshold. Records
// below the threshold keep their subcategory, and the low score is preserved
// for diagnostics rather than discarded.
func (p *Pipeline) applyInferenceStage(records []model.Record) int {
	inferred := 0
	for i := range records {
		r := &records[i]
		if r.Decided() {
			continue
		}

		parts := []string{r.Name}
		if r.SubcategoryBlank() {
			parts = append(parts, r.Name)
		}
		parts = append(parts, r.Address, r.CurrentCategory)
		query := normalize.Text(strings.Join(parts, " "))

		if query == "" {
			r.Action = model.ActionKeep
			r.Source = model.SourceNone
			r.Confidence = 0
			continue
		}

		bestKey, sim := p.canonIdx.Query(query)
		if sim >= p.opts.LoThreshold {
			if pretty, ok := p.cat.PrettyCanonical(bestKey); ok {
				p.assignCanonical(r, pretty, model.ActionInfer, model.SourceSemantic, sim)
				inferred++
				continue
			}
		}

		r.Action = model.ActionKeep
		r.Source = model.SourceNone
		r.Confidence = sim
	}
	return inferred
}
