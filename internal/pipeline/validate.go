package pipeline

import (
	"go.uber.org/zap"

	"github.com/brain-insights/microclass-cli/internal/model"
	"github.com/brain-insights/microclass-cli/internal/normalize"
)

// applyValidatorStage second-guesses the deterministic stages. For every
// record resolved by exact or substring matching it asks the original-label
// index what catalog label the business *name* actually resembles; when that
// maps to a different canonical label with enough similarity, the
// deterministic hit is overridden. Labels in the problematic set get a
// lowered override bar, and records stuck on a problematic label below even
// that bar are flagged for human review instead of being changed.
func (p *Pipeline) applyValidatorStage(records []model.Record) int {
	corrected := 0
	for i := range records {
		r := &records[i]
		if r.Source != model.SourceCatalog && r.Source != model.SourceCatalogContains {
			continue
		}
		query := normalize.Text(r.Name)
		if query == "" {
			continue
		}
		bestOriginal, sim := p.origIdx.Query(query)
		if bestOriginal == "" {
			continue
		}
		predKey, ok := p.cat.CanonicalKeyFor(bestOriginal)
		if !ok {
			continue
		}
		currentKey := normalize.Text(r.CurrentSubcategory)
		_, isProblematic := p.problematic[currentKey]

		threshold := p.opts.LoThreshold
		if isProblematic {
			threshold = problematicThreshold
		}

		if predKey != currentKey && sim >= threshold {
			pretty, ok := p.cat.PrettyCanonical(predKey)
			if !ok {
				continue
			}
			zap.L().Debug("pipeline: validator override",
				zap.String("name", r.Name),
				zap.String("from", r.CurrentSubcategory),
				zap.String("to", pretty),
				zap.Float64("similarity", sim),
			)
			p.assignCanonical(r, pretty, model.ActionCorrect, model.SourceSemanticValidator, sim)
			corrected++
			continue
		}

		if isProblematic && sim < problematicThreshold {
			// Too ambiguous to auto-correct a known trouble label;
			// leave the subcategory alone and ask for review.
			r.Action = model.ActionVerify
			r.Confidence = sim
		}
	}
	return corrected
}
