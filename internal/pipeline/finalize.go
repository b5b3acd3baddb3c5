package pipeline

import (
	"strconv"
	"strings"

	"github.com/brain-insights/microclass-cli/internal/model"
)

// finalize deduplicates the annotated records, completes the exclusion audit
// trail, partitions the views, and computes aggregate metrics.
func (p *Pipeline) finalize(records []model.Record) *model.Result {
	deduped := dedupe(records)

	for i := range deduped {
		r := &deduped[i]
		if r.Excluded() && r.IntermediateSubcategory == "" {
			// Rows that arrived already excluded never passed through
			// an assignment that captured the prior value.
			r.IntermediateSubcategory = r.OriginalSubcategory
		}
	}

	result := &model.Result{
		All: deduped,
		// Excluded records stay in the deliverable flagged with
		// ActionExclude; downstream consumers filter on the flag.
		Deliverable: deduped,
	}

	m := &result.Metrics
	m.Total = len(deduped)
	for _, r := range deduped {
		switch r.Source {
		case model.SourceCatalog:
			m.CatalogExact++
		case model.SourceCatalogContains:
			m.CatalogContains++
		case model.SourceSemantic:
			m.SemanticInferred++
		case model.SourceNone:
			m.Kept++
		}
		if r.Excluded() {
			m.Excluded++
		}
		if r.Source == model.SourceSemantic && r.Confidence < p.opts.HiThreshold {
			m.LowConfidence++
			result.LowConfidence = append(result.LowConfidence, r)
		}
	}
	return result
}

// dedupe collapses records that are identical on every annotated column,
// keeping first-occurrence order.
func dedupe(records []model.Record) []model.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		key := dedupeKey(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func dedupeKey(r model.Record) string {
	return strings.Join([]string{
		r.ID,
		r.Name,
		r.Address,
		r.CurrentCategory,
		r.CurrentSubcategory,
		r.OriginalCategory,
		r.OriginalSubcategory,
		r.IntermediateSubcategory,
		string(r.Action),
		string(r.Source),
		strconv.FormatFloat(r.Confidence, 'f', -1, 64),
	}, "\x1f")
}
