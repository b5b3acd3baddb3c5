// Package pipeline reclassifies business-record subcategories against a
// curated catalog through a layered fallback: exact catalog lookup, substring
// matching, semantic validation, semantic inference, and a fixed address
// override, with subcategory→category integrity enforced after every
// assignment.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/brain-insights/microclass-cli/internal/catalog"
	"github.com/brain-insights/microclass-cli/internal/model"
	"github.com/brain-insights/microclass-cli/internal/normalize"
	"github.com/brain-insights/microclass-cli/internal/semantic"
)

const (
	// exactConfidence is assigned to exact catalog hits.
	exactConfidence = 0.99
	// problematicThreshold is the lowered override bar granted to
	// false-positive-prone canonical labels in the validator.
	problematicThreshold = 0.35
)

// ProgressFunc receives coarse progress milestones for UI feedback. It
// carries no backpressure or cancellation contract; panics are swallowed.
type ProgressFunc func(fraction float64, message string)

// Options tunes one pipeline invocation.
type Options struct {
	// HiThreshold is the similarity above which a semantic match is
	// considered confident; inferred matches below it land in the
	// low-confidence view. Defaults to 0.90.
	HiThreshold float64
	// LoThreshold is the minimum similarity for applying a semantic match
	// at all. Defaults to 0.70.
	LoThreshold float64
	// ContainsConfidence is the fixed confidence assigned by the substring
	// matcher. Defaults to 0.92.
	ContainsConfidence float64
	// ProblematicLabels lists canonical labels known to attract wrong
	// catalog hits; the validator corrects away from them at a lowered
	// threshold and flags them for review when even that fails.
	ProblematicLabels []string
	// AddressKeywords are matched word-bounded against record addresses;
	// a hit forces exclusion regardless of earlier decisions.
	AddressKeywords []string
	// IncludeAddressInHaystack controls whether the substring matcher
	// searches the address in addition to the name.
	IncludeAddressInHaystack bool
	// Progress, when set, is invoked synchronously at fixed milestones.
	Progress ProgressFunc
}

// DefaultAddressKeywords flag mall/storefront unit addresses that identify
// in-shopping points of sale rather than standalone businesses.
func DefaultAddressKeywords() []string {
	return []string{"shopping", "loja", "lj", "quiosque", "box"}
}

func (o *Options) applyDefaults() {
	if o.HiThreshold <= 0 || o.HiThreshold > 1 {
		o.HiThreshold = 0.90
	}
	if o.LoThreshold <= 0 || o.LoThreshold > o.HiThreshold {
		o.LoThreshold = 0.70
	}
	if o.ContainsConfidence <= 0 || o.ContainsConfidence > 1 {
		o.ContainsConfidence = 0.92
	}
	if o.AddressKeywords == nil {
		o.AddressKeywords = DefaultAddressKeywords()
	}
}

// Pipeline holds the immutable per-invocation state: the catalog snapshot,
// the two semantic indexes, and the tuning options. Each Run call processes
// an independent copy of its input, so a Pipeline may be reused across
// invocations as long as the catalog snapshot should stay the same.
type Pipeline struct {
	cat  *catalog.Index
	opts Options

	// canonIdx indexes normalized canonical labels and answers "which
	// canonical label does this text look like" (inference).
	canonIdx *semantic.Index
	// origIdx indexes normalized original labels and answers "which raw
	// catalog label does this text look like" (validator).
	origIdx *semantic.Index

	problematic map[string]struct{}
	addressKeys []string
}

// New builds a pipeline over an immutable catalog snapshot.
func New(cat *catalog.Index, opts Options) *Pipeline {
	opts.applyDefaults()

	problematic := make(map[string]struct{}, len(opts.ProblematicLabels))
	for _, label := range opts.ProblematicLabels {
		if key := normalize.Text(label); key != "" {
			problematic[key] = struct{}{}
		}
	}

	addressKeys := make([]string, 0, len(opts.AddressKeywords))
	for _, kw := range opts.AddressKeywords {
		if key := normalize.Text(kw); key != "" {
			addressKeys = append(addressKeys, key)
		}
	}

	return &Pipeline{
		cat:         cat,
		opts:        opts,
		canonIdx:    semantic.Build(normalizeAll(cat.CanonicalLabels())),
		origIdx:     semantic.Build(normalizeAll(cat.OriginalLabels())),
		problematic: problematic,
		addressKeys: addressKeys,
	}
}

// Run annotates a fresh copy of the input records and returns the finalized
// views plus aggregate metrics. The whole table is processed to completion
// before anything is returned; per-record operations are total functions
// over strings, so a partially annotated table is never produced.
func (p *Pipeline) Run(input []model.Record) (*model.Result, error) {
	records := make([]model.Record, len(input))
	copy(records, input)

	zap.L().Info("pipeline: starting run",
		zap.Int("records", len(records)),
		zap.Int("canonical_terms", p.canonIdx.Len()),
		zap.Int("original_terms", p.origIdx.Len()),
	)
	p.report(0.00, "starting reclassification")

	for i := range records {
		if records[i].OriginalCategory == "" {
			records[i].OriginalCategory = records[i].CurrentCategory
		}
		if records[i].OriginalSubcategory == "" {
			records[i].OriginalSubcategory = records[i].CurrentSubcategory
		}
	}
	p.report(0.10, "records prepared")

	n := p.applyExactStage(records)
	zap.L().Info("pipeline: exact catalog stage done", zap.Int("matched", n))
	p.report(0.15, "exact catalog matching done")

	n = p.applyContainsStage(records)
	zap.L().Info("pipeline: substring stage done", zap.Int("matched", n))
	p.report(0.30, "substring matching done")

	n = p.applyValidatorStage(records)
	zap.L().Info("pipeline: semantic validator done", zap.Int("corrected", n))
	p.report(0.45, "semantic validation done")

	n = p.applyInferenceStage(records)
	zap.L().Info("pipeline: semantic inference done", zap.Int("inferred", n))
	p.report(0.70, "semantic inference done")

	n = p.applyAddressRule(records)
	zap.L().Info("pipeline: address rule done", zap.Int("excluded", n))
	p.report(0.90, "address rule applied")

	result := p.finalize(records)
	p.report(1.00, "done")
	return result, nil
}

// report invokes the progress callback, swallowing any panic it raises;
// progress is purely informational and must never fail a run.
func (p *Pipeline) report(fraction float64, message string) {
	if p.opts.Progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("pipeline: progress callback failed", zap.Any("panic", r))
		}
	}()
	p.opts.Progress(fraction, message)
}

// applyGuardRail pins the record's category to the owning category of the
// given canonical-label key. Invoked synchronously after every subcategory
// assignment except the address override, which routes records out of
// category reporting entirely.
func (p *Pipeline) applyGuardRail(r *model.Record, kCanonical string) {
	if kCanonical == "" {
		return
	}
	if category, ok := p.cat.CategoryFor(kCanonical); ok {
		r.CurrentCategory = category
	}
}

// assignCanonical writes a canonical-label decision onto the record and
// applies the guard rail. Exclusion-sentinel assignments preserve the
// previous subcategory for the audit trail and always carry ActionExclude.
func (p *Pipeline) assignCanonical(r *model.Record, canonical string, action model.Action, source model.Source, confidence float64) {
	if catalog.IsExclusion(canonical) {
		if !r.Excluded() {
			r.IntermediateSubcategory = r.CurrentSubcategory
		}
		action = model.ActionExclude
	} else {
		// A later stage overriding an exclusion back to a real label
		// invalidates the audit copy; it only describes excluded rows.
		r.IntermediateSubcategory = ""
	}
	r.CurrentSubcategory = canonical
	r.Action = action
	r.Source = source
	r.Confidence = confidence
	p.applyGuardRail(r, normalize.Text(canonical))
}

func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := normalize.Text(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
