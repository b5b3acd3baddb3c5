package pipeline

import (
	"strings"

	"github.com/brain-insights/microclass-cli/internal/model"
	"github.com/brain-insights/microclass-cli/internal/normalize"
)

// applyAddressRule runs last over every record regardless of prior decisions.
// An address containing a shopping/store/unit keyword marks a point of sale
// inside a larger venue, which is excluded from the deliverable reporting.
// This is an intentional unconditional overwrite, kept out of the generic
// undecided-only loop so the precedence stays auditable.
func (p *Pipeline) applyAddressRule(records []model.Record) int {
	excluded := 0
	for i := range records {
		r := &records[i]
		addr := normalize.Text(r.Address)
		if addr == "" {
			continue
		}
		if !containsAnyWord(addr, p.addressKeys) {
			continue
		}
		if !r.Excluded() {
			r.IntermediateSubcategory = r.CurrentSubcategory
		}
		r.CurrentSubcategory = model.ExclusionSentinel
		r.Action = model.ActionExclude
		r.Source = model.SourceRuleAddress
		r.Confidence = 1.0
		excluded++
	}
	return excluded
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if containsWord(text, w) {
			return true
		}
	}
	return false
}

// containsWord checks if text contains needle as a whole word (bounded by
// non-alphanumeric characters or string boundaries). Both text and needle
// must already be normalized.
func containsWord(text, needle string) bool {
	if needle == "" || text == "" {
		return false
	}
	start := 0
	for {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			return false
		}
		absIdx := start + idx
		endIdx := absIdx + len(needle)

		leftOK := absIdx == 0 || !isAlphaNum(text[absIdx-1])
		rightOK := endIdx == len(text) || !isAlphaNum(text[endIdx])

		if leftOK && rightOK {
			return true
		}
		start = absIdx + 1
	}
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}
