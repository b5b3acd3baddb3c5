package model

import "strings"

// Action describes what the pipeline decided to do with a record.
type Action string

const (
	ActionNone    Action = ""
	ActionKeep    Action = "Keep"
	ActionCorrect Action = "Correct"
	ActionInfer   Action = "Infer"
	ActionExclude Action = "Exclude"
	ActionVerify  Action = "Verify"
)

// Source identifies which stage produced a record's decision.
type Source string

const (
	SourceNone              Source = "none"
	SourceCatalog           Source = "catalog"
	SourceCatalogContains   Source = "catalog-contains"
	SourceSemanticValidator Source = "semantic-validator"
	SourceSemantic          Source = "semantic"
	SourceRuleAddress       Source = "rule-address"
)

// ExclusionSentinel is the canonical label meaning "remove/flag this record".
// It is not a real subcategory; the catalog uses it to route records out of
// the deliverable reporting.
const ExclusionSentinel = "Excluir"

// Record is one input row plus the annotations the pipeline writes onto it.
// A record is owned by a single pipeline invocation and carries no identity
// across runs.
type Record struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	Address                 string  `json:"address"`
	OriginalCategory        string  `json:"original_category"`
	OriginalSubcategory     string  `json:"original_subcategory"`
	CurrentCategory         string  `json:"current_category"`
	CurrentSubcategory      string  `json:"current_subcategory"`
	Action                  Action  `json:"action"`
	Source                  Source  `json:"source"`
	Confidence              float64 `json:"confidence"`
	IntermediateSubcategory string  `json:"intermediate_subcategory,omitempty"`
}

// Decided reports whether any stage has already written a decision.
func (r *Record) Decided() bool {
	return r.Action != ActionNone
}

// Excluded reports whether the record's current subcategory is the
// exclusion sentinel.
func (r *Record) Excluded() bool {
	return strings.EqualFold(strings.TrimSpace(r.CurrentSubcategory), ExclusionSentinel)
}

// SubcategoryBlank reports whether the current subcategory is empty or a
// placeholder value left over from upstream exports.
func (r *Record) SubcategoryBlank() bool {
	switch strings.ToLower(strings.TrimSpace(r.CurrentSubcategory)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// Metrics aggregates per-source and per-action counts for one run.
type Metrics struct {
	Total            int `json:"total"`
	CatalogExact     int `json:"catalog_exact"`
	CatalogContains  int `json:"catalog_contains"`
	SemanticInferred int `json:"semantic_inferred"`
	Kept             int `json:"kept"`
	Excluded         int `json:"excluded"`
	LowConfidence    int `json:"low_confidence"`
}

// Result bundles the three finalizer views plus the aggregate metrics.
type Result struct {
	// All is the full annotated set, deduplicated.
	All []Record `json:"all"`
	// LowConfidence holds semantically inferred records whose confidence
	// fell below the high threshold.
	LowConfidence []Record `json:"low_confidence"`
	// Deliverable is the set handed to downstream consumers. Excluded
	// records are retained and flagged rather than dropped.
	Deliverable []Record `json:"deliverable"`
	Metrics     Metrics  `json:"metrics"`
}
