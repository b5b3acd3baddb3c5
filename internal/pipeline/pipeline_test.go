package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brain-insights/microclass-cli/internal/catalog"
	"github.com/brain-insights/microclass-cli/internal/model"
	"github.com/brain-insights/microclass-cli/internal/normalize"
)

func testCatalog() *catalog.Index {
	return catalog.Build([]catalog.Row{
		{OriginalLabel: "Cabeleireiro", CanonicalLabel: "Salão de Beleza", OwningCategory: "Serviços"},
		{OriginalLabel: "Panificadora", CanonicalLabel: "Padaria", OwningCategory: "Alimentação"},
		{OriginalLabel: "Mercado", CanonicalLabel: "Mercado", OwningCategory: "Alimentação"},
		{OriginalLabel: "Banca", CanonicalLabel: "Banca de Jornal", OwningCategory: "Outros"},
		{OriginalLabel: "Pet Shop", CanonicalLabel: "Excluir", OwningCategory: "Outros"},
	})
}

func record(name, address, category, subcategory string) model.Record {
	return model.Record{
		Name:                name,
		Address:             address,
		OriginalCategory:    category,
		OriginalSubcategory: subcategory,
		CurrentCategory:     category,
		CurrentSubcategory:  subcategory,
	}
}

func TestRun_ExactCatalogMatch(t *testing.T) {
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Studio Hair", "Rua A, 10", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)
	require.Len(t, result.All, 1)

	got := result.All[0]
	assert.Equal(t, "Salão de Beleza", got.CurrentSubcategory)
	assert.Equal(t, "Serviços", got.CurrentCategory, "guard rail must pin the owning category")
	assert.Equal(t, model.ActionCorrect, got.Action)
	assert.Equal(t, model.SourceCatalog, got.Source)
	assert.InDelta(t, 0.99, got.Confidence, 1e-9)
	assert.Equal(t, "Outros", got.OriginalCategory)
	assert.Equal(t, "Cabeleireiro", got.OriginalSubcategory)
}

func TestRun_ExactMatchWithStorePrefix(t *testing.T) {
	cat := catalog.Build([]catalog.Row{
		{OriginalLabel: "Roupas", CanonicalLabel: "Vestuário", OwningCategory: "Moda"},
	})
	p := New(cat, Options{})

	result, err := p.Run([]model.Record{
		record("Bazar Central", "Rua B, 20", "Outros", "Loja de Roupas"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, "Vestuário", got.CurrentSubcategory)
	assert.Equal(t, model.SourceCatalog, got.Source)
}

func TestRun_ExactExclusionSentinel(t *testing.T) {
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Bicho Feliz", "Rua C, 30", "Outros", "Pet Shop"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, model.ExclusionSentinel, got.CurrentSubcategory)
	assert.Equal(t, model.ActionExclude, got.Action)
	assert.Equal(t, model.SourceCatalog, got.Source)
	assert.Equal(t, "Pet Shop", got.IntermediateSubcategory,
		"pre-exclusion subcategory must survive for auditing")
}

func TestRun_ValidatorOverrideClearsIntermediateSubcategory(t *testing.T) {
	// Stage 1 excludes on the "Pet Shop" label and captures the audit copy;
	// the validator then recognizes the name as a bakery and overrides the
	// exclusion. The audit copy only describes excluded rows, so it must not
	// survive the override.
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Panificadora do João", "Rua C, 31", "Outros", "Pet Shop"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, "Padaria", got.CurrentSubcategory)
	assert.Equal(t, model.SourceSemanticValidator, got.Source)
	assert.Equal(t, "Alimentação", got.CurrentCategory)
	assert.Empty(t, got.IntermediateSubcategory,
		"audit copy must be cleared when a later stage undoes an exclusion")
}

func TestRun_ContainsFallback(t *testing.T) {
	p := New(testCatalog(), Options{IncludeAddressInHaystack: true})

	result, err := p.Run([]model.Record{
		record("Mercado Estrela", "Rua D, 40", "Outros", "Comercio Varejista"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, "Mercado", got.CurrentSubcategory)
	assert.Equal(t, "Alimentação", got.CurrentCategory)
	assert.Equal(t, model.SourceCatalogContains, got.Source)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
}

func TestRun_ExactTakesPrecedenceOverContains(t *testing.T) {
	// The name contains "mercado" but the subcategory matches exactly;
	// stage 2 only runs over still-unset records.
	p := New(testCatalog(), Options{IncludeAddressInHaystack: true})

	result, err := p.Run([]model.Record{
		record("Mercado do Zé", "Rua E, 50", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, model.SourceSemanticValidator, got.Source,
		"validator may still correct, but never the contains stage")
}

func TestRun_StagePrecedenceWithoutValidatorInterference(t *testing.T) {
	cat := catalog.Build([]catalog.Row{
		{OriginalLabel: "Cabeleireiro", CanonicalLabel: "Salão de Beleza", OwningCategory: "Serviços"},
		{OriginalLabel: "Mercado", CanonicalLabel: "Mercado", OwningCategory: "Alimentação"},
	})
	p := New(cat, Options{})

	// Neutral name: validator finds nothing similar, so the exact hit stands.
	result, err := p.Run([]model.Record{
		record("Studio Hair", "Rua F, 60", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SourceCatalog, result.All[0].Source)
	assert.InDelta(t, 0.99, result.All[0].Confidence, 1e-9)
}

func TestRun_ValidatorOverridesDeterministicHit(t *testing.T) {
	// The subcategory says hairdresser, but the business name is plainly a
	// bakery; the validator corrects the catalog hit.
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Panificadora do João", "Rua G, 70", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, "Padaria", got.CurrentSubcategory)
	assert.Equal(t, "Alimentação", got.CurrentCategory)
	assert.Equal(t, model.ActionCorrect, got.Action)
	assert.Equal(t, model.SourceSemanticValidator, got.Source)
	assert.Greater(t, got.Confidence, 0.7)
}

func TestRun_ProblematicLabelLoweredThreshold(t *testing.T) {
	// Name similarity ~0.58: below the regular low threshold but above the
	// problematic bar, so only the problematic configuration overrides.
	rec := record("Panificadora Mercado Banca", "Rua H, 80", "Outros", "Cabeleireiro")

	regular := New(testCatalog(), Options{})
	result, err := regular.Run([]model.Record{rec})
	require.NoError(t, err)
	assert.Equal(t, model.SourceCatalog, result.All[0].Source)
	assert.Equal(t, "Salão de Beleza", result.All[0].CurrentSubcategory)

	problematic := New(testCatalog(), Options{ProblematicLabels: []string{"Salão de Beleza"}})
	result, err = problematic.Run([]model.Record{rec})
	require.NoError(t, err)
	got := result.All[0]
	assert.Equal(t, model.SourceSemanticValidator, got.Source)
	assert.Equal(t, "Padaria", got.CurrentSubcategory)
	assert.InDelta(t, 0.577, got.Confidence, 0.01)
}

func TestRun_ProblematicLabelFlaggedForReview(t *testing.T) {
	p := New(testCatalog(), Options{ProblematicLabels: []string{"Salão de Beleza"}})

	// The name shares nothing with any original label: similarity is zero,
	// below even the lowered bar, so the record is flagged, not changed.
	result, err := p.Run([]model.Record{
		record("Xyzzy Qwerty", "Rua I, 90", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, model.ActionVerify, got.Action)
	assert.Equal(t, "Salão de Beleza", got.CurrentSubcategory)
	assert.Equal(t, model.SourceCatalog, got.Source)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestRun_SemanticInference(t *testing.T) {
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Padaria Pão Quente", "Rua J, 100", "Outros", ""),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, "Padaria", got.CurrentSubcategory)
	assert.Equal(t, "Alimentação", got.CurrentCategory)
	assert.Equal(t, model.ActionInfer, got.Action)
	assert.Equal(t, model.SourceSemantic, got.Source)
	assert.GreaterOrEqual(t, got.Confidence, 0.70)
}

func TestRun_KeepPreservesLowScore(t *testing.T) {
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Zyx Consultoria Empresarial", "Rua K, 110", "Outros", "Consultoria"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, model.ActionKeep, got.Action)
	assert.Equal(t, model.SourceNone, got.Source)
	assert.Equal(t, "Consultoria", got.CurrentSubcategory, "kept records are unchanged")
	assert.GreaterOrEqual(t, got.Confidence, 0.0)
	assert.Less(t, got.Confidence, 0.70)
}

func TestRun_AddressRuleOverridesEverything(t *testing.T) {
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Studio Hair", "Loja 12, Shopping Center", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, model.ExclusionSentinel, got.CurrentSubcategory)
	assert.Equal(t, model.ActionExclude, got.Action)
	assert.Equal(t, model.SourceRuleAddress, got.Source)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, "Salão de Beleza", got.IntermediateSubcategory,
		"the stage-1 result is preserved as the intermediate subcategory")
}

func TestRun_AddressRuleNeedsWordBoundary(t *testing.T) {
	p := New(testCatalog(), Options{})

	// "Lojas" and "boxe" must not trip the "loja"/"box" keywords.
	result, err := p.Run([]model.Record{
		record("Studio Hair", "Rua das Lojas Antigas, 5", "Outros", "Cabeleireiro"),
		record("Academia Boxe", "Rua do Boxeador, 7", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)

	for _, got := range result.All {
		assert.NotEqual(t, model.SourceRuleAddress, got.Source)
	}
}

func TestRun_DeduplicatesExactDuplicates(t *testing.T) {
	p := New(testCatalog(), Options{})

	rec := record("Studio Hair", "Rua L, 120", "Outros", "Cabeleireiro")
	result, err := p.Run([]model.Record{rec, rec, rec})
	require.NoError(t, err)

	assert.Len(t, result.All, 1)
	assert.Equal(t, 1, result.Metrics.Total)
}

func TestRun_Metrics(t *testing.T) {
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Studio Hair", "Rua M, 1", "Outros", "Cabeleireiro"),   // exact
		record("Mercado Estrela", "Rua M, 2", "Outros", "Varejo"),     // contains
		record("Padaria Pão Quente", "Rua M, 3", "Outros", ""),        // inferred
		record("Zyx Consultoria", "Rua M, 4", "Outros", "Consultoria"), // kept
		record("Bicho Feliz", "Rua M, 5", "Outros", "Pet Shop"),       // excluded
	})
	require.NoError(t, err)

	m := result.Metrics
	assert.Equal(t, 5, m.Total)
	assert.Equal(t, 2, m.CatalogExact, "exact hit plus the excluded pet shop")
	assert.Equal(t, 1, m.CatalogContains)
	assert.Equal(t, 1, m.SemanticInferred)
	assert.Equal(t, 1, m.Kept)
	assert.Equal(t, 1, m.Excluded)
}

func TestRun_LowConfidenceView(t *testing.T) {
	// Force inference at a similarity between lo and hi.
	cat := catalog.Build([]catalog.Row{
		{OriginalLabel: "Panificadora", CanonicalLabel: "Padaria Artesanal", OwningCategory: "Alimentação"},
	})
	p := New(cat, Options{HiThreshold: 0.95, LoThreshold: 0.30})

	result, err := p.Run([]model.Record{
		record("Padaria Pão Quente", "Rua N, 10", "Outros", ""),
	})
	require.NoError(t, err)

	got := result.All[0]
	require.Equal(t, model.SourceSemantic, got.Source)
	require.Less(t, got.Confidence, 0.95)
	require.Len(t, result.LowConfidence, 1)
	assert.Equal(t, 1, result.Metrics.LowConfidence)
}

func TestRun_GuardRailInvariant(t *testing.T) {
	cat := testCatalog()
	p := New(cat, Options{IncludeAddressInHaystack: true})

	result, err := p.Run([]model.Record{
		record("Studio Hair", "Rua O, 1", "Outros", "Cabeleireiro"),
		record("Padaria Estrela", "Rua O, 2", "Outros", "Varejo"),
		record("Padaria Pão Quente", "Rua O, 3", "Outros", ""),
		record("Zyx Consultoria", "Rua O, 4", "Outros", "Consultoria"),
		record("Mercado do Zé", "Rua O, 5", "Outros", "Mercado"),
	})
	require.NoError(t, err)

	for _, r := range result.All {
		if r.Excluded() {
			continue
		}
		key := normalize.Text(r.CurrentSubcategory)
		if owning, ok := cat.CategoryFor(key); ok {
			assert.Equal(t, owning, r.CurrentCategory,
				"record %q violates the guard rail", r.Name)
		}
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}

func TestRun_ExclusionSentinelAlwaysExcludeAction(t *testing.T) {
	p := New(testCatalog(), Options{})

	result, err := p.Run([]model.Record{
		record("Bicho Feliz", "Rua P, 1", "Outros", "Pet Shop"),
		record("Studio Hair", "Loja 3, Shopping Norte", "Outros", "Cabeleireiro"),
		record("Padaria Pão Quente", "Rua P, 3", "Outros", ""),
	})
	require.NoError(t, err)

	for _, r := range result.All {
		if r.Excluded() {
			assert.Equal(t, model.ActionExclude, r.Action)
		}
	}
}

func TestRun_ProgressMilestones(t *testing.T) {
	var fractions []float64
	p := New(testCatalog(), Options{
		Progress: func(fraction float64, _ string) {
			fractions = append(fractions, fraction)
		},
	})

	_, err := p.Run([]model.Record{
		record("Studio Hair", "Rua Q, 1", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.00, 0.10, 0.15, 0.30, 0.45, 0.70, 0.90, 1.00}, fractions)
}

func TestRun_ProgressPanicIsSwallowed(t *testing.T) {
	p := New(testCatalog(), Options{
		Progress: func(float64, string) { panic("ui went away") },
	})

	result, err := p.Run([]model.Record{
		record("Studio Hair", "Rua R, 1", "Outros", "Cabeleireiro"),
	})
	require.NoError(t, err)
	assert.Len(t, result.All, 1)
}

func TestRun_EmptyCatalogDegradesToKeep(t *testing.T) {
	p := New(catalog.Build(nil), Options{})

	result, err := p.Run([]model.Record{
		record("Padaria Pão Quente", "Rua S, 1", "Outros", ""),
	})
	require.NoError(t, err)

	got := result.All[0]
	assert.Equal(t, model.ActionKeep, got.Action)
	assert.Equal(t, model.SourceNone, got.Source)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	p := New(testCatalog(), Options{})

	input := []model.Record{
		record("Studio Hair", "Rua T, 1", "Outros", "Cabeleireiro"),
	}
	_, err := p.Run(input)
	require.NoError(t, err)

	assert.Equal(t, "Cabeleireiro", input[0].CurrentSubcategory)
	assert.Equal(t, model.ActionNone, input[0].Action)
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("loja 12, shopping center", "loja"))
	assert.True(t, containsWord("av. central box 4", "box"))
	assert.False(t, containsWord("rua das lojas", "loja"))
	assert.False(t, containsWord("boxeador", "box"))
	assert.False(t, containsWord("", "loja"))
	assert.False(t, containsWord("loja", ""))
}
