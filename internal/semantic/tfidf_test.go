package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_ExactTermScoresHighest(t *testing.T) {
	idx := Build([]string{"padaria", "salao de beleza", "oficina mecanica"})

	term, score := idx.Query("padaria")
	assert.Equal(t, "padaria", term)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestQuery_PartialOverlap(t *testing.T) {
	idx := Build([]string{"padaria", "salao de beleza", "oficina mecanica"})

	term, score := idx.Query("padaria pao quente")
	assert.Equal(t, "padaria", term)
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestQuery_BigramsDisambiguate(t *testing.T) {
	idx := Build([]string{"salao de beleza", "salao de festas"})

	term, _ := idx.Query("aluguel salao de festas eventos")
	assert.Equal(t, "salao de festas", term)
}

func TestQuery_EmptyVocabulary(t *testing.T) {
	idx := Build(nil)
	term, score := idx.Query("padaria")
	assert.Equal(t, "", term)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0, idx.Len())
}

func TestQuery_NoSharedFeatures(t *testing.T) {
	idx := Build([]string{"padaria", "acougue"})
	term, score := idx.Query("xyz abc")
	// Argmax over all-zero similarities returns the first term with score 0;
	// callers must treat zero as "no match".
	assert.Equal(t, "padaria", term)
	assert.Equal(t, 0.0, score)
}

func TestQuery_EmptyQuery(t *testing.T) {
	idx := Build([]string{"padaria"})
	term, score := idx.Query("")
	assert.Equal(t, "", term)
	assert.Equal(t, 0.0, score)
}

func TestQuery_ScoreBounds(t *testing.T) {
	idx := Build([]string{"padaria", "padaria artesanal", "padaria e confeitaria"})
	for _, q := range []string{"padaria", "padaria artesanal paes", "confeitaria doces", "mercado"} {
		_, score := idx.Query(q)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
