// Package semantic provides a small TF-IDF vector index answering
// nearest-term cosine similarity queries over a fixed target vocabulary.
package semantic

import (
	"math"
	"strings"
)

// Index is an immutable TF-IDF vector space over unigrams and bigrams of a
// target vocabulary. Terms and queries are expected to be pre-normalized by
// the caller; the index treats tokens as opaque.
type Index struct {
	terms []string
	idf   map[string]float64
	vecs  []map[string]float64
}

// Build indexes the target terms. Each term is one document; features are its
// whitespace unigrams plus adjacent bigrams. Building an empty vocabulary is
// valid and yields an index whose queries score zero.
func Build(terms []string) *Index {
	idx := &Index{
		terms: append([]string(nil), terms...),
		idf:   make(map[string]float64),
		vecs:  make([]map[string]float64, len(terms)),
	}

	counts := make([]map[string]float64, len(terms))
	df := make(map[string]int)
	for i, term := range terms {
		tf := featureCounts(term)
		counts[i] = tf
		for feat := range tf {
			df[feat]++
		}
	}

	// Smoothed inverse document frequency, matching the convention
	// idf = ln((1+n)/(1+df)) + 1 so that features present in every
	// document still contribute.
	n := float64(len(terms))
	for feat, d := range df {
		idx.idf[feat] = math.Log((1+n)/(1+float64(d))) + 1
	}

	for i, tf := range counts {
		vec := make(map[string]float64, len(tf))
		for feat, c := range tf {
			vec[feat] = c * idx.idf[feat]
		}
		idx.vecs[i] = l2Normalize(vec)
	}
	return idx
}

// Len returns the vocabulary size.
func (idx *Index) Len() int {
	return len(idx.terms)
}

// Query vectorizes text in the index's feature space and returns the indexed
// term with the highest cosine similarity along with its score in [0, 1].
// An empty vocabulary or an empty query returns ("", 0); a query sharing no
// features with the vocabulary returns the first term with score 0. A zero
// score means "no match", never an error.
func (idx *Index) Query(text string) (string, float64) {
	if len(idx.terms) == 0 {
		return "", 0
	}
	tf := featureCounts(text)
	if len(tf) == 0 {
		return "", 0
	}
	qv := make(map[string]float64, len(tf))
	for feat, c := range tf {
		if w, ok := idx.idf[feat]; ok {
			qv[feat] = c * w
		}
	}
	qv = l2Normalize(qv)

	best := -1
	bestScore := 0.0
	for i, vec := range idx.vecs {
		score := dot(qv, vec)
		if best < 0 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return "", 0
	}
	if bestScore < 0 {
		bestScore = 0
	} else if bestScore > 1 {
		bestScore = 1
	}
	return idx.terms[best], bestScore
}

func featureCounts(text string) map[string]float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	tf := make(map[string]float64, len(tokens)*2)
	for i, tok := range tokens {
		tf[tok]++
		if i+1 < len(tokens) {
			tf[tok+" "+tokens[i+1]]++
		}
	}
	return tf
}

func l2Normalize(vec map[string]float64) map[string]float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for feat, v := range vec {
		vec[feat] = v / norm
	}
	return vec
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for feat, va := range a {
		if vb, ok := b[feat]; ok {
			sum += va * vb
		}
	}
	return sum
}
