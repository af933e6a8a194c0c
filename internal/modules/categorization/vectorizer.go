package categorization

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Vectorizer is a fitted TF-IDF text vectorization. Feature order follows the
// sorted vocabulary so the same training data always yields the same layout.
type Vectorizer struct {
	Vocabulary []string  `msgpack:"vocabulary" json:"vocabulary"`
	IDF        []float64 `msgpack:"idf" json:"idf"`
}

// FitVectorizer learns the vocabulary and smoothed inverse document frequencies.
func FitVectorizer(documents []string) *Vectorizer {
	docFreq := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	vocab := make([]string, 0, len(docFreq))
	for tok := range docFreq {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)

	n := float64(len(documents))
	idf := make([]float64, len(vocab))
	for i, tok := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[tok]))) + 1
	}

	return &Vectorizer{Vocabulary: vocab, IDF: idf}
}

// lookup finds a token's feature index in the sorted vocabulary.
func (v *Vectorizer) lookup(tok string) (int, bool) {
	i := sort.SearchStrings(v.Vocabulary, tok)
	if i < len(v.Vocabulary) && v.Vocabulary[i] == tok {
		return i, true
	}
	return 0, false
}

// Dim is the number of features.
func (v *Vectorizer) Dim() int {
	return len(v.Vocabulary)
}

// Transform maps a description to an L2-normalized TF-IDF vector.
// Out-of-vocabulary tokens are ignored; a description with no known tokens
// yields the zero vector.
func (v *Vectorizer) Transform(doc string) []float64 {
	vec := make([]float64, len(v.Vocabulary))
	for _, tok := range Tokenize(doc) {
		if i, ok := v.lookup(tok); ok {
			vec[i]++
		}
	}
	floats.Mul(vec, v.IDF)

	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}

// TransformAll vectorizes a batch of descriptions.
func (v *Vectorizer) TransformAll(docs []string) [][]float64 {
	out := make([][]float64, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

// isZero reports whether a vector carries no signal.
func isZero(vec []float64) bool {
	for _, x := range vec {
		if x != 0 {
			return false
		}
	}
	return true
}
