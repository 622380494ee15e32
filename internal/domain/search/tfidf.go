// Package search ranks catalog documents against a free-text query.
package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// TFIDFRanker fits a unigram+bigram TF-IDF model over the documents and the
// query, then orders documents by cosine similarity to the query vector.
type TFIDFRanker struct {
	stopWords map[string]struct{}
}

func NewTFIDFRanker() *TFIDFRanker {
	return &TFIDFRanker{stopWords: englishStopWords}
}

// Rank returns a permutation of document indices, most relevant first. Ties keep
// their input order.
func (r *TFIDFRanker) Rank(query string, documents []string) []int {
	return order(r.Scores(query, documents))
}

// Scores returns one similarity per document. When no document or query term
// survives tokenisation the word-overlap fallback is used instead.
func (r *TFIDFRanker) Scores(query string, documents []string) []float64 {
	if len(documents) == 0 {
		return nil
	}

	folder := cases.Fold()
	docTerms := make([][]string, len(documents))
	for i, doc := range documents {
		docTerms[i] = r.terms(folder.String(doc))
	}
	queryTerms := r.terms(folder.String(query))

	df := make(map[string]int)
	for _, terms := range append(docTerms, queryTerms) {
		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return overlapScores(query, documents)
	}

	n := float64(len(documents) + 1)
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	queryVec := weigh(queryTerms, idf)
	scores := make([]float64, len(documents))
	for i, terms := range docTerms {
		scores[i] = dot(queryVec, weigh(terms, idf))
	}
	return scores
}

func (r *TFIDFRanker) terms(folded string) []string {
	words := strings.FieldsFunc(folded, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_'
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < 2 {
			continue
		}
		if _, stop := r.stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}

	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// weigh builds an L2-normalised tf-idf vector.
func weigh(terms []string, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(terms))
	for _, term := range terms {
		vec[term] += idf[term]
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, v := range a {
		sum += v * b[term]
	}
	return sum
}

// overlapScores is |q ∩ d| / |q ∪ d| over whitespace words, and only when the
// query occurs verbatim inside the document.
func overlapScores(query string, documents []string) []float64 {
	lowerQuery := strings.ToLower(query)
	queryWords := toSet(strings.Fields(lowerQuery)...)

	scores := make([]float64, len(documents))
	for i, doc := range documents {
		lowerDoc := strings.ToLower(doc)
		if !strings.Contains(lowerDoc, lowerQuery) {
			continue
		}
		docWords := toSet(strings.Fields(lowerDoc)...)
		union := len(docWords)
		shared := 0
		for w := range queryWords {
			if _, ok := docWords[w]; ok {
				shared++
			} else {
				union++
			}
		}
		if union > 0 {
			scores[i] = float64(shared) / float64(union)
		}
	}
	return scores
}

func order(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}
