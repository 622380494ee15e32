package ports

// Ranker orders documents by relevance to a query and returns the permutation
// of document indices, most relevant first.
type Ranker interface {
	Rank(query string, documents []string) []int
}
