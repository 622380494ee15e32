package search

var englishStopWords = toSet(
	"a", "about", "above", "after", "again", "against", "all", "almost", "also", "am",
	"among", "an", "and", "any", "are", "around", "as", "at", "be", "because",
	"been", "before", "being", "below", "between", "both", "but", "by", "can", "cannot",
	"could", "did", "do", "does", "doing", "down", "during", "each", "either", "else",
	"enough", "etc", "even", "ever", "every", "few", "for", "from", "further", "get",
	"had", "has", "have", "having", "he", "her", "here", "hers", "herself", "him",
	"himself", "his", "how", "however", "i", "ie", "if", "in", "into", "is",
	"it", "its", "itself", "just", "least", "less", "many", "may", "me", "might",
	"more", "most", "much", "must", "my", "myself", "neither", "no", "nor", "not",
	"now", "of", "off", "often", "on", "once", "only", "or", "other", "our",
	"ours", "ourselves", "out", "over", "own", "per", "rather", "same", "she", "should",
	"since", "so", "some", "such", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "this", "those", "through", "thus", "to",
	"too", "under", "until", "up", "upon", "us", "very", "via", "was", "we",
	"well", "were", "what", "when", "where", "whether", "which", "while", "who", "whom",
	"whose", "why", "will", "with", "within", "without", "would", "yet", "you", "your",
	"yours", "yourself", "yourselves",
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
