package sentiment

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

const (
	negatedFactor     = -0.5
	exclamationFactor = 1.25
)

// LexiconAnalyzer scores text by averaging word-level assessments from a lexicon.
// Modifiers ("very good") scale the next known word, negations ("not good")
// flip and halve it, and "!" boosts the previous assessment.
type LexiconAnalyzer struct {
	lexicon Lexicon
}

func NewLexiconAnalyzer(lexicon Lexicon) *LexiconAnalyzer {
	return &LexiconAnalyzer{lexicon: lexicon}
}

var (
	defaultAnalyzer     *LexiconAnalyzer
	defaultAnalyzerOnce sync.Once
)

// DefaultAnalyzer returns the analyzer backed by the embedded English lexicon.
func DefaultAnalyzer() *LexiconAnalyzer {
	defaultAnalyzerOnce.Do(func() {
		defaultAnalyzer = NewLexiconAnalyzer(MustEmbeddedLexicon())
	})
	return defaultAnalyzer
}

type assessment struct {
	polarity     float64
	subjectivity float64
	intensity    float64
	negated      bool
}

func (a *LexiconAnalyzer) Analyze(text string) (float64, float64) {
	assessments := a.assess(a.Tokenize(text))
	if len(assessments) == 0 {
		return 0, 0
	}

	var polarity, subjectivity float64
	for _, item := range assessments {
		p := item.polarity
		if item.negated {
			p *= negatedFactor
		}
		polarity += p
		subjectivity += item.subjectivity
	}

	n := float64(len(assessments))
	return clamp(polarity/n, -1, 1), clamp(subjectivity/n, 0, 1)
}

func (a *LexiconAnalyzer) assess(tokens []string) []assessment {
	out := make([]assessment, 0, len(tokens))
	modifying := false
	negation := ""

	for _, word := range tokens {
		if entry, ok := a.lexicon.Words[word]; ok {
			if !modifying {
				out = append(out, assessment{
					polarity:     entry.Polarity,
					subjectivity: entry.Subjectivity,
					intensity:    entry.intensity(),
				})
			} else {
				last := &out[len(out)-1]
				last.polarity = clamp(entry.Polarity*last.intensity, -1, 1)
				last.subjectivity = clamp(entry.Subjectivity*last.intensity, -1, 1)
				last.intensity = entry.intensity()
			}
			if negation != "" {
				last := &out[len(out)-1]
				last.intensity = 1 / last.intensity
				last.negated = true
			}

			modifying = entry.Modifier
			negation = ""
			if a.lexicon.isNegation(word) {
				negation = word
			}
			continue
		}

		if a.lexicon.isNegation(word) {
			negation = word
		} else if negation != "" && utf8.RuneCountInString(strings.Trim(word, "'")) > 1 {
			// negation carries across one-letter words: "not a good app"
			negation = ""
		}

		if negation != "" && modifying {
			// "really not good"
			out[len(out)-1].negated = true
			negation = ""
		} else if modifying && utf8.RuneCountInString(word) > 2 {
			modifying = false
		}

		if word == "!" && len(out) > 0 {
			last := &out[len(out)-1]
			last.polarity = clamp(last.polarity*exclamationFactor, -1, 1)
		}

		if p, ok := a.lexicon.Emoticons[word]; ok {
			out = append(out, assessment{polarity: p, subjectivity: 1, intensity: 1})
		}
	}

	return out
}

var contractions = []string{"n't", "'ll", "'re", "'ve", "'d", "'m", "'s"}

// Tokenize lower-cases text, keeps known emoticons intact, splits surrounding
// punctuation into single-character tokens and separates common contractions.
func (a *LexiconAnalyzer) Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields)*2)

	for _, field := range fields {
		if _, ok := a.lexicon.Emoticons[field]; ok {
			tokens = append(tokens, field)
			continue
		}

		start := 0
		end := len(field)
		var leading []string
		for start < end {
			r, size := utf8.DecodeRuneInString(field[start:])
			if !unicode.IsPunct(r) || r == '\'' {
				break
			}
			leading = append(leading, field[start:start+size])
			start += size
		}
		var trailing []string
		for end > start {
			r, size := utf8.DecodeLastRuneInString(field[start:end])
			if !unicode.IsPunct(r) || r == '\'' {
				break
			}
			trailing = append([]string{field[end-size : end]}, trailing...)
			end -= size
		}

		tokens = append(tokens, leading...)
		if word := field[start:end]; word != "" {
			tokens = append(tokens, splitContraction(word)...)
		}
		tokens = append(tokens, trailing...)
	}

	return tokens
}

func splitContraction(word string) []string {
	for _, suffix := range contractions {
		if len(word) > len(suffix) && strings.HasSuffix(word, suffix) {
			return []string{strings.TrimSuffix(word, suffix), suffix}
		}
	}
	return []string{word}
}

func clamp(value float64, lo float64, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
