package sentiment

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed lexicon.toml
var embeddedLexicon []byte

// LexiconEntry is the sentiment carried by a single word. Modifier words
// ("very", "slightly") scale the next known word by Intensity.
type LexiconEntry struct {
	Polarity     float64 `toml:"polarity"`
	Subjectivity float64 `toml:"subjectivity"`
	Intensity    float64 `toml:"intensity"`
	Modifier     bool    `toml:"modifier"`
}

func (e LexiconEntry) intensity() float64 {
	if e.Intensity == 0 {
		return 1
	}
	return e.Intensity
}

type Lexicon struct {
	Words     map[string]LexiconEntry `toml:"words"`
	Emoticons map[string]float64      `toml:"emoticons"`
	Negations []string                `toml:"negations"`

	negationSet map[string]struct{}
}

// ParseLexicon decodes a TOML lexicon. Keys are matched against lower-cased tokens.
func ParseLexicon(raw []byte) (Lexicon, error) {
	var decoded Lexicon
	if err := toml.Unmarshal(raw, &decoded); err != nil {
		return Lexicon{}, fmt.Errorf("decode lexicon: %w", err)
	}

	lexicon := Lexicon{
		Words:       make(map[string]LexiconEntry, len(decoded.Words)),
		Emoticons:   make(map[string]float64, len(decoded.Emoticons)),
		Negations:   decoded.Negations,
		negationSet: make(map[string]struct{}, len(decoded.Negations)),
	}
	for word, entry := range decoded.Words {
		if entry.Polarity < -1 || entry.Polarity > 1 {
			return Lexicon{}, fmt.Errorf("lexicon word %q: polarity %v out of range", word, entry.Polarity)
		}
		lexicon.Words[strings.ToLower(word)] = entry
	}
	for emoticon, polarity := range decoded.Emoticons {
		lexicon.Emoticons[strings.ToLower(emoticon)] = polarity
	}
	for _, word := range decoded.Negations {
		lexicon.negationSet[strings.ToLower(word)] = struct{}{}
	}
	return lexicon, nil
}

func MustEmbeddedLexicon() Lexicon {
	lexicon, err := ParseLexicon(embeddedLexicon)
	if err != nil {
		panic(err)
	}
	return lexicon
}

func (l Lexicon) isNegation(word string) bool {
	_, ok := l.negationSet[word]
	return ok
}
