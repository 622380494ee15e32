// Package sentiment blends review text sentiment with the numeric star rating.
package sentiment

import (
	"math"
	"strings"
	"sync"
)

type Label string

const (
	LabelPositive Label = "Positive"
	LabelNegative Label = "Negative"
	LabelNeutral  Label = "Neutral"
)

const (
	// MaxTextWeight caps how much the text can outweigh the rating.
	MaxTextWeight = 0.7
	// WordsForFullWeight is the word count divisor for the text weight.
	WordsForFullWeight = 10.0

	ContradictionThreshold = 0.8
	ContradictionPenalty   = 0.3

	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// Result holds every value derived for one (text, rating) pair.
type Result struct {
	Label          Label
	Polarity       float64
	Subjectivity   float64
	Confidence     float64
	Contradiction  bool
	TextPolarity   float64
	RatingPolarity float64
}

// TextAnalyzer maps free text to polarity in [-1,1] and subjectivity in [0,1].
type TextAnalyzer interface {
	Analyze(text string) (polarity float64, subjectivity float64)
}

type Scorer struct {
	analyzer TextAnalyzer
}

func NewScorer(analyzer TextAnalyzer) *Scorer {
	if analyzer == nil {
		analyzer = DefaultAnalyzer()
	}
	return &Scorer{analyzer: analyzer}
}

var (
	defaultScorer     *Scorer
	defaultScorerOnce sync.Once
)

// Score runs the default lexicon scorer.
func Score(text string, rating int) Result {
	defaultScorerOnce.Do(func() {
		defaultScorer = NewScorer(DefaultAnalyzer())
	})
	return defaultScorer.Score(text, rating)
}

// Score combines text and rating polarity. Short or empty text defers to the rating:
// with no words the text weight is zero and Polarity equals RatingPolarity exactly.
func (s *Scorer) Score(text string, rating int) Result {
	textPolarity, subjectivity := s.analyzer.Analyze(text)
	ratingPolarity := RatingPolarity(rating)

	textWeight := math.Min(float64(len(strings.Fields(text)))/WordsForFullWeight, MaxTextWeight)
	ratingWeight := 1 - textWeight
	combined := textPolarity*textWeight + ratingPolarity*ratingWeight

	contradiction := false
	penalty := 0.0
	if math.Abs(textPolarity-ratingPolarity) > ContradictionThreshold {
		contradiction = true
		penalty = ContradictionPenalty
	}

	return Result{
		Label:          Classify(combined),
		Polarity:       combined,
		Subjectivity:   subjectivity,
		Confidence:     math.Max(0, math.Abs(combined)-penalty),
		Contradiction:  contradiction,
		TextPolarity:   textPolarity,
		RatingPolarity: ratingPolarity,
	}
}

// RatingPolarity maps 1..5 stars linearly onto -1..+1.
func RatingPolarity(rating int) float64 {
	return float64(rating-3) / 2
}

func Classify(polarity float64) Label {
	switch {
	case polarity > PositiveThreshold:
		return LabelPositive
	case polarity < NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

func ParseLabel(raw string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive":
		return LabelPositive, true
	case "negative":
		return LabelNegative, true
	case "neutral":
		return LabelNeutral, true
	default:
		return "", false
	}
}

type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "High"
	ConfidenceMedium  ConfidenceLevel = "Medium"
	ConfidenceLow     ConfidenceLevel = "Low"
	ConfidenceUnknown ConfidenceLevel = "Unknown"
)

// LevelOf buckets a stored confidence score; nil means the review was never scored.
func LevelOf(confidence *float64) ConfidenceLevel {
	if confidence == nil {
		return ConfidenceUnknown
	}
	switch {
	case *confidence > 0.7:
		return ConfidenceHigh
	case *confidence > 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
