package similarity

import (
	"errors"
	"fmt"
	"time"
)

// Weights are the tunable coefficients of the composite score. Lexical,
// Keyword and Semantic share a budget of 1.0; the remaining terms are
// additive boosts.
type Weights struct {
	Lexical  float64
	Keyword  float64
	Semantic float64
	// FlagShare is the part of Semantic given to flag agreement; the rest goes
	// to sentiment closeness.
	FlagShare float64

	PhraseBonus      float64
	PartialPhraseMax float64

	RecencyMax    float64
	RecencyWindow time.Duration

	QualityMax float64
	// QualitySaturation is the entity count at which the quality boost is full.
	QualitySaturation int
}

// DefaultWeights returns the stock coefficients.
func DefaultWeights() Weights {
	return Weights{
		Lexical:           0.4,
		Keyword:           0.25,
		Semantic:          0.1,
		FlagShare:         0.7,
		PhraseBonus:       0.8,
		PartialPhraseMax:  0.3,
		RecencyMax:        0.05,
		RecencyWindow:     30 * 24 * time.Hour,
		QualityMax:        0.05,
		QualitySaturation: 3,
	}
}

// Validate checks that weights are non-negative and the weighted budget does
// not exceed 1.0.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"lexical": w.Lexical, "keyword": w.Keyword, "semantic": w.Semantic,
		"phrase_bonus": w.PhraseBonus, "partial_phrase_max": w.PartialPhraseMax,
		"recency_max": w.RecencyMax, "quality_max": w.QualityMax,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be >= 0, got %v", name, v)
		}
	}
	if sum := w.Lexical + w.Keyword + w.Semantic; sum > 1.0+1e-9 {
		return fmt.Errorf("lexical+keyword+semantic weights must be <= 1.0, got %.3f", sum)
	}
	if w.FlagShare < 0 || w.FlagShare > 1 {
		return fmt.Errorf("flag share must be within [0,1], got %v", w.FlagShare)
	}
	if w.RecencyMax > 0 && w.RecencyWindow <= 0 {
		return errors.New("recency window must be > 0 when recency boost is enabled")
	}
	if w.QualityMax > 0 && w.QualitySaturation <= 0 {
		return errors.New("quality saturation must be > 0 when quality boost is enabled")
	}
	return nil
}
