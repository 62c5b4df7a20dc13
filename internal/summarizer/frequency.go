package summarizer

import (
	"math"
	"sort"
	"strings"

	"docqa/internal/chunker"
	"docqa/internal/normalizer"
)

// DefaultSentences is used when a caller asks for a non-positive length.
const DefaultSentences = 3

// FrequencySummarizer picks the sentences whose stemmed terms are most
// frequent across the whole text.
type FrequencySummarizer struct{}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{}
}

// Summarize returns up to maxSentences sentences in their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = DefaultSentences
	}
	sentences := chunker.Sentences(text)
	if len(sentences) == 0 {
		return "", nil
	}

	terms := make([][]string, len(sentences))
	freq := map[string]float64{}
	for i, sent := range sentences {
		terms[i] = normalizer.Terms(sent)
		for _, t := range terms[i] {
			freq[t]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i := range sentences {
		var total float64
		for _, t := range terms[i] {
			total += freq[t] / maxF
		}
		// sqrt damping keeps long sentences from always winning
		if n := len(terms[i]); n > 0 {
			total /= math.Sqrt(float64(n))
		}
		scores[i] = scored{i, total}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if maxSentences > len(scores) {
		maxSentences = len(scores)
	}

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}
