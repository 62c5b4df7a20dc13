// Package features converts raw text into the FeatureRecord used for scoring.
package features

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/normalizer"
)

// DefaultKeywordCount is the number of keywords kept per record.
const DefaultKeywordCount = 10

// minKeywordLength excludes short stems from keyword lists.
const minKeywordLength = 4

// Extractor builds feature records. It is safe for concurrent use.
type Extractor struct {
	keywordCount int
	logger       *zap.Logger
	// probe runs before extraction; tests use it to inject faults.
	probe func(text string)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithKeywordCount sets how many keywords each record keeps.
func WithKeywordCount(k int) Option {
	return func(e *Extractor) {
		if k > 0 {
			e.keywordCount = k
		}
	}
}

// WithLogger sets the logger used to report recovered failures.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{keywordCount: DefaultKeywordCount, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: an internal fault yields an empty record so that
// ingestion is never blocked by feature extraction.
func (e *Extractor) Extract(text string) (rec domain.FeatureRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("feature extraction failed, using empty record",
				zap.Any("panic", r),
				zap.Int("text_length", len(text)))
			rec = emptyRecord()
		}
	}()
	return e.extract(text)
}

func (e *Extractor) extract(text string) domain.FeatureRecord {
	if e.probe != nil {
		e.probe(text)
	}
	terms := normalizer.Terms(text)
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return domain.FeatureRecord{
		TermFreq:  tf,
		Keywords:  topKeywords(terms, tf, e.keywordCount),
		Flags:     DetectFlags(text),
		Sentiment: Sentiment(normalizer.Normalize(text)),
		Entities:  countEntities(text),
	}
}

func emptyRecord() domain.FeatureRecord {
	return domain.FeatureRecord{TermFreq: map[string]int{}, Keywords: []string{}}
}

// topKeywords ranks stems longer than three characters by frequency; ties go
// to the stem seen first.
func topKeywords(terms []string, tf map[string]int, k int) []string {
	first := make(map[string]int, len(tf))
	var candidates []string
	for i, t := range terms {
		if len(t) < minKeywordLength {
			continue
		}
		if _, seen := first[t]; seen {
			continue
		}
		first[t] = i
		candidates = append(candidates, t)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if tf[a] != tf[b] {
			return tf[a] > tf[b]
		}
		return first[a] < first[b]
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	if candidates == nil {
		return []string{}
	}
	return candidates
}

var (
	definitionRe = regexp.MustCompile(`(?i)\b(is|means|refers to|defined as|definition of)\b`)
	exampleRe    = regexp.MustCompile(`(?i)\b(example|examples|such as|for instance|e\.g\.)`)
	comparisonRe = regexp.MustCompile(`(?i)\b(compare|compared|comparison|versus|vs\.?|difference between|whereas)\b`)
	processRe    = regexp.MustCompile(`(?i)\b(step|steps|process|method|procedure|workflow)\b`)
	causalRe     = regexp.MustCompile(`(?i)\b(because|due to|therefore|as a result|leads to|caused by)\b`)
)

// DetectFlags runs the semantic pattern tests over raw text.
func DetectFlags(text string) domain.SemanticFlags {
	return domain.SemanticFlags{
		HasQuestion:   strings.Contains(text, "?"),
		HasDefinition: definitionRe.MatchString(text),
		HasExample:    exampleRe.MatchString(text),
		HasComparison: comparisonRe.MatchString(text),
		HasProcess:    processRe.MatchString(text),
		HasCausal:     causalRe.MatchString(text),
	}
}

// Sentiment adds one per positive and subtracts one per negative lexicon hit.
// The sum is deliberately not normalised by length.
func Sentiment(tokens []string) int {
	score := 0
	for _, t := range tokens {
		if _, ok := positiveWords[t]; ok {
			score++
		}
		if _, ok := negativeWords[t]; ok {
			score--
		}
	}
	return score
}

// countEntities counts capitalised tokens that do not open a sentence.
func countEntities(text string) int {
	count := 0
	sentenceStart := true
	for _, field := range strings.Fields(text) {
		word := strings.TrimFunc(field, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if word != "" {
			r := []rune(word)[0]
			if !sentenceStart && unicode.IsUpper(r) {
				count++
			}
			sentenceStart = false
		}
		if strings.ContainsAny(field[len(field)-1:], ".!?") {
			sentenceStart = true
		}
	}
	return count
}

var positiveWords = wordSet(
	"good", "great", "excellent", "best", "better", "benefit", "benefits", "effective", "efficient",
	"improve", "improves", "improved", "success", "successful", "positive", "easy", "reliable",
	"powerful", "useful", "helpful", "advantage", "advantages", "fast", "secure", "robust", "love",
)

var negativeWords = wordSet(
	"bad", "poor", "worst", "worse", "fail", "fails", "failure", "problem", "problems", "error",
	"errors", "difficult", "hard", "slow", "negative", "risk", "risks", "issue", "issues",
	"disadvantage", "disadvantages", "weak", "insecure", "broken", "hate", "bug", "bugs",
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
