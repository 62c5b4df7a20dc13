// Package similarity scores a query against a chunk by combining lexical,
// keyword, phrase, semantic-flag, recency and quality signals.
package similarity

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/features"
	"docqa/internal/normalizer"
)

// Query is a query prepared once and scored against many chunks.
type Query struct {
	Text      string
	Features  domain.FeatureRecord
	Embedding []float32

	lower string
	words []string
}

// Engine computes composite relevance scores.
type Engine struct {
	weights   Weights
	extractor *features.Extractor
	provider  embedding.Provider
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights replaces the default weights.
func WithWeights(w Weights) Option { return func(e *Engine) { e.weights = w } }

// WithProvider enables the embedding signal.
func WithProvider(p embedding.Provider) Option { return func(e *Engine) { e.provider = p } }

// WithClock overrides time.Now for recency computation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine. A nil extractor gets the default one.
func NewEngine(extractor *features.Extractor, opts ...Option) (*Engine, error) {
	if extractor == nil {
		extractor = features.NewExtractor()
	}
	e := &Engine{
		weights:   DefaultWeights(),
		extractor: extractor,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Weights returns the engine coefficients.
func (e *Engine) Weights() Weights { return e.weights }

// Provider returns the configured embedding provider, or nil.
func (e *Engine) Provider() embedding.Provider { return e.provider }

// PrepareQuery extracts the query features once. A failing embedding
// provider is logged and the query falls back to lexical scoring.
func (e *Engine) PrepareQuery(ctx context.Context, text string) Query {
	q := Query{
		Text:     text,
		Features: e.extractor.Extract(text),
		lower:    strings.ToLower(strings.TrimSpace(text)),
		words:    normalizer.Words(text),
	}
	if e.provider != nil {
		v, err := e.provider.Embed(ctx, text)
		if err != nil {
			e.logger.Warn("query embedding failed, using lexical signals",
				zap.String("provider", e.provider.Name()),
				zap.Error(err))
		} else {
			q.Embedding = v
		}
	}
	return q
}

// Score returns the composite similarity of q and c in [0,1] along with the
// contribution of each signal.
func (e *Engine) Score(q Query, c *domain.Chunk) (float64, domain.ScoreFactors) {
	w := e.weights
	var f domain.ScoreFactors

	lexical := CosineTF(q.Features.TermFreq, c.Features.TermFreq)
	keyword := Jaccard(q.Features.Keywords, c.Features.Keywords)
	evidence := lexical > 0 || keyword > 0

	if e.provider != nil && len(q.Embedding) > 0 && len(c.Embedding) > 0 {
		sim := e.provider.Similarity(q.Embedding, c.Embedding)
		f.Embedding = (w.Lexical + w.Keyword) * sim
		evidence = evidence || sim > 0
	} else {
		f.Lexical = w.Lexical * lexical
		f.Keyword = w.Keyword * keyword
	}

	f.Phrase = e.phraseBonus(q, c.Text)
	if f.Phrase > 0 {
		evidence = true
	}

	// Re-ranking signals only apply to chunks with lexical evidence, so an
	// unrelated chunk scores exactly zero.
	if evidence {
		f.Semantic = w.Semantic * (w.FlagShare*FlagAgreement(q.Features.Flags, c.Features.Flags) +
			(1-w.FlagShare)*SentimentCloseness(q.Features.Sentiment, c.Features.Sentiment))
		f.Recency = e.recencyBoost(c.CreatedAt)
		f.Quality = e.qualityBoost(c.Features.Entities)
	}

	total := f.Lexical + f.Keyword + f.Embedding + f.Phrase + f.Semantic + f.Recency + f.Quality
	return clamp01(total), f
}

func (e *Engine) phraseBonus(q Query, chunkText string) float64 {
	if q.lower == "" {
		return 0
	}
	text := strings.ToLower(chunkText)
	if strings.Contains(text, q.lower) {
		return e.weights.PhraseBonus
	}
	if len(q.words) == 0 {
		return 0
	}
	found := 0
	for _, word := range q.words {
		if strings.Contains(text, word) {
			found++
		}
	}
	return e.weights.PartialPhraseMax * float64(found) / float64(len(q.words))
}

func (e *Engine) recencyBoost(created time.Time) float64 {
	if created.IsZero() || e.weights.RecencyMax == 0 {
		return 0
	}
	age := e.now().Sub(created)
	if age < 0 {
		age = 0
	}
	if age >= e.weights.RecencyWindow {
		return 0
	}
	return e.weights.RecencyMax * (1 - float64(age)/float64(e.weights.RecencyWindow))
}

func (e *Engine) qualityBoost(entities int) float64 {
	if e.weights.QualityMax == 0 || entities <= 0 {
		return 0
	}
	ratio := float64(entities) / float64(e.weights.QualitySaturation)
	if ratio > 1 {
		ratio = 1
	}
	return e.weights.QualityMax * ratio
}

// CosineTF is the cosine similarity of two term-frequency maps treated as
// sparse vectors. Empty maps score 0.
func CosineTF(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, x := range a {
		if y, ok := b[term]; ok {
			dot += float64(x * y)
		}
	}
	if dot == 0 {
		return 0
	}
	return clamp01(dot / (norm(a) * norm(b)))
}

func norm(v map[string]int) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	return math.Sqrt(sum)
}

// Jaccard is |A∩B| / |A∪B| over case-insensitive keyword sets.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, k := range a {
		set[strings.ToLower(k)] = struct{}{}
	}
	union := len(set)
	inter := 0
	seen := make(map[string]struct{}, len(b))
	for _, k := range b {
		k = strings.ToLower(k)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// FlagAgreement is the fraction of semantic flags with equal values.
func FlagAgreement(a, b domain.SemanticFlags) float64 {
	fa, fb := a.Slice(), b.Slice()
	match := 0
	for i := range fa {
		if fa[i] == fb[i] {
			match++
		}
	}
	return float64(match) / float64(len(fa))
}

// SentimentCloseness is 1 - |a-b|/10, floored at 0.
func SentimentCloseness(a, b int) float64 {
	d := math.Abs(float64(a-b)) / 10
	if d > 1 {
		return 0
	}
	return 1 - d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ScoreText scores raw query and chunk text with precomputed features. It is
// the lexical-only form of Score for callers that hold no Chunk.
func (e *Engine) ScoreText(queryText string, queryFeatures domain.FeatureRecord, chunkText string, chunkFeatures domain.FeatureRecord, created time.Time) float64 {
	q := Query{
		Text:     queryText,
		Features: queryFeatures,
		lower:    strings.ToLower(strings.TrimSpace(queryText)),
		words:    normalizer.Words(queryText),
	}
	s, _ := e.Score(q, &domain.Chunk{Text: chunkText, Features: chunkFeatures, CreatedAt: created})
	return s
}
