// Package contextbuilder packs ranked search results into a token-bounded
// context for a generative model.
package contextbuilder

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docqa/internal/domain"
)

const (
	DefaultMaxTokens = 2000
	SnippetRunes     = 200
	separator        = "\n\n"
)

// FilenameFunc resolves a document id to a display name.
type FilenameFunc func(documentID string) string

type Assembler struct {
	filename  FilenameFunc
	maxTokens int
	logger    *zap.Logger
}

type Option func(*Assembler)

func WithMaxTokens(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAssembler creates an Assembler. A nil filename func labels sources by
// document id.
func NewAssembler(filename FilenameFunc, opts ...Option) *Assembler {
	if filename == nil {
		filename = func(id string) string { return id }
	}
	a := &Assembler{filename: filename, maxTokens: DefaultMaxTokens, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build appends results in order while they fit in maxTokens. A result that
// would overflow is skipped whole and later results are still tried.
// Results repeating an included (document, chunk index) pair are dropped.
// A non-positive maxTokens uses the configured default.
func (a *Assembler) Build(results []domain.SearchResult, maxTokens int) domain.Context {
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}
	if len(results) == 0 {
		return domain.Context{Outcome: domain.OutcomeNoCandidates, Sources: []domain.Source{}}
	}

	type key struct {
		doc   string
		index int
	}
	seen := make(map[key]struct{}, len(results))
	var (
		b       strings.Builder
		sources = make([]domain.Source, 0, len(results))
		used    int
		skipped int
	)
	for _, r := range results {
		k := key{r.Chunk.DocumentID, r.Chunk.Index}
		if _, dup := seen[k]; dup {
			continue
		}
		name := a.filename(r.Chunk.DocumentID)
		segment := fmt.Sprintf("[%d] %s (relevance %.2f)\n%s%s", len(sources)+1, name, r.Similarity, r.Chunk.Text, separator)
		cost := domain.EstimateTokens(segment)
		if used+cost > maxTokens {
			skipped++
			continue
		}
		seen[k] = struct{}{}
		used += cost
		b.WriteString(segment)
		sources = append(sources, domain.Source{
			DocumentID: r.Chunk.DocumentID,
			Filename:   name,
			ChunkIndex: r.Chunk.Index,
			Similarity: r.Similarity,
			Snippet:    Snippet(r.Chunk.Text),
		})
	}

	if skipped > 0 {
		a.logger.Debug("results skipped for token budget",
			zap.Int("skipped", skipped),
			zap.Int("max_tokens", maxTokens))
	}
	if len(sources) == 0 {
		return domain.Context{Outcome: domain.OutcomeOverBudget, Sources: sources}
	}
	return domain.Context{
		Text:            strings.TrimSuffix(b.String(), separator),
		Sources:         sources,
		Outcome:         domain.OutcomeOK,
		EstimatedTokens: used,
	}
}

// Snippet returns the first SnippetRunes runes of text.
func Snippet(text string) string {
	r := []rune(text)
	if len(r) <= SnippetRunes {
		return text
	}
	return string(r[:SnippetRunes]) + "..."
}
