// Package search ranks stored chunks against a query and aggregates the
// ranking per document.
package search

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/logging"
	"docqa/internal/similarity"
	"docqa/internal/vectorstore"
)

const (
	DefaultThreshold = 0.1
	DefaultLimit     = 5
	DefaultInflation = 3
)

// Options filters and bounds a chunk-level search.
type Options struct {
	SessionID   string
	DocumentIDs []string
	Limit       int
	// AllSessions asks for a search with neither a session nor a document
	// filter to run over the whole corpus. It is refused unless the
	// coordinator was built WithCrossSession(true).
	AllSessions bool
	// RequireSession turns a missing session into ErrSessionNotFound
	// instead of an empty result.
	RequireSession bool
}

// Coordinator selects candidates from a store and ranks them with the
// similarity engine.
type Coordinator struct {
	store        vectorstore.Storage
	engine       *similarity.Engine
	threshold    float64
	defaultLimit int
	inflation    int
	crossSession bool
	logger       *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithThreshold sets the minimum similarity a result must reach.
func WithThreshold(t float64) Option {
	return func(c *Coordinator) {
		if t >= 0 {
			c.threshold = t
		}
	}
}

// WithDefaultLimit sets the limit used when a caller passes none.
func WithDefaultLimit(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.defaultLimit = n
		}
	}
}

// WithInflation sets how many chunks per requested document the
// cross-document search gathers.
func WithInflation(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.inflation = n
		}
	}
}

// WithCrossSession permits searches that set Options.AllSessions.
func WithCrossSession(allow bool) Option { return func(c *Coordinator) { c.crossSession = allow } }

// WithLogger sets the coordinator logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a Coordinator over store.
func NewCoordinator(store vectorstore.Storage, engine *similarity.Engine, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:        store,
		engine:       engine,
		threshold:    DefaultThreshold,
		defaultLimit: DefaultLimit,
		inflation:    DefaultInflation,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the configured minimum similarity.
func (c *Coordinator) Threshold() float64 { return c.threshold }

// Search returns at most Limit results with similarity at or above the
// threshold, best first. Ties keep insertion order.
func (c *Coordinator) Search(ctx context.Context, query string, opts Options) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &domain.SearchError{Op: "search", Err: domain.ErrEmptyQuery}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = c.defaultLimit
	}

	candidates, err := c.candidates(opts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		c.logger.Debug("no candidates",
			zap.String("session_id", opts.SessionID),
			zap.Int("document_filter", len(opts.DocumentIDs)))
		return []domain.SearchResult{}, nil
	}

	q := c.engine.PrepareQuery(ctx, query)
	results := make([]domain.SearchResult, 0, len(candidates))
	for _, ch := range candidates {
		score, factors := c.engine.Score(q, ch)
		if ce := c.logger.Check(logging.TraceLevel, "candidate scored"); ce != nil {
			ce.Write(
				zap.String("chunk_id", ch.ID),
				zap.Float64("score", score),
				zap.Float64("lexical", factors.Lexical),
				zap.Float64("keyword", factors.Keyword),
				zap.Float64("phrase", factors.Phrase),
				zap.Bool("kept", score >= c.threshold))
		}
		if score < c.threshold {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: ch, Similarity: score, Factors: factors})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Chunk.Seq < results[j].Chunk.Seq
	})
	if len(results) > limit {
		results = results[:limit]
	}

	c.logger.Debug("search complete",
		zap.String("session_id", opts.SessionID),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Int("limit", limit))
	return results, nil
}

func (c *Coordinator) candidates(opts Options) ([]*domain.Chunk, error) {
	switch {
	case opts.SessionID != "":
		if !c.store.HasSession(opts.SessionID) {
			if opts.RequireSession {
				return nil, &domain.SearchError{Op: "search", Err: domain.ErrSessionNotFound}
			}
			return nil, nil
		}
		chunks := c.store.GetChunksForSession(opts.SessionID)
		if len(opts.DocumentIDs) == 0 {
			return chunks, nil
		}
		return filterDocuments(chunks, opts.DocumentIDs), nil
	case len(opts.DocumentIDs) > 0:
		return c.store.GetChunksForDocuments(opts.DocumentIDs), nil
	case opts.AllSessions:
		if !c.crossSession {
			return nil, &domain.SearchError{Op: "search", Err: domain.ErrCrossSession}
		}
		c.logger.Info("cross-session search")
		return c.store.GetAllChunks(), nil
	default:
		return nil, &domain.SearchError{Op: "search", Err: domain.ErrUnscoped}
	}
}

func filterDocuments(chunks []*domain.Chunk, ids []string) []*domain.Chunk {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := chunks[:0:0]
	for _, ch := range chunks {
		if _, ok := keep[ch.DocumentID]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// CrossDocumentSearch ranks the session's documents by the composite
// relevance of their matching chunks.
func (c *Coordinator) CrossDocumentSearch(ctx context.Context, query, sessionID string, limit int) ([]domain.DocumentGroup, error) {
	if limit <= 0 {
		limit = c.defaultLimit
	}
	results, err := c.Search(ctx, query, Options{SessionID: sessionID, Limit: limit * c.inflation})
	if err != nil {
		var se *domain.SearchError
		if errors.As(err, &se) {
			se.Op = "cross-document search"
		}
		return nil, err
	}

	index := make(map[string]int)
	var groups []domain.DocumentGroup
	for _, r := range results {
		i, ok := index[r.Chunk.DocumentID]
		if !ok {
			i = len(groups)
			index[r.Chunk.DocumentID] = i
			groups = append(groups, domain.DocumentGroup{
				DocumentID: r.Chunk.DocumentID,
				Filename:   c.filename(r.Chunk.DocumentID),
			})
		}
		groups[i].Results = append(groups[i].Results, r)
	}

	for i := range groups {
		g := &groups[i]
		var sum float64
		for _, r := range g.Results {
			sum += r.Similarity
			g.MaxSimilarity = math.Max(g.MaxSimilarity, r.Similarity)
		}
		g.ChunkCount = len(g.Results)
		g.AvgSimilarity = sum / float64(g.ChunkCount)
		g.Relevance = Relevance(g.AvgSimilarity, g.MaxSimilarity, g.ChunkCount)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Relevance > groups[j].Relevance })
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

// Relevance combines per-document statistics into a ranking score. It is
// not bounded by 1.
func Relevance(avg, max float64, chunkCount int) float64 {
	return 0.4*avg + 0.6*max + 0.1*math.Log(float64(chunkCount)+1)
}

func (c *Coordinator) filename(documentID string) string {
	if doc, ok := c.store.GetDocument(documentID); ok && doc.Metadata.Filename != "" {
		return doc.Metadata.Filename
	}
	return documentID
}
