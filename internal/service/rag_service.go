// Package service is the facade collaborators (HTTP, TUI, CLI) use to
// ingest documents, search them and answer questions from them.
package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docqa/internal/contextbuilder"
	"docqa/internal/domain"
	"docqa/internal/generation"
	"docqa/internal/metrics"
	"docqa/internal/search"
	"docqa/internal/vectorstore"
)

const (
	defaultSummarySentences = 3
	// contextChunkLimit bounds the chunk-level pass of GetRelevantContext.
	contextChunkLimit = 10
	// contextDocumentLimit bounds the document-level pass.
	contextDocumentLimit = 5
)

// RAGService wires the store, search coordinator and context assembler to
// the chunking, summarising and generation collaborators.
type RAGService struct {
	store               vectorstore.Storage
	search              *search.Coordinator
	assembler           *contextbuilder.Assembler
	chunker             domain.Chunker
	summarizer          domain.Summarizer
	summaryMaxSentences int
	generator           domain.Generator
	metrics             *metrics.Metrics
	logger              *zap.Logger
}

// Option configures a RAGService.
type Option func(*RAGService)

func WithChunker(c domain.Chunker) Option { return func(s *RAGService) { s.chunker = c } }

// WithSummarizer fills DocumentMetadata.Summary on text and file ingest.
func WithSummarizer(sum domain.Summarizer, maxSentences int) Option {
	return func(s *RAGService) {
		s.summarizer = sum
		if maxSentences > 0 {
			s.summaryMaxSentences = maxSentences
		}
	}
}

func WithGenerator(g domain.Generator) Option {
	return func(s *RAGService) {
		if g != nil {
			s.generator = g
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option { return func(s *RAGService) { s.metrics = m } }

func WithLogger(l *zap.Logger) Option {
	return func(s *RAGService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewRAGService creates the facade. Without a generator, answers quote the
// best source; without a chunker, raw text ingest is unavailable.
func NewRAGService(store vectorstore.Storage, coordinator *search.Coordinator, assembler *contextbuilder.Assembler, opts ...Option) *RAGService {
	s := &RAGService{
		store:               store,
		search:              coordinator,
		assembler:           assembler,
		summaryMaxSentences: defaultSummarySentences,
		generator:           generation.Static{},
		logger:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the metrics the service records to, or nil.
func (s *RAGService) Metrics() *metrics.Metrics { return s.metrics }

// IngestDocument stores pre-split chunks. An empty documentID gets a
// generated one.
func (s *RAGService) IngestDocument(ctx context.Context, sessionID, documentID string, chunks []string, meta domain.DocumentMetadata) (*domain.Document, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}
	start := time.Now()
	doc, err := s.store.AddDocument(ctx, sessionID, documentID, chunks, meta)
	if s.metrics != nil {
		s.metrics.DocumentsIngested.WithLabelValues(ingestStatus(err)).Inc()
		if err == nil {
			s.metrics.ChunksIngested.Add(float64(doc.Stats.ChunkCount))
			s.metrics.IngestDuration.Observe(time.Since(start).Seconds())
		}
	}
	if err != nil {
		s.logger.Warn("ingest failed",
			zap.String("session_id", sessionID),
			zap.String("document_id", documentID),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("document ingested",
		zap.String("session_id", sessionID),
		zap.String("document_id", documentID),
		zap.String("filename", doc.Metadata.Filename),
		zap.Int("chunks", doc.Stats.ChunkCount),
		zap.Duration("took", time.Since(start)))
	return doc, nil
}

func ingestStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDocumentExists):
		return "duplicate"
	default:
		return "error"
	}
}

// IngestText chunks raw text with the configured chunker and summarises it
// before storing.
func (s *RAGService) IngestText(ctx context.Context, sessionID, documentID, filename, content string) (*domain.Document, error) {
	if s.chunker == nil {
		return nil, &domain.IngestError{DocumentID: documentID, Err: fmt.Errorf("%w: no chunker configured", domain.ErrInvalidInput)}
	}
	chunks := s.chunker.Split(content)
	if len(chunks) == 0 {
		return nil, &domain.IngestError{DocumentID: documentID, Err: domain.ErrEmptyChunks}
	}
	meta := domain.DocumentMetadata{Filename: filename}
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(content, s.summaryMaxSentences)
		if err != nil {
			s.logger.Warn("summary failed", zap.String("filename", filename), zap.Error(err))
		}
		meta.Summary = summary
	}
	return s.IngestDocument(ctx, sessionID, documentID, chunks, meta)
}

// IngestFiles ingests every .txt and .md file matched by paths (globs
// allowed) into the session. Files already ingested into the session are
// skipped.
func (s *RAGService) IngestFiles(ctx context.Context, sessionID string, paths []string) ([]*domain.Document, error) {
	var files []string
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			switch strings.ToLower(filepath.Ext(m)) {
			case ".txt", ".md":
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, &domain.IngestError{Err: fmt.Errorf("%w: no .txt or .md documents found", domain.ErrInvalidInput)}
	}

	var docs []*domain.Document
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return docs, &domain.IngestError{Err: fmt.Errorf("read %s: %w", f, err)}
		}
		doc, err := s.IngestText(ctx, sessionID, fileDocumentID(sessionID, f), filepath.Base(f), string(data))
		switch {
		case errors.Is(err, domain.ErrDocumentExists):
			s.logger.Debug("file already ingested", zap.String("path", f))
			continue
		case errors.Is(err, domain.ErrEmptyChunks):
			s.logger.Warn("skipping empty file", zap.String("path", f))
			continue
		case err != nil:
			return docs, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// fileDocumentID is stable per (session, path) so re-ingesting a file is
// detected as a duplicate.
func fileDocumentID(sessionID, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	h := sha1.Sum([]byte(sessionID + "\x00" + abs))
	return hex.EncodeToString(h[:8])
}

// Search ranks chunks for query under opts.
func (s *RAGService) Search(ctx context.Context, query string, opts search.Options) ([]domain.SearchResult, error) {
	start := time.Now()
	results, err := s.search.Search(ctx, query, opts)
	if s.metrics != nil {
		s.metrics.ObserveSearch("chunks", start, err)
		if err == nil {
			s.metrics.SearchResults.Observe(float64(len(results)))
		}
	}
	return results, err
}

// CrossDocumentSearch ranks the session's documents for query.
func (s *RAGService) CrossDocumentSearch(ctx context.Context, query, sessionID string, limit int) ([]domain.DocumentGroup, error) {
	start := time.Now()
	groups, err := s.search.CrossDocumentSearch(ctx, query, sessionID, limit)
	s.metrics.ObserveSearch("documents", start, err)
	return groups, err
}

// GetRelevantContext merges a chunk-level and a document-level pass over the
// session and packs the best results into at most maxTokens. Finding nothing
// is reported through Context.Outcome, not as an error. A non-positive
// maxTokens uses the assembler's configured budget.
func (s *RAGService) GetRelevantContext(ctx context.Context, query, sessionID string, maxTokens int) (domain.Context, error) {
	start := time.Now()
	c, err := s.relevantContext(ctx, query, sessionID, maxTokens)
	s.metrics.ObserveSearch("context", start, err)
	if err != nil {
		return domain.Context{}, &domain.ContextError{SessionID: sessionID, Err: err}
	}
	if s.metrics != nil {
		s.metrics.ContextOutcomes.WithLabelValues(string(c.Outcome)).Inc()
		s.metrics.ContextTokens.Observe(float64(c.EstimatedTokens))
	}
	s.logger.Debug("context assembled",
		zap.String("session_id", sessionID),
		zap.String("outcome", string(c.Outcome)),
		zap.Int("sources", len(c.Sources)),
		zap.Int("tokens", c.EstimatedTokens))
	return c, nil
}

func (s *RAGService) relevantContext(ctx context.Context, query, sessionID string, maxTokens int) (domain.Context, error) {
	opts := search.Options{SessionID: sessionID, Limit: contextChunkLimit}
	chunks, err := s.search.Search(ctx, query, opts)
	if err != nil {
		return domain.Context{}, err
	}
	groups, err := s.search.CrossDocumentSearch(ctx, query, sessionID, contextDocumentLimit)
	if err != nil {
		return domain.Context{}, err
	}

	merged := chunks
	for _, g := range groups {
		merged = append(merged, g.Results...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Similarity > merged[j].Similarity })

	if len(merged) == 0 {
		outcome := domain.OutcomeNoCandidates
		if len(s.store.GetChunksForSession(sessionID)) > 0 {
			outcome = domain.OutcomeBelowThreshold
		}
		return domain.Context{Outcome: outcome, Sources: []domain.Source{}}, nil
	}
	return s.assembler.Build(merged, maxTokens), nil
}

// Answer retrieves context for question and asks the generator for a cited
// answer. Without relevant context the generator is not called and
// Answer.Found is false.
func (s *RAGService) Answer(ctx context.Context, question, sessionID string) (domain.Answer, error) {
	c, err := s.GetRelevantContext(ctx, question, sessionID, 0)
	if err != nil {
		return domain.Answer{}, err
	}
	ans := domain.Answer{Question: question, Sources: c.Sources}
	if !c.Found() {
		ans.Text = generation.NoAnswer
		return ans, nil
	}

	text, err := s.generator.Generate(ctx, generation.Prompt(question, c))
	if s.metrics != nil {
		s.metrics.Generations.WithLabelValues(metrics.Status(err)).Inc()
	}
	if err != nil {
		s.logger.Error("generation failed", zap.String("session_id", sessionID), zap.Error(err))
		if !errors.Is(err, domain.ErrGeneration) {
			err = fmt.Errorf("%w: %w", domain.ErrGeneration, err)
		}
		return domain.Answer{}, err
	}
	ans.Text = text
	ans.Found = true
	return ans, nil
}

// DeleteSession removes every document of the session.
func (s *RAGService) DeleteSession(sessionID string) {
	s.store.DeleteSession(sessionID)
	if s.metrics != nil {
		s.metrics.SessionsDeleted.Inc()
	}
	s.logger.Info("session deleted", zap.String("session_id", sessionID))
}

// DeleteDocument removes one document.
func (s *RAGService) DeleteDocument(documentID string) error {
	if err := s.store.DeleteDocument(documentID); err != nil {
		return err
	}
	s.logger.Info("document deleted", zap.String("document_id", documentID))
	return nil
}

// GetSessionStats reports document, chunk and token counts.
func (s *RAGService) GetSessionStats(sessionID string) domain.SessionStats {
	return s.store.GetDocumentStats(sessionID)
}

// ListDocuments returns the session's documents in ingest order.
func (s *RAGService) ListDocuments(sessionID string) []*domain.Document {
	return s.store.ListDocuments(sessionID)
}

// Document returns a single document record.
func (s *RAGService) Document(documentID string) (*domain.Document, bool) {
	return s.store.GetDocument(documentID)
}

// Close releases the store.
func (s *RAGService) Close() error { return s.store.Close() }
