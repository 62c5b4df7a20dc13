package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/features"
)

// Storage is an in-memory chunk store. Documents are built outside the lock
// and published under it, so ingestion of different documents proceeds in
// parallel while readers always see whole documents.
type Storage struct {
	mu       sync.RWMutex
	docs     map[string]*entry
	sessions map[string]map[string]struct{}
	seq      uint64

	extractor *features.Extractor
	provider  embedding.Provider
	workers   int
	now       func() time.Time
	logger    *zap.Logger
}

type entry struct {
	doc    domain.Document
	chunks []*domain.Chunk
}

// Option configures a Storage.
type Option func(*Storage)

// WithProvider embeds every chunk at ingest time.
func WithProvider(p embedding.Provider) Option { return func(s *Storage) { s.provider = p } }

// WithWorkers bounds the parallelism of feature extraction per document.
func WithWorkers(n int) Option {
	return func(s *Storage) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock overrides the chunk creation clock.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the storage logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Storage) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStorage creates an empty store. A nil extractor gets the default one.
func NewStorage(extractor *features.Extractor, opts ...Option) *Storage {
	if extractor == nil {
		extractor = features.NewExtractor()
	}
	s := &Storage{
		docs:      make(map[string]*entry),
		sessions:  make(map[string]map[string]struct{}),
		extractor: extractor,
		workers:   4,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChunkID is the stable id of the index-th chunk of a document.
func ChunkID(documentID string, index int) string {
	return documentID + "_" + strconv.Itoa(index)
}

// AddDocument computes features (and embeddings) for every chunk, then
// publishes the document in one step. On error the store is unchanged.
func (s *Storage) AddDocument(ctx context.Context, sessionID, documentID string, texts []string, meta domain.DocumentMetadata) (*domain.Document, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(documentID) == "" {
		return nil, &domain.IngestError{DocumentID: documentID, Err: fmt.Errorf("%w: session and document id are required", domain.ErrInvalidInput)}
	}
	if len(texts) == 0 {
		return nil, &domain.IngestError{DocumentID: documentID, Err: domain.ErrEmptyChunks}
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, &domain.IngestError{DocumentID: documentID, Err: fmt.Errorf("%w: chunk %d is blank", domain.ErrEmptyChunks, i)}
		}
	}
	if s.exists(documentID) {
		return nil, &domain.IngestError{DocumentID: documentID, Err: domain.ErrDocumentExists}
	}

	created := s.now()
	if meta.UploadedAt.IsZero() {
		meta.UploadedAt = created
	}
	chunks := make([]*domain.Chunk, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, text := range texts {
		g.Go(func() error {
			c := &domain.Chunk{
				ID:         ChunkID(documentID, i),
				DocumentID: documentID,
				SessionID:  sessionID,
				Index:      i,
				Text:       text,
				Features:   s.extractor.Extract(text),
				CreatedAt:  created,
			}
			if s.provider != nil {
				v, err := s.provider.Embed(gctx, text)
				if err != nil {
					return fmt.Errorf("embed chunk %d: %w", i, err)
				}
				c.Embedding = v
			}
			chunks[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// a backend fault, so not an IngestError
		return nil, fmt.Errorf("%w: document %s: %w", domain.ErrEmbedding, documentID, err)
	}

	stats := domain.DocumentStats{ChunkCount: len(chunks)}
	for _, c := range chunks {
		stats.CharCount += len(c.Text)
		stats.EstimatedTokens += domain.EstimateTokens(c.Text)
	}
	e := &entry{
		doc:    domain.Document{ID: documentID, SessionID: sessionID, Metadata: meta, Stats: stats},
		chunks: chunks,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[documentID]; ok {
		return nil, &domain.IngestError{DocumentID: documentID, Err: domain.ErrDocumentExists}
	}
	for _, c := range chunks {
		s.seq++
		c.Seq = s.seq
	}
	s.docs[documentID] = e
	set, ok := s.sessions[sessionID]
	if !ok {
		set = make(map[string]struct{})
		s.sessions[sessionID] = set
	}
	set[documentID] = struct{}{}

	s.logger.Debug("document published",
		zap.String("session_id", sessionID),
		zap.String("document_id", documentID),
		zap.Int("chunks", len(chunks)))
	doc := e.doc
	return &doc, nil
}

func (s *Storage) exists(documentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[documentID]
	return ok
}

// GetChunksForSession returns the chunks of every document in the session in
// insertion order.
func (s *Storage) GetChunksForSession(sessionID string) []*domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.sessions[sessionID])
}

// GetChunksForDocuments returns the chunks of the listed documents in
// insertion order. Unknown ids are ignored.
func (s *Storage) GetChunksForDocuments(documentIDs []string) []*domain.Chunk {
	ids := make(map[string]struct{}, len(documentIDs))
	for _, id := range documentIDs {
		ids[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(ids)
}

// GetAllChunks returns every chunk in insertion order.
func (s *Storage) GetAllChunks() []*domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Chunk
	for _, e := range s.docs {
		out = append(out, e.chunks...)
	}
	sortBySeq(out)
	return out
}

// collect must be called with the read lock held.
func (s *Storage) collect(ids map[string]struct{}) []*domain.Chunk {
	var out []*domain.Chunk
	for id := range ids {
		if e, ok := s.docs[id]; ok {
			out = append(out, e.chunks...)
		}
	}
	sortBySeq(out)
	return out
}

func sortBySeq(chunks []*domain.Chunk) {
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })
}

// GetDocument returns a copy of the document record.
func (s *Storage) GetDocument(documentID string) (*domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[documentID]
	if !ok {
		return nil, false
	}
	doc := e.doc
	return &doc, true
}

// ListDocuments returns the session's documents in ingest order.
func (s *Storage) ListDocuments(sessionID string) []*domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type ordered struct {
		doc   domain.Document
		first uint64
	}
	var docs []ordered
	for id := range s.sessions[sessionID] {
		if e, ok := s.docs[id]; ok {
			docs = append(docs, ordered{doc: e.doc, first: e.chunks[0].Seq})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].first < docs[j].first })
	out := make([]*domain.Document, len(docs))
	for i := range docs {
		out[i] = &docs[i].doc
	}
	return out
}

// HasSession reports whether any document is registered under sessionID.
func (s *Storage) HasSession(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID]) > 0
}

// DeleteDocument removes a document and all of its chunks.
func (s *Storage) DeleteDocument(documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[documentID]
	if !ok {
		return domain.ErrDocumentMissing
	}
	delete(s.docs, documentID)
	if set, ok := s.sessions[e.doc.SessionID]; ok {
		delete(set, documentID)
		if len(set) == 0 {
			delete(s.sessions, e.doc.SessionID)
		}
	}
	return nil
}

// DeleteSession removes every document registered under the session and
// then the session entry itself.
func (s *Storage) DeleteSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sessions[sessionID]
	for id := range set {
		delete(s.docs, id)
	}
	delete(s.sessions, sessionID)
	s.logger.Debug("session deleted",
		zap.String("session_id", sessionID),
		zap.Int("documents", len(set)))
}

// GetDocumentStats reports document, chunk and estimated token counts for a
// session.
func (s *Storage) GetDocumentStats(sessionID string) domain.SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st domain.SessionStats
	for id := range s.sessions[sessionID] {
		e, ok := s.docs[id]
		if !ok {
			continue
		}
		st.DocumentCount++
		st.ChunkCount += e.doc.Stats.ChunkCount
		st.EstimatedTokens += e.doc.Stats.EstimatedTokens
	}
	return st
}

// Clear drops all documents and sessions.
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*entry)
	s.sessions = make(map[string]map[string]struct{})
}

// Close releases the store contents.
func (s *Storage) Close() error {
	s.Clear()
	return nil
}
