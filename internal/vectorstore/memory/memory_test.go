package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStorage(opts ...Option) *Storage {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewStorage(nil, opts...)
}

func add(t *testing.T, s *Storage, session, doc string, chunks ...string) {
	t.Helper()
	_, err := s.AddDocument(context.Background(), session, doc, chunks, domain.DocumentMetadata{Filename: doc + ".txt"})
	require.NoError(t, err)
}

func TestAddDocumentPublishesChunks(t *testing.T) {
	s := newTestStorage()
	doc, err := s.AddDocument(context.Background(), "s1", "d1",
		[]string{"DevOps combines development and operations.", "Key tools include Jenkins and Docker."},
		domain.DocumentMetadata{Filename: "devops.txt"})
	require.NoError(t, err)

	assert.Equal(t, "d1", doc.ID)
	assert.Equal(t, "s1", doc.SessionID)
	assert.Equal(t, 2, doc.Stats.ChunkCount)
	assert.Equal(t, testNow, doc.Metadata.UploadedAt)

	chunks := s.GetChunksForSession("s1")
	require.Len(t, chunks, 2)
	for i, c := range chunks {
		assert.Equal(t, fmt.Sprintf("d1_%d", i), c.ID)
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "d1", c.DocumentID)
		assert.Equal(t, "s1", c.SessionID)
		assert.False(t, c.Features.Empty())
		assert.Equal(t, testNow, c.CreatedAt)
	}
	assert.Less(t, chunks[0].Seq, chunks[1].Seq)
}

func TestAddDocumentRejectsInvalidInput(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()

	_, err := s.AddDocument(ctx, "s1", "d1", nil, domain.DocumentMetadata{})
	var ie *domain.IngestError
	require.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, domain.ErrEmptyChunks)
	assert.Equal(t, "d1", ie.DocumentID)

	for _, chunks := range [][]string{{"", "   "}, {"real text", "\n\t"}} {
		_, err = s.AddDocument(ctx, "s1", "d1", chunks, domain.DocumentMetadata{})
		require.ErrorAs(t, err, &ie)
		assert.ErrorIs(t, err, domain.ErrEmptyChunks)
	}

	_, err = s.AddDocument(ctx, "", "d1", []string{"text"}, domain.DocumentMetadata{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.AddDocument(ctx, "s1", " ", []string{"text"}, domain.DocumentMetadata{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.False(t, s.HasSession("s1"))
	assert.Empty(t, s.GetAllChunks())
}

func TestAddDocumentRejectsDuplicateID(t *testing.T) {
	s := newTestStorage()
	add(t, s, "s1", "d1", "first version")

	_, err := s.AddDocument(context.Background(), "s2", "d1", []string{"second version"}, domain.DocumentMetadata{})
	assert.ErrorIs(t, err, domain.ErrDocumentExists)

	chunks := s.GetAllChunks()
	require.Len(t, chunks, 1)
	assert.Equal(t, "first version", chunks[0].Text)
	assert.False(t, s.HasSession("s2"))
}

func TestChunksKeepInsertionOrder(t *testing.T) {
	s := newTestStorage()
	add(t, s, "s1", "b", "b0", "b1")
	add(t, s, "s1", "a", "a0")
	add(t, s, "s2", "c", "c0")

	var texts []string
	for _, c := range s.GetChunksForSession("s1") {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"b0", "b1", "a0"}, texts)

	texts = texts[:0]
	for _, c := range s.GetChunksForDocuments([]string{"c", "a", "missing"}) {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"a0", "c0"}, texts)

	assert.Len(t, s.GetAllChunks(), 4)

	docs := s.ListDocuments("s1")
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func TestDeleteSessionRemovesEverything(t *testing.T) {
	s := newTestStorage()
	add(t, s, "s1", "d1", "one", "two")
	add(t, s, "s1", "d2", "three")
	add(t, s, "s2", "d3", "four")

	s.DeleteSession("s1")

	assert.False(t, s.HasSession("s1"))
	assert.Empty(t, s.GetChunksForSession("s1"))
	assert.Empty(t, s.GetChunksForDocuments([]string{"d1", "d2"}))
	_, ok := s.GetDocument("d1")
	assert.False(t, ok)
	assert.Equal(t, domain.SessionStats{}, s.GetDocumentStats("s1"))

	assert.True(t, s.HasSession("s2"))
	assert.Len(t, s.GetAllChunks(), 1)

	// Deleting an unknown session is a no-op.
	s.DeleteSession("nope")
}

func TestDeleteDocument(t *testing.T) {
	s := newTestStorage()
	add(t, s, "s1", "d1", "one")
	add(t, s, "s1", "d2", "two")

	require.NoError(t, s.DeleteDocument("d1"))
	assert.ErrorIs(t, s.DeleteDocument("d1"), domain.ErrDocumentMissing)
	assert.Len(t, s.GetChunksForSession("s1"), 1)

	require.NoError(t, s.DeleteDocument("d2"))
	assert.False(t, s.HasSession("s1"))
}

func TestGetDocumentStats(t *testing.T) {
	s := newTestStorage()
	add(t, s, "s1", "d1", "abcd", "abcdefgh")
	add(t, s, "s1", "d2", "abc")

	st := s.GetDocumentStats("s1")
	assert.Equal(t, 2, st.DocumentCount)
	assert.Equal(t, 3, st.ChunkCount)
	assert.Equal(t, 1+2+1, st.EstimatedTokens)
}

func TestClearAndClose(t *testing.T) {
	s := newTestStorage()
	add(t, s, "s1", "d1", "one")
	s.Clear()
	assert.Empty(t, s.GetAllChunks())
	assert.False(t, s.HasSession("s1"))

	add(t, s, "s1", "d1", "again")
	require.NoError(t, s.Close())
	assert.Empty(t, s.GetAllChunks())
}

type vectorProvider struct {
	err error
}

func (p vectorProvider) Name() string { return "vector" }

func (p vectorProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (p vectorProvider) Similarity(a, b []float32) float64 { return 0 }

func TestAddDocumentEmbedsChunks(t *testing.T) {
	s := newTestStorage(WithProvider(vectorProvider{}))
	add(t, s, "s1", "d1", "abc", "abcdef")

	chunks := s.GetChunksForSession("s1")
	require.Len(t, chunks, 2)
	assert.Equal(t, []float32{3, 1}, chunks[0].Embedding)
	assert.Equal(t, []float32{6, 1}, chunks[1].Embedding)
}

func TestAddDocumentEmbeddingFailureLeavesStoreUnchanged(t *testing.T) {
	boom := errors.New("backend down")
	s := newTestStorage(WithProvider(vectorProvider{err: boom}))

	_, err := s.AddDocument(context.Background(), "s1", "d1", []string{"one", "two"}, domain.DocumentMetadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	var ie *domain.IngestError
	assert.False(t, errors.As(err, &ie), "backend faults are not input errors")
	assert.False(t, s.HasSession("s1"))
	_, ok := s.GetDocument("d1")
	assert.False(t, ok)
}

func TestConcurrentIngestAndRead(t *testing.T) {
	s := newTestStorage(WithWorkers(2))
	const docs = 20

	var wg sync.WaitGroup
	for i := 0; i < docs; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("d%d", i)
			_, err := s.AddDocument(context.Background(), "s1", id,
				[]string{"alpha " + id, "beta " + id, "gamma " + id}, domain.DocumentMetadata{})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			// A reader sees whole documents only.
			counts := map[string]int{}
			for _, c := range s.GetChunksForSession("s1") {
				counts[c.DocumentID]++
			}
			for id, n := range counts {
				assert.Equal(t, 3, n, id)
			}
		}()
	}
	wg.Wait()

	st := s.GetDocumentStats("s1")
	assert.Equal(t, docs, st.DocumentCount)
	assert.Equal(t, docs*3, st.ChunkCount)
}
