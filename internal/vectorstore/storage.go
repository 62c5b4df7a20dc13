// Package vectorstore defines the chunk store used by retrieval.
package vectorstore

import (
	"context"

	"docqa/internal/domain"
)

// Storage holds per-document chunks and the session → documents index.
// Implementations publish a document's chunks atomically: readers never see
// a partially ingested document.
type Storage interface {
	AddDocument(ctx context.Context, sessionID, documentID string, chunks []string, meta domain.DocumentMetadata) (*domain.Document, error)
	GetChunksForSession(sessionID string) []*domain.Chunk
	GetChunksForDocuments(documentIDs []string) []*domain.Chunk
	GetAllChunks() []*domain.Chunk
	GetDocument(documentID string) (*domain.Document, bool)
	ListDocuments(sessionID string) []*domain.Document
	HasSession(sessionID string) bool
	DeleteDocument(documentID string) error
	DeleteSession(sessionID string)
	GetDocumentStats(sessionID string) domain.SessionStats
	Clear()
	Close() error
}
