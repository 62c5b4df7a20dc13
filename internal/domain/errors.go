package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyChunks     = errors.New("document has no chunks")
	ErrDocumentExists  = errors.New("document already exists")
	ErrDocumentMissing = errors.New("document not found")
	ErrEmptyQuery      = errors.New("query is empty")
	ErrUnscoped        = errors.New("search needs a session or document filter")
	ErrCrossSession    = errors.New("cross-session search is disabled")
	ErrSessionNotFound = errors.New("session not found")
	ErrGeneration      = errors.New("generation failed")
	// ErrEmbedding marks a failure of the embedding backend, not of the input.
	ErrEmbedding       = errors.New("embedding failed")
)

// IngestError is returned when a document cannot be added to the store.
type IngestError struct {
	DocumentID string
	Err        error
}

func (e *IngestError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("ingest: %v", e.Err)
	}
	return fmt.Sprintf("ingest %s: %v", e.DocumentID, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// SearchError is returned for invalid filters or queries.
type SearchError struct {
	Op  string
	Err error
}

func (e *SearchError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *SearchError) Unwrap() error { return e.Err }

// ContextError is returned when context assembly hits a genuine fault.
// An empty context is not an error; see Context.Outcome.
type ContextError struct {
	SessionID string
	Err       error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("context for session %q: %v", e.SessionID, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }
