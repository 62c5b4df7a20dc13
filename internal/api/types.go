package api

import "docqa/internal/domain"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// IngestRequest is the request body for POST /api/v1/sessions/:session/documents.
// Either Chunks (pre-split) or Content (split by the server) must be set.
type IngestRequest struct {
	DocumentID string            `json:"document_id"`
	Filename   string            `json:"filename"`
	Chunks     []string          `json:"chunks"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
}

type DocumentsResponse struct {
	Documents []*domain.Document `json:"documents"`
}

// SearchRequest is the request body for POST /api/v1/search.
// AllSessions is refused unless the server allows cross-session search.
type SearchRequest struct {
	Query          string   `json:"query"`
	SessionID      string   `json:"session_id"`
	DocumentIDs    []string `json:"document_ids"`
	Limit          int      `json:"limit"`
	AllSessions    bool     `json:"all_sessions"`
	RequireSession bool     `json:"require_session"`
}

type SearchResponse struct {
	Results []domain.SearchResult `json:"results"`
}

// DocumentSearchRequest is the request body for POST /api/v1/search/documents.
type DocumentSearchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit"`
}

type DocumentSearchResponse struct {
	Documents []domain.DocumentGroup `json:"documents"`
}

// ContextRequest is the request body for POST /api/v1/context.
// Without max_tokens the server's context.max_tokens budget applies; an
// explicit value must be positive.
type ContextRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	MaxTokens *int   `json:"max_tokens,omitempty"`
}

// AnswerRequest is the request body for POST /api/v1/answer.
type AnswerRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}
