package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/search"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleIngest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ingest request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sessionID := c.Param("session")
	ctx := c.Request().Context()

	var (
		doc *domain.Document
		err error
	)
	switch {
	case len(req.Chunks) > 0:
		meta := domain.DocumentMetadata{Filename: req.Filename, Extra: req.Metadata}
		doc, err = s.service.IngestDocument(ctx, sessionID, req.DocumentID, req.Chunks, meta)
	case strings.TrimSpace(req.Content) != "":
		doc, err = s.service.IngestText(ctx, sessionID, req.DocumentID, req.Filename, req.Content)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "chunks or content field is required")
	}
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(c echo.Context) error {
	docs := s.service.ListDocuments(c.Param("session"))
	if docs == nil {
		docs = []*domain.Document{}
	}
	return c.JSON(http.StatusOK, DocumentsResponse{Documents: docs})
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	doc, ok := s.service.Document(c.Param("document"))
	if !ok || doc.SessionID != c.Param("session") {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	if err := s.service.DeleteDocument(doc.ID); err != nil {
		return s.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.GetSessionStats(c.Param("session")))
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	s.service.DeleteSession(c.Param("session"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	results, err := s.service.Search(c.Request().Context(), req.Query, search.Options{
		SessionID:      req.SessionID,
		DocumentIDs:    req.DocumentIDs,
		Limit:          req.Limit,
		AllSessions:    req.AllSessions,
		RequireSession: req.RequireSession,
	})
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, SearchResponse{Results: results})
}

func (s *Server) handleDocumentSearch(c echo.Context) error {
	var req DocumentSearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id field is required")
	}
	groups, err := s.service.CrossDocumentSearch(c.Request().Context(), req.Query, req.SessionID, req.Limit)
	if err != nil {
		return s.httpError(err)
	}
	if groups == nil {
		groups = []domain.DocumentGroup{}
	}
	return c.JSON(http.StatusOK, DocumentSearchResponse{Documents: groups})
}

func (s *Server) handleContext(c echo.Context) error {
	var req ContextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id field is required")
	}
	budget := 0
	if req.MaxTokens != nil {
		if *req.MaxTokens <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "max_tokens must be positive")
		}
		budget = *req.MaxTokens
	}
	out, err := s.service.GetRelevantContext(c.Request().Context(), req.Query, req.SessionID, budget)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAnswer(c echo.Context) error {
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id field is required")
	}
	ans, err := s.service.Answer(c.Request().Context(), req.Question, req.SessionID)
	if err != nil {
		return s.httpError(err)
	}
	return c.JSON(http.StatusOK, ans)
}

// httpError maps domain errors to status codes. Unknown errors are logged
// and reported without detail.
func (s *Server) httpError(err error) error {
	var (
		ingestErr *domain.IngestError
		searchErr *domain.SearchError
	)
	switch {
	// a timed-out generator or embedder also wraps its own sentinel
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request timed out")
	case errors.As(err, &ingestErr):
		if errors.Is(err, domain.ErrDocumentExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &searchErr):
		if errors.Is(err, domain.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDocumentMissing):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrGeneration):
		s.logger.Error("generation failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "answer generation failed")
	case errors.Is(err, domain.ErrEmbedding):
		s.logger.Error("embedding failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "embedding backend unavailable")
	default:
		s.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
