package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/search"
)

type fakePort struct {
	results   []domain.SearchResult
	answer    domain.Answer
	err       error
	lastOpts  search.Options
	questions []string
}

func (f *fakePort) Search(_ context.Context, _ string, opts search.Options) ([]domain.SearchResult, error) {
	f.lastOpts = opts
	return f.results, f.err
}

func (f *fakePort) Answer(_ context.Context, q, _ string) (domain.Answer, error) {
	f.questions = append(f.questions, q)
	return f.answer, f.err
}

func (f *fakePort) GetSessionStats(string) domain.SessionStats {
	return domain.SessionStats{DocumentCount: 2, ChunkCount: 5}
}

func (f *fakePort) Document(id string) (*domain.Document, bool) {
	return &domain.Document{ID: id, Metadata: domain.DocumentMetadata{Filename: id + ".txt"}}, true
}

func typeText(m tea.Model, s string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func newSizedModel(port *fakePort) tea.Model {
	var m tea.Model = New(port, "cli", "summary line")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func TestNewShowsSessionStats(t *testing.T) {
	m := New(&fakePort{}, "cli", "")
	assert.Contains(t, m.status, "2 documents, 5 chunks")
	assert.Equal(t, "Loading...", m.View())
}

func TestEnterRunsSessionScopedSearch(t *testing.T) {
	port := &fakePort{results: []domain.SearchResult{
		{Chunk: &domain.Chunk{DocumentID: "ops", Index: 1, Text: "DevOps is culture. Key tools include Jenkins."}, Similarity: 0.7},
		{Chunk: &domain.Chunk{DocumentID: "ops", Index: 0, Text: "Another chunk."}, Similarity: 0.3},
	}}
	m := typeText(newSizedModel(port), "jenkins tools")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	model := m.(Model)
	assert.Equal(t, "cli", port.lastOpts.SessionID)
	assert.Equal(t, resultLimit, port.lastOpts.Limit)
	assert.Len(t, model.results, 2)
	assert.Contains(t, model.status, "2 results")
	assert.Contains(t, model.renderCurrent(), "ops.txt#1")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.(Model).cursor)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.(Model).cursor)
	assert.Contains(t, m.View(), "Document Q&A")
}

func TestSearchError(t *testing.T) {
	port := &fakePort{err: errors.New("boom")}
	m := typeText(newSizedModel(port), "query")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Error: boom", m.(Model).status)
	assert.Empty(t, m.(Model).results)
}

func TestCtrlAShowsAnswer(t *testing.T) {
	port := &fakePort{answer: domain.Answer{
		Text:    "Jenkins and Docker [1]",
		Found:   true,
		Sources: []domain.Source{{DocumentID: "ops", Filename: "ops.txt", ChunkIndex: 1, Similarity: 0.61}},
	}}
	m := typeText(newSizedModel(port), "which tools?")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})

	require.Equal(t, []string{"which tools?"}, port.questions)
	out := m.(Model).renderCurrent()
	assert.Contains(t, out, "Jenkins and Docker [1]")
	assert.Contains(t, out, "[1] ops.txt#1 (0.61)")
}

func TestQuitKeys(t *testing.T) {
	_, cmd := newSizedModel(&fakePort{}).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Intro sentence. Jenkins builds code.", "jenkins")
	assert.Contains(t, out, "Intro sentence.")
	assert.Contains(t, out, "Jenkins builds code.")
	assert.Equal(t, "plain", highlightBestSentence("plain", ""))
}
