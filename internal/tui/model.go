package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/normalizer"
	"docqa/internal/search"
)

const resultLimit = 10

// RAGPort is the TUI-facing subset of the RAG service.
type RAGPort interface {
	Search(ctx context.Context, query string, opts search.Options) ([]domain.SearchResult, error)
	Answer(ctx context.Context, question, sessionID string) (domain.Answer, error)
	GetSessionStats(sessionID string) domain.SessionStats
	Document(documentID string) (*domain.Document, bool)
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   RAGPort
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.SearchResult
	answer    *domain.Answer
	summary   string
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model over one session.
func New(service RAGPort, sessionID, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a query; Enter searches, Ctrl+A answers"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	st := service.GetSessionStats(sessionID)
	status := fmt.Sprintf("Loaded %d documents, %d chunks. Type to search.", st.DocumentCount, st.ChunkCount)
	return Model{service: service, sessionID: sessionID, input: ti, viewport: vp, summary: summary, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m.runSearch(q)
				return m, nil
			}
		case "ctrl+a":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m.runAnswer(q)
				return m, nil
			}
		case "down":
			if len(m.results) > 0 && m.answer == nil {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 && m.answer == nil {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runSearch(q string) {
	res, err := m.service.Search(context.Background(), q, search.Options{SessionID: m.sessionID, Limit: resultLimit})
	m.answer = nil
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
	} else {
		m.status = fmt.Sprintf("%d results for %q", len(res), q)
		m.results = res
		m.cursor = 0
		m.lastQuery = q
	}
	m.viewport.SetContent(m.renderCurrent())
}

func (m *Model) runAnswer(q string) {
	ans, err := m.service.Answer(context.Background(), q, m.sessionID)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.answer = nil
	} else {
		m.status = fmt.Sprintf("Answer for %q from %d sources", q, len(ans.Sources))
		m.answer = &ans
		m.lastQuery = q
	}
	m.viewport.SetContent(m.renderCurrent())
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Q&A")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if m.answer != nil {
		return m.renderAnswer()
	}
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	name := r.Chunk.DocumentID
	if doc, ok := m.service.Document(r.Chunk.DocumentID); ok && doc.Metadata.Filename != "" {
		name = doc.Metadata.Filename
	}
	title := fmt.Sprintf("Result %d/%d  %s#%d  score=%.3f", m.cursor+1, len(m.results), name, r.Chunk.Index, r.Similarity)
	body := highlightBestSentence(r.Chunk.Text, m.lastQuery)
	return title + "\n\n" + body
}

func (m Model) renderAnswer() string {
	var b strings.Builder
	b.WriteString(m.answer.Text)
	if len(m.answer.Sources) > 0 {
		b.WriteString("\n\nSources:")
		for i, src := range m.answer.Sources {
			fmt.Fprintf(&b, "\n[%d] %s#%d (%.2f)", i+1, src.Filename, src.ChunkIndex, src.Similarity)
		}
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestSentence emphasises the sentence sharing the most stemmed
// terms with the query.
func highlightBestSentence(text, query string) string {
	sentences := chunker.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	qTerms := termSet(query)
	if len(qTerms) == 0 {
		return strings.Join(sentences, " ")
	}
	best, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(qTerms, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	sentences[best] = highlightStyle.Render(sentences[best])
	return strings.Join(sentences, " ")
}

func termSet(s string) map[string]struct{} {
	terms := normalizer.Terms(s)
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

func overlap(query map[string]struct{}, sentence string) int {
	score := 0
	for t := range termSet(sentence) {
		if _, ok := query[t]; ok {
			score++
		}
	}
	return score
}
