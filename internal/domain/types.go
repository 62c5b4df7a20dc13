package domain

import "time"

// DocumentMetadata describes an uploaded document.
type DocumentMetadata struct {
	Filename   string            `json:"filename"`
	UploadedAt time.Time         `json:"uploaded_at"`
	Summary    string            `json:"summary,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// DocumentStats are derived when a document is published to the store.
type DocumentStats struct {
	ChunkCount      int `json:"chunk_count"`
	CharCount       int `json:"char_count"`
	EstimatedTokens int `json:"estimated_tokens"`
}

// Document is the logical grouping of chunks sharing a document id.
type Document struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Metadata  DocumentMetadata `json:"metadata"`
	Stats     DocumentStats    `json:"stats"`
}

// SemanticFlags are cheap pattern tests over the raw text.
type SemanticFlags struct {
	HasQuestion   bool `json:"has_question"`
	HasDefinition bool `json:"has_definition"`
	HasExample    bool `json:"has_example"`
	HasComparison bool `json:"has_comparison"`
	HasProcess    bool `json:"has_process"`
	HasCausal     bool `json:"has_causal"`
}

// Slice returns the flags in a fixed order.
func (f SemanticFlags) Slice() []bool {
	return []bool{f.HasQuestion, f.HasDefinition, f.HasExample, f.HasComparison, f.HasProcess, f.HasCausal}
}

// FeatureRecord is the derived representation of a text used for scoring.
type FeatureRecord struct {
	TermFreq  map[string]int `json:"term_freq"`
	Keywords  []string       `json:"keywords"`
	Flags     SemanticFlags  `json:"flags"`
	Sentiment int            `json:"sentiment"`
	// Entities counts capitalised tokens that do not start a sentence.
	Entities int `json:"entities"`
}

// Empty reports whether the record carries no lexical content.
func (f FeatureRecord) Empty() bool {
	return len(f.TermFreq) == 0 && len(f.Keywords) == 0
}

// Chunk is a bounded slice of a document's text. Chunks are immutable once
// published to a store.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	SessionID  string        `json:"session_id"`
	Index      int           `json:"index"`
	Text       string        `json:"text"`
	Features   FeatureRecord `json:"-"`
	Embedding  []float32     `json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	// Seq is the global insertion order, used to break score ties.
	Seq uint64 `json:"-"`
}

// ScoreFactors lists every sub-score that went into a similarity value.
type ScoreFactors struct {
	Lexical   float64 `json:"lexical"`
	Keyword   float64 `json:"keyword"`
	Embedding float64 `json:"embedding,omitempty"`
	Phrase    float64 `json:"phrase"`
	Semantic  float64 `json:"semantic"`
	Recency   float64 `json:"recency"`
	Quality   float64 `json:"quality"`
}

// SearchResult represents a matching chunk with a relevance score in [0,1].
type SearchResult struct {
	Chunk      *Chunk       `json:"chunk"`
	Similarity float64      `json:"similarity"`
	Factors    ScoreFactors `json:"factors"`
}

// DocumentGroup aggregates chunk-level results of one document.
type DocumentGroup struct {
	DocumentID    string         `json:"document_id"`
	Filename      string         `json:"filename"`
	Results       []SearchResult `json:"results"`
	AvgSimilarity float64        `json:"avg_similarity"`
	MaxSimilarity float64        `json:"max_similarity"`
	ChunkCount    int            `json:"chunk_count"`
	Relevance     float64        `json:"relevance"`
}

// ContextOutcome tells callers why a context is (or is not) empty.
type ContextOutcome string

const (
	OutcomeOK             ContextOutcome = "ok"
	OutcomeNoCandidates   ContextOutcome = "no_candidates"
	OutcomeBelowThreshold ContextOutcome = "below_threshold"
	OutcomeOverBudget     ContextOutcome = "over_budget"
)

// Source attributes a piece of assembled context to its origin.
type Source struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Similarity float64 `json:"similarity"`
	Snippet    string  `json:"snippet"`
}

// Context is a size-bounded blob of retrieved text ready for generation.
type Context struct {
	Text            string         `json:"text"`
	Sources         []Source       `json:"sources"`
	Outcome         ContextOutcome `json:"outcome"`
	EstimatedTokens int            `json:"estimated_tokens"`
}

// Found reports whether any content was assembled.
func (c Context) Found() bool { return c.Outcome == OutcomeOK && len(c.Sources) > 0 }

// SessionStats summarises a session's documents.
type SessionStats struct {
	DocumentCount   int `json:"document_count"`
	ChunkCount      int `json:"chunk_count"`
	EstimatedTokens int `json:"estimated_tokens"`
}

// Answer is the result of a grounded question.
type Answer struct {
	Question string   `json:"question"`
	Text     string   `json:"text"`
	Sources  []Source `json:"sources"`
	Found    bool     `json:"found"`
}

// EstimateTokens approximates a token count as ceil(chars/4).
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}
