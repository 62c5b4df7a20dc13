package domain

import "context"

// Chunker splits raw document text into chunk texts suitable for indexing.
type Chunker interface {
	Split(text string) []string
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Generator is the opaque text completion capability used for answers.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
