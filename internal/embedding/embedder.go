// Package embedding defines the pluggable vector-embedding capability used to
// replace the lexical signals of the similarity engine when a real model is
// available.
package embedding

import (
	"context"
	"errors"
	"math"

	chromem "github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
)

// Provider converts free text into a vector and compares two vectors.
type Provider interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
	Similarity(a, b []float32) float64
}

// ErrEmptyEmbedding is returned when a backend answers with no vector.
var ErrEmptyEmbedding = errors.New("empty embedding")

// LangchainProvider adapts a langchaingo embedder.
type LangchainProvider struct {
	name     string
	embedder embeddings.Embedder
}

// NewLangchainProvider wraps a langchaingo embedder under the given name.
func NewLangchainProvider(name string, e embeddings.Embedder) *LangchainProvider {
	return &LangchainProvider{name: name, embedder: e}
}

// Name returns the identifier of this provider.
func (p *LangchainProvider) Name() string { return p.name }

// Embed returns the query embedding for text.
func (p *LangchainProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return v, nil
}

// Similarity is the cosine similarity of a and b.
func (p *LangchainProvider) Similarity(a, b []float32) float64 { return Cosine(a, b) }

// FuncProvider adapts a chromem-go embedding function, e.g. the Ollama one.
type FuncProvider struct {
	name string
	fn   chromem.EmbeddingFunc
}

// NewFuncProvider wraps fn under the given name.
func NewFuncProvider(name string, fn chromem.EmbeddingFunc) *FuncProvider {
	return &FuncProvider{name: name, fn: fn}
}

// NewOllamaProvider embeds through a local Ollama server.
func NewOllamaProvider(model, baseURL string) *FuncProvider {
	return NewFuncProvider("ollama", chromem.NewEmbeddingFuncOllama(model, baseURL))
}

// Name returns the identifier of this provider.
func (p *FuncProvider) Name() string { return p.name }

// Embed returns the embedding for text.
func (p *FuncProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := p.fn(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return v, nil
}

// Similarity is the cosine similarity of a and b.
func (p *FuncProvider) Similarity(a, b []float32) float64 { return Cosine(a, b) }

// Cosine returns the cosine similarity of two vectors clamped to [0,1]. Vectors
// of different length or zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
