package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite clamps to zero", []float32{1, 0}, []float32{-1, 0}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
		{"zero norm", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, s.err
}

func (s stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

func TestLangchainProvider(t *testing.T) {
	p := NewLangchainProvider("openai", stubEmbedder{vec: []float32{0.5, 0.5}})

	v, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, v)
	assert.Equal(t, "openai", p.Name())
	assert.InDelta(t, 1.0, p.Similarity(v, v), 1e-9)
}

func TestLangchainProviderErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewLangchainProvider("x", stubEmbedder{err: boom}).Embed(context.Background(), "q")
	assert.ErrorIs(t, err, boom)

	_, err = NewLangchainProvider("x", stubEmbedder{}).Embed(context.Background(), "q")
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestFuncProvider(t *testing.T) {
	p := NewFuncProvider("fake", func(ctx context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text)), 1}, nil
	})

	v, err := p.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, v)

	empty := NewFuncProvider("empty", func(ctx context.Context, text string) ([]float32, error) { return nil, nil })
	_, err = empty.Embed(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}
