package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "   ", []string{}},
		{"terminated", "One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"trailing fragment", "First sentence. no terminator", []string{"First sentence.", "no terminator"}},
		{"ellipsis", "Wait... what?", []string{"Wait...", "what?"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.in))
		})
	}
}

func TestSplitWithOverlap(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	got := c.Split("A one. B two. C three. D four.")
	assert.Equal(t, []string{
		"A one. B two.",
		"B two. C three.",
		"C three. D four.",
	}, got)
}

func TestSplitWithoutOverlap(t *testing.T) {
	c := NewSentenceChunker(2, 0)
	got := c.Split("A. B. C.")
	assert.Equal(t, []string{"A. B.", "C."}, got)
}

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, NewSentenceChunker(3, 1).Split(""))
}

func TestSplitOverlapIsBounded(t *testing.T) {
	// overlap >= size would never advance; it is clamped.
	c := NewSentenceChunker(2, 5)
	got := c.Split("A. B. C.")
	assert.Equal(t, []string{"A. B.", "B. C."}, got)
}

func TestSplitMaxChars(t *testing.T) {
	c := NewSentenceChunker(10, 0).WithMaxChars(12)
	got := c.Split("Short one. Short two. A much longer sentence here.")
	assert.Equal(t, []string{"Short one.", "Short two.", "A much longer sentence here."}, got)
}
