package chunker

import (
	"regexp"
	"strings"
)

const (
	DefaultSentencesPerChunk = 5
	DefaultOverlapSentences  = 1
)

var sentencePattern = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)

// Sentences splits text on terminal punctuation. Trailing text without a
// terminator is kept as the last sentence.
func Sentences(text string) []string {
	raw := sentencePattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SentenceChunker groups sentences into chunks, repeating the last
// overlapSentences sentences of a chunk at the start of the next one.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	maxChars          int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = DefaultSentencesPerChunk
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

// WithMaxChars closes a chunk early once it reaches n characters. A single
// sentence longer than n still forms its own chunk.
func (c *SentenceChunker) WithMaxChars(n int) *SentenceChunker {
	if n > 0 {
		c.maxChars = n
	}
	return c
}

// Split returns the chunk texts of text in document order.
func (c *SentenceChunker) Split(text string) []string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}
	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i + 1
		size := len(sentences[i])
		for end < len(sentences) && end-i < c.sentencesPerChunk {
			if c.maxChars > 0 && size+1+len(sentences[end]) > c.maxChars {
				break
			}
			size += 1 + len(sentences[end])
			end++
		}
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		next := end - c.overlapSentences
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return chunks
}
