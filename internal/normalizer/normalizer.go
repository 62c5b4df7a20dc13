// Package normalizer turns raw text into lowercase word tokens, drops
// stopwords and stems what is left. Everything here is pure.
package normalizer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// MinTermLength is the shortest token kept for frequency and keyword analysis.
const MinTermLength = 3

// Normalize lowercases text, turns punctuation into whitespace and splits it
// into word tokens.
func Normalize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// RemoveStopwords returns the tokens that are not stopwords. The input slice
// is not modified.
func RemoveStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsStopword reports whether a lowercase token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Stem reduces a lowercase token to its Snowball (Porter2) stem.
func Stem(token string) string {
	if len(token) < MinTermLength {
		return token
	}
	return english.Stem(token, false)
}

// Terms runs the full pipeline used for term frequencies: normalize, remove
// stopwords, drop short tokens, stem.
func Terms(text string) []string {
	tokens := RemoveStopwords(Normalize(text))
	out := tokens[:0]
	for _, t := range tokens {
		if len(t) < MinTermLength {
			continue
		}
		out = append(out, Stem(t))
	}
	return out
}

// Words is Terms without stemming. The phrase checks match these against raw
// chunk text, where stems would miss inflected forms.
func Words(text string) []string {
	tokens := RemoveStopwords(Normalize(text))
	out := tokens[:0]
	for _, t := range tokens {
		if len(t) < MinTermLength {
			continue
		}
		out = append(out, t)
	}
	return out
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"i", "me", "my", "we", "our", "you", "your", "he", "him", "his", "she", "her", "they", "them", "their",
		"what", "which", "who", "whom", "when", "where", "why", "how",
		"do", "does", "did", "have", "has", "had", "would", "could", "may", "might", "must", "shall",
		"not", "no", "nor", "all", "any", "both", "each", "few", "more", "most", "other", "some", "only", "also", "there", "here",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
