package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "punctuation becomes whitespace", in: "Hello, World! It's-fine.", want: []string{"hello", "world", "it", "s", "fine"}},
		{name: "digits kept", in: "xyz123 v2", want: []string{"xyz123", "v2"}},
		{name: "only punctuation", in: "?!...", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemoveStopwords(t *testing.T) {
	in := []string{"what", "tools", "are", "used", "in", "devops"}
	got := RemoveStopwords(in)

	assert.Equal(t, []string{"tools", "used", "devops"}, got)
	assert.Len(t, in, 6, "input must not be modified")
}

func TestStem(t *testing.T) {
	assert.Equal(t, Stem("tool"), Stem("tools"))
	assert.Equal(t, Stem("run"), Stem("running"))
	assert.Equal(t, "an", Stem("an"), "short tokens are returned as-is")
}

func TestTermsDropsShortTokens(t *testing.T) {
	got := Terms("Go is an ok language for AI and ML tools")

	assert.NotContains(t, got, "go")
	assert.NotContains(t, got, "ok")
	assert.NotContains(t, got, "ai")
	assert.Contains(t, got, Stem("tools"))
	assert.Contains(t, got, Stem("language"))
}

func TestTermsIsDeterministic(t *testing.T) {
	text := "Key tools include Jenkins and Docker."
	assert.Equal(t, Terms(text), Terms(text))
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"tools", "used", "devops"}, Words("What tools are used in DevOps?"))
	assert.Empty(t, Words(""))
}
