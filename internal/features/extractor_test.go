package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"docqa/internal/domain"
	"docqa/internal/normalizer"
)

func TestExtractTermFrequency(t *testing.T) {
	rec := NewExtractor().Extract("Docker builds images. Docker runs containers, and the containers are small.")

	assert.Equal(t, 2, rec.TermFreq[normalizer.Stem("docker")])
	assert.Equal(t, 2, rec.TermFreq[normalizer.Stem("containers")])
	assert.NotContains(t, rec.TermFreq, "the")
	assert.NotContains(t, rec.TermFreq, "and")
}

func TestExtractEmptyText(t *testing.T) {
	rec := NewExtractor().Extract("")

	assert.Empty(t, rec.TermFreq)
	assert.Empty(t, rec.Keywords)
	assert.Zero(t, rec.Sentiment)
	assert.True(t, rec.Empty())
}

func TestKeywordsOrdering(t *testing.T) {
	rec := NewExtractor().Extract("zebra apple zebra mango apple zebra kiwi")

	require.GreaterOrEqual(t, len(rec.Keywords), 3)
	assert.Equal(t, normalizer.Stem("zebra"), rec.Keywords[0])
	assert.Equal(t, normalizer.Stem("apple"), rec.Keywords[1])
	// mango and kiwi tie on frequency; first occurrence wins
	assert.Equal(t, normalizer.Stem("mango"), rec.Keywords[2])
}

func TestKeywordsExcludeShortStems(t *testing.T) {
	rec := NewExtractor().Extract("key cat dog elephant")

	assert.Equal(t, []string{normalizer.Stem("elephant")}, rec.Keywords)
}

func TestKeywordCountLimit(t *testing.T) {
	e := NewExtractor(WithKeywordCount(2))
	rec := e.Extract("alpha bravo charlie delta echoes foxtrot")

	assert.Len(t, rec.Keywords, 2)
}

func TestDetectFlags(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, text string)
	}{
		{"question", "Why does it fail?", func(t *testing.T, text string) { assert.True(t, DetectFlags(text).HasQuestion) }},
		{"definition", "Kubernetes is an orchestrator.", func(t *testing.T, text string) { assert.True(t, DetectFlags(text).HasDefinition) }},
		{"refers to", "Latency refers to delay.", func(t *testing.T, text string) { assert.True(t, DetectFlags(text).HasDefinition) }},
		{"example", "Languages such as Go and Rust.", func(t *testing.T, text string) { assert.True(t, DetectFlags(text).HasExample) }},
		{"comparison", "Go versus Rust.", func(t *testing.T, text string) { assert.True(t, DetectFlags(text).HasComparison) }},
		{"process", "The first step is to build.", func(t *testing.T, text string) { assert.True(t, DetectFlags(text).HasProcess) }},
		{"causal", "It failed because of a timeout.", func(t *testing.T, text string) { assert.True(t, DetectFlags(text).HasCausal) }},
		{"none", "Key tools include Jenkins and Docker.", func(t *testing.T, text string) {
			for _, f := range DetectFlags(text).Slice() {
				assert.False(t, f)
			}
		}},
		{"no partial word match", "This island thesis", func(t *testing.T, text string) { assert.False(t, DetectFlags(text).HasDefinition) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, tt.text) })
	}
}

func TestSentimentIsNotLengthNormalised(t *testing.T) {
	short := Sentiment(normalizer.Normalize("great"))
	long := Sentiment(normalizer.Normalize("great " + "word word word word word word word word"))

	assert.Equal(t, 1, short)
	assert.Equal(t, short, long)
	assert.Equal(t, -2, Sentiment(normalizer.Normalize("slow and broken")))
	assert.Equal(t, 0, Sentiment(normalizer.Normalize("good but bad")))
}

func TestEntities(t *testing.T) {
	rec := NewExtractor().Extract("Key tools include Jenkins and Docker.")
	assert.Equal(t, 2, rec.Entities)

	rec = NewExtractor().Extract("DevOps combines development and operations.")
	assert.Equal(t, 0, rec.Entities)
}

func TestExtractRecoversFromPanic(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewExtractor(WithLogger(zap.New(core)))
	e.probe = func(string) { panic("boom") }

	var rec any
	require.NotPanics(t, func() { rec = e.Extract("some text") })

	got := rec.(domain.FeatureRecord)
	assert.Empty(t, got.TermFreq)
	assert.Empty(t, got.Keywords)
	assert.Zero(t, got.Sentiment)
	assert.Equal(t, 1, logs.FilterMessage("feature extraction failed, using empty record").Len())
}
