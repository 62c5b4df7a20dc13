package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/similarity"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, similarity.DefaultWeights(), cfg.Weights())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := writeConfig(t, `
search:
  threshold: 0.2
  allow_cross_session: true
scoring:
  recency_window: 72h
chunker:
  sentences_per_chunk: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Search.Threshold)
	assert.True(t, cfg.Search.AllowCrossSession)
	assert.Equal(t, 72*time.Hour, cfg.Scoring.RecencyWindow)
	assert.Equal(t, 3, cfg.Chunker.SentencesPerChunk)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 1, cfg.Chunker.OverlapSentences)
	assert.Equal(t, "sentence", cfg.Chunker.Type)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "search:\n  threshold: 0.2\n")
	t.Setenv("DOCQA_SEARCH_THRESHOLD", "0.35")
	t.Setenv("DOCQA_SERVER_PORT", "9191")
	t.Setenv("DOCQA_SEARCH_ALLOW_CROSS_SESSION", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.35, cfg.Search.Threshold)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.True(t, cfg.Search.AllowCrossSession)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"threshold":   "search:\n  threshold: 1.5\n",
		"weights":     "scoring:\n  lexical: 0.9\n  keyword: 0.9\n",
		"embedder":    "embedder:\n  type: magic\n",
		"generator":   "generator:\n  type: oracle\n",
		"port":        "server:\n  port: 70000\n",
		"log format":  "logging:\n  format: xml\n",
		"broken yaml": "search: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Search.Threshold = 0.15
	cfg.Generator.Type = "ollama"
	cfg.Generator.Model = "llama3"
	cfg.Scoring.RecencyWindow = 48 * time.Hour

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "docqa", "config.yaml"), path)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, path)
}

func TestLoadDefaultPrefersWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("context:\n  max_tokens: 512\n"), 0o600))

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", path)
	assert.Equal(t, 512, cfg.Context.MaxTokens)
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", Default().Server.Addr())
}
