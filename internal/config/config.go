// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"docqa/internal/logging"
	"docqa/internal/similarity"
)

// EnvPrefix marks environment variables that override file values:
// DOCQA_SEARCH_THRESHOLD -> search.threshold.
const EnvPrefix = "DOCQA_"

// ChunkerConfig configures how raw text is split into chunks.
type ChunkerConfig struct {
	Type              string `koanf:"type" yaml:"type"`
	SentencesPerChunk int    `koanf:"sentences_per_chunk" yaml:"sentences_per_chunk"`
	OverlapSentences  int    `koanf:"overlap_sentences" yaml:"overlap_sentences"`
	MaxChars          int    `koanf:"max_chars" yaml:"max_chars"`
}

// EmbedderConfig selects an optional embedding provider. "none" keeps the
// lexical scoring signals.
type EmbedderConfig struct {
	Type      string `koanf:"type" yaml:"type"`
	Model     string `koanf:"model" yaml:"model"`
	BaseURL   string `koanf:"base_url" yaml:"base_url"`
	APIKeyEnv string `koanf:"api_key_env" yaml:"api_key_env"`
}

// GeneratorConfig selects the answer generator.
type GeneratorConfig struct {
	Type      string        `koanf:"type" yaml:"type"`
	Model     string        `koanf:"model" yaml:"model"`
	BaseURL   string        `koanf:"base_url" yaml:"base_url"`
	APIKeyEnv string        `koanf:"api_key_env" yaml:"api_key_env"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `koanf:"type" yaml:"type"`
	MaxSentences int    `koanf:"max_sentences" yaml:"max_sentences"`
}

type SearchConfig struct {
	Threshold         float64 `koanf:"threshold" yaml:"threshold"`
	DefaultLimit      int     `koanf:"default_limit" yaml:"default_limit"`
	Inflation         int     `koanf:"inflation" yaml:"inflation"`
	AllowCrossSession bool    `koanf:"allow_cross_session" yaml:"allow_cross_session"`
}

// ScoringConfig mirrors similarity.Weights.
type ScoringConfig struct {
	Lexical           float64       `koanf:"lexical" yaml:"lexical"`
	Keyword           float64       `koanf:"keyword" yaml:"keyword"`
	Semantic          float64       `koanf:"semantic" yaml:"semantic"`
	FlagShare         float64       `koanf:"flag_share" yaml:"flag_share"`
	PhraseBonus       float64       `koanf:"phrase_bonus" yaml:"phrase_bonus"`
	PartialPhraseMax  float64       `koanf:"partial_phrase_max" yaml:"partial_phrase_max"`
	RecencyMax        float64       `koanf:"recency_max" yaml:"recency_max"`
	RecencyWindow     time.Duration `koanf:"recency_window" yaml:"recency_window"`
	QualityMax        float64       `koanf:"quality_max" yaml:"quality_max"`
	QualitySaturation int           `koanf:"quality_saturation" yaml:"quality_saturation"`
}

type FeaturesConfig struct {
	KeywordCount int `koanf:"keyword_count" yaml:"keyword_count"`
}

type StoreConfig struct {
	Workers int `koanf:"workers" yaml:"workers"`
}

type ContextConfig struct {
	MaxTokens int `koanf:"max_tokens" yaml:"max_tokens"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host" yaml:"host"`
	Port            int           `koanf:"port" yaml:"port"`
	RequestTimeout  time.Duration `koanf:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker    ChunkerConfig    `koanf:"chunker" yaml:"chunker"`
	Embedder   EmbedderConfig   `koanf:"embedder" yaml:"embedder"`
	Generator  GeneratorConfig  `koanf:"generator" yaml:"generator"`
	Summarizer SummarizerConfig `koanf:"summarizer" yaml:"summarizer"`
	Search     SearchConfig     `koanf:"search" yaml:"search"`
	Scoring    ScoringConfig    `koanf:"scoring" yaml:"scoring"`
	Features   FeaturesConfig   `koanf:"features" yaml:"features"`
	Store      StoreConfig      `koanf:"store" yaml:"store"`
	Context    ContextConfig    `koanf:"context" yaml:"context"`
	Server     ServerConfig     `koanf:"server" yaml:"server"`
	Logging    logging.Config   `koanf:"logging" yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	w := similarity.DefaultWeights()
	return &AppConfig{
		Chunker:    ChunkerConfig{Type: "sentence", SentencesPerChunk: 5, OverlapSentences: 1},
		Embedder:   EmbedderConfig{Type: "none"},
		Generator:  GeneratorConfig{Type: "static", Timeout: 60 * time.Second},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 3},
		Search:     SearchConfig{Threshold: 0.1, DefaultLimit: 5, Inflation: 3},
		Scoring: ScoringConfig{
			Lexical:           w.Lexical,
			Keyword:           w.Keyword,
			Semantic:          w.Semantic,
			FlagShare:         w.FlagShare,
			PhraseBonus:       w.PhraseBonus,
			PartialPhraseMax:  w.PartialPhraseMax,
			RecencyMax:        w.RecencyMax,
			RecencyWindow:     w.RecencyWindow,
			QualityMax:        w.QualityMax,
			QualitySaturation: w.QualitySaturation,
		},
		Features: FeaturesConfig{KeywordCount: 10},
		Store:    StoreConfig{Workers: 4},
		Context:  ContextConfig{MaxTokens: 2000},
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8080, RequestTimeout: 30 * time.Second, ShutdownTimeout: 10 * time.Second},
		Logging:  logging.DefaultConfig(),
	}
}

// Weights converts the scoring section for the similarity engine.
func (c *AppConfig) Weights() similarity.Weights {
	s := c.Scoring
	return similarity.Weights{
		Lexical:           s.Lexical,
		Keyword:           s.Keyword,
		Semantic:          s.Semantic,
		FlagShare:         s.FlagShare,
		PhraseBonus:       s.PhraseBonus,
		PartialPhraseMax:  s.PartialPhraseMax,
		RecencyMax:        s.RecencyMax,
		RecencyWindow:     s.RecencyWindow,
		QualityMax:        s.QualityMax,
		QualitySaturation: s.QualitySaturation,
	}
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Chunker.Type {
	case "sentence":
	default:
		errs = append(errs, fmt.Errorf("chunker.type: unknown %q", c.Chunker.Type))
	}
	if c.Chunker.SentencesPerChunk <= 0 {
		errs = append(errs, errors.New("chunker.sentences_per_chunk must be > 0"))
	}
	switch c.Embedder.Type {
	case "none", "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("embedder.type: unknown %q", c.Embedder.Type))
	}
	switch c.Generator.Type {
	case "static", "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("generator.type: unknown %q", c.Generator.Type))
	}
	switch c.Summarizer.Type {
	case "frequency", "none":
	default:
		errs = append(errs, fmt.Errorf("summarizer.type: unknown %q", c.Summarizer.Type))
	}
	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		errs = append(errs, fmt.Errorf("search.threshold must be in [0,1], got %v", c.Search.Threshold))
	}
	if c.Search.DefaultLimit <= 0 {
		errs = append(errs, errors.New("search.default_limit must be > 0"))
	}
	if c.Search.Inflation <= 0 {
		errs = append(errs, errors.New("search.inflation must be > 0"))
	}
	if err := c.Weights().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring: %w", err))
	}
	if c.Features.KeywordCount <= 0 {
		errs = append(errs, errors.New("features.keyword_count must be > 0"))
	}
	if c.Context.MaxTokens <= 0 {
		errs = append(errs, errors.New("context.max_tokens must be > 0"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	return errors.Join(errs...)
}

// Load reads a config from path, applies DOCQA_ environment overrides and
// validates the result. A missing file yields the defaults plus overrides.
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey maps DOCQA_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err != nil {
		if err := Save(userPath, Default()); err != nil {
			return nil, "", err
		}
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath is ~/.config/docqa/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}
