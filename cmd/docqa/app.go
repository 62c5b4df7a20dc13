package main

import (
	"fmt"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/contextbuilder"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/features"
	"docqa/internal/generation"
	"docqa/internal/metrics"
	"docqa/internal/search"
	"docqa/internal/service"
	"docqa/internal/similarity"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore/memory"
)

// buildService assembles every component selected by cfg.
func buildService(cfg *config.AppConfig, logger *zap.Logger) (*service.RAGService, error) {
	provider, err := newEmbeddingProvider(cfg.Embedder)
	if err != nil {
		return nil, err
	}

	var ch domain.Chunker
	switch cfg.Chunker.Type {
	case "sentence", "":
		ch = chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences).
			WithMaxChars(cfg.Chunker.MaxChars)
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Chunker.Type)
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	gen, err := newGenerator(cfg.Generator)
	if err != nil {
		return nil, err
	}

	extractor := features.NewExtractor(
		features.WithKeywordCount(cfg.Features.KeywordCount),
		features.WithLogger(logger.Named("features")),
	)
	storeOpts := []memory.Option{memory.WithWorkers(cfg.Store.Workers), memory.WithLogger(logger.Named("store"))}
	engineOpts := []similarity.Option{similarity.WithWeights(cfg.Weights()), similarity.WithLogger(logger.Named("similarity"))}
	if provider != nil {
		storeOpts = append(storeOpts, memory.WithProvider(provider))
		engineOpts = append(engineOpts, similarity.WithProvider(provider))
	}
	store := memory.NewStorage(extractor, storeOpts...)
	engine, err := similarity.NewEngine(extractor, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("similarity engine: %w", err)
	}

	coordinator := search.NewCoordinator(store, engine,
		search.WithThreshold(cfg.Search.Threshold),
		search.WithDefaultLimit(cfg.Search.DefaultLimit),
		search.WithInflation(cfg.Search.Inflation),
		search.WithCrossSession(cfg.Search.AllowCrossSession),
		search.WithLogger(logger.Named("search")),
	)
	assembler := contextbuilder.NewAssembler(func(id string) string {
		if doc, ok := store.GetDocument(id); ok && doc.Metadata.Filename != "" {
			return doc.Metadata.Filename
		}
		return id
	}, contextbuilder.WithMaxTokens(cfg.Context.MaxTokens), contextbuilder.WithLogger(logger.Named("context")))

	return service.NewRAGService(store, coordinator, assembler,
		service.WithChunker(ch),
		service.WithSummarizer(sum, cfg.Summarizer.MaxSentences),
		service.WithGenerator(gen),
		service.WithMetrics(metrics.New()),
		service.WithLogger(logger.Named("service")),
	), nil
}

func newEmbeddingProvider(cfg config.EmbedderConfig) (embedding.Provider, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "openai":
		opts := []openai.Option{openai.WithEmbeddingModel(cfg.Model), openai.WithToken(apiKey(cfg.APIKeyEnv))}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI client: %w", err)
		}
		e, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
		return embedding.NewLangchainProvider("openai:"+cfg.Model, e), nil
	case "ollama":
		return embedding.NewOllamaProvider(cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func newGenerator(cfg config.GeneratorConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "static", "":
		return generation.Static{}, nil
	case "openai":
		return generation.NewOpenAI(cfg.Model, cfg.BaseURL, apiKey(cfg.APIKeyEnv), cfg.Timeout)
	case "ollama":
		return generation.NewOllama(cfg.Model, cfg.BaseURL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Type)
	}
}

func apiKey(env string) string {
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return "placeholder"
}
