package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ziadkadry99/esg-benchmark/internal/analysiscache"
	"github.com/ziadkadry99/esg-benchmark/internal/audit"
	"github.com/ziadkadry99/esg-benchmark/internal/benchmark"
	"github.com/ziadkadry99/esg-benchmark/internal/config"
	"github.com/ziadkadry99/esg-benchmark/internal/db"
	"github.com/ziadkadry99/esg-benchmark/internal/embeddings"
	"github.com/ziadkadry99/esg-benchmark/internal/llm"
	"github.com/ziadkadry99/esg-benchmark/internal/pdftext"
	"github.com/ziadkadry99/esg-benchmark/internal/standards"
	"github.com/ziadkadry99/esg-benchmark/internal/vectordb"
)

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		preset := config.GetPreset(provider, cfg.Quality)
		model = preset.EmbeddingModel
	}

	switch provider {
	case config.ProviderOllama:
		dims := cfg.EmbeddingDimensions
		if dims <= 0 {
			dims = 1024
		}
		return embeddings.NewOllamaEmbedder(model, dims, cfg.EmbeddingBaseURL), nil
	default:
		// Providers without native embeddings fall back to OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings (embedding provider %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model), cfg.EmbeddingBaseURL), nil
	}
}

// createLLMProviderFromConfig creates a rate-limited, usage-tracked provider.
func createLLMProviderFromConfig(cfg *config.Config) (*llm.UsageTracker, error) {
	p, err := llm.NewProvider(llm.Options{
		Provider:  string(cfg.Provider),
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		RateLimit: cfg.RateLimitRPM,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewUsageTracker(p, cfg.Model), nil
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `esgbench init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Output always goes to stderr so the
// MCP transport keeps stdout.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// app holds everything a command needs to run analyses.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *db.DB
	journal  *audit.Store
	cache    *analysiscache.Cache
	embedder embeddings.Embedder
	indexes  *vectordb.Cache
	usage    *llm.UsageTracker
	service  *benchmark.Service
}

// openApp wires the benchmark service from config.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: database, journal: audit.NewStore(database)}

	var backend analysiscache.Backend
	switch cfg.Cache.Backend {
	case config.CacheSQLite:
		backend = analysiscache.NewSQLiteBackend(database)
	default:
		backend = analysiscache.NewJSONBackend(cfg.CachePath())
	}
	a.cache, err = analysiscache.New(ctx, backend, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading analysis cache: %w", err)
	}

	a.embedder, err = createEmbedderFromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	a.usage, err = createLLMProviderFromConfig(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	a.indexes = vectordb.NewCache(vectordb.CacheOptions{
		Dir:          cfg.VectorPath(),
		LegacyDir:    cfg.LegacyDir,
		Embedder:     a.embedder,
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
		Logger:       logger,
	})

	a.service, err = benchmark.New(benchmark.Config{
		Extractor: pdftext.NewPDFExtractor(),
		Indexes:   a.indexes,
		LLM:       a.usage,
		Cache:     a.cache,
		Journal:   a.journal,
		Logger:    logger,
		Retrieval: benchmark.Retrieval{
			ExtractTopK:    cfg.Retrieval.ExtractTopK,
			FallbackTopK:   cfg.Retrieval.FallbackTopK,
			KeywordTopK:    cfg.Retrieval.KeywordTopK,
			SourcePageDocs: cfg.Retrieval.SourcePageDocs,
		},
		Model:          cfg.Model,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		MaxConcurrency: cfg.MaxConcurrency,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// classifier builds the disclosure classifier on the app's providers.
func (a *app) classifier() (*standards.Classifier, error) {
	return standards.NewClassifier(standards.ClassifierConfig{
		Embedder:    a.embedder,
		LLM:         a.usage,
		Journal:     a.journal,
		Logger:      a.logger,
		Model:       a.cfg.Model,
		ShortlistK:  a.cfg.Classifier.ShortlistK,
		Concurrency: a.cfg.MaxConcurrency,
	})
}

// printUsage reports token spend when verbose.
func (a *app) printUsage() {
	if !verbose || a.usage == nil {
		return
	}
	u := a.usage.Snapshot()
	fmt.Fprintf(os.Stderr, "\nLLM usage: %d call(s), %d failed, %d in / %d out tokens, ~$%.4f\n",
		u.Calls, u.Failures, u.InputTokens, u.OutputTokens, u.CostUSD)
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
