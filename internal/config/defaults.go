package config

import "path/filepath"

// DefaultPath is where init writes the configuration.
const DefaultPath = ".esgbench.yml"

// QualityPreset describes the models to use for a given quality tier.
type QualityPreset struct {
	Model          string
	EmbeddingModel string
}

// qualityPresets maps each provider+quality combination to its model choices.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderAnthropic: {
		QualityLite:   {Model: "claude-haiku-4-5-20251001", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-large"},
		QualityMax:    {Model: "claude-opus-4-1-20250805", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
		QualityNormal: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-large"},
		QualityMax:    {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-large"},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3", EmbeddingModel: "bge-m3"},
		QualityNormal: {Model: "llama3", EmbeddingModel: "bge-m3"},
		QualityMax:    {Model: "llama3:70b", EmbeddingModel: "bge-m3"},
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		Quality:           QualityNormal,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-large",
		Temperature:       0,
		MaxTokens:         1000,
		DataDir:           "data",
		Cache: CacheConfig{
			Backend: CacheJSON,
		},
		Retrieval: RetrievalConfig{
			ExtractTopK:    70,
			FallbackTopK:   50,
			KeywordTopK:    50,
			SourcePageDocs: 10,
		},
		Chunking: ChunkingConfig{
			Size:    2000,
			Overlap: 200,
		},
		Classifier: ClassifierConfig{
			ShortlistK: 3,
		},
		MaxConcurrency: 4,
		Server: ServerConfig{
			Port: 8000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal OpenAI preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderOpenAI][QualityNormal]
}

// VectorPath is the root for indexes built by this service.
func (c *Config) VectorPath() string {
	return c.under(c.VectorDir, "vectorstore")
}

// UploadsPath is where report PDFs are stored.
func (c *Config) UploadsPath() string {
	return c.under(c.UploadsDir, "uploads")
}

// CachePath is the JSON analysis store.
func (c *Config) CachePath() string {
	return c.under(c.Cache.Path, "benchmark_cache.json")
}

// DatabasePath is the SQLite file holding the run journal and, with the
// sqlite backend, company analyses.
func (c *Config) DatabasePath() string {
	return c.under(c.DBPath, "esgbench.db")
}

func (c *Config) under(explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(c.DataDir, name)
}
