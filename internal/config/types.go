package config

// QualityTier picks a model preset, trading cost for answer quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// CacheBackend selects where company analyses are persisted.
type CacheBackend string

const (
	CacheJSON   CacheBackend = "json"
	CacheSQLite CacheBackend = "sqlite"
)

// Config is the top-level esgbench configuration, corresponding to .esgbench.yml.
type Config struct {
	Provider            ProviderType `yaml:"provider" koanf:"provider"`
	Model               string       `yaml:"model" koanf:"model"`
	BaseURL             string       `yaml:"base_url,omitempty" koanf:"base_url"`
	Quality             QualityTier  `yaml:"quality" koanf:"quality"`
	EmbeddingProvider   ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel      string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingBaseURL    string       `yaml:"embedding_base_url,omitempty" koanf:"embedding_base_url"`
	EmbeddingDimensions int          `yaml:"embedding_dimensions,omitempty" koanf:"embedding_dimensions"`
	Temperature         float64      `yaml:"temperature" koanf:"temperature"`
	MaxTokens           int          `yaml:"max_tokens" koanf:"max_tokens"`
	RateLimitRPM        int          `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`

	// DataDir is the root for every path left empty below.
	DataDir    string `yaml:"data_dir" koanf:"data_dir"`
	VectorDir  string `yaml:"vector_dir,omitempty" koanf:"vector_dir"`
	LegacyDir  string `yaml:"legacy_dir,omitempty" koanf:"legacy_dir"`
	UploadsDir string `yaml:"uploads_dir,omitempty" koanf:"uploads_dir"`
	DBPath     string `yaml:"db_path,omitempty" koanf:"db_path"`

	Cache          CacheConfig      `yaml:"cache" koanf:"cache"`
	Retrieval      RetrievalConfig  `yaml:"retrieval" koanf:"retrieval"`
	Chunking       ChunkingConfig   `yaml:"chunking" koanf:"chunking"`
	Classifier     ClassifierConfig `yaml:"classifier" koanf:"classifier"`
	MaxConcurrency int              `yaml:"max_concurrency" koanf:"max_concurrency"`
	Server         ServerConfig     `yaml:"server" koanf:"server"`
	Log            LogConfig        `yaml:"log" koanf:"log"`
}

// CacheConfig controls the company analysis cache.
type CacheConfig struct {
	Backend CacheBackend `yaml:"backend" koanf:"backend"`
	// Path of the JSON store. Ignored by the sqlite backend.
	Path  string `yaml:"path,omitempty" koanf:"path"`
	Watch bool   `yaml:"watch" koanf:"watch"`
}

// RetrievalConfig holds the top-K values used against a report index.
type RetrievalConfig struct {
	ExtractTopK    int `yaml:"extract_top_k" koanf:"extract_top_k"`
	FallbackTopK   int `yaml:"fallback_top_k" koanf:"fallback_top_k"`
	KeywordTopK    int `yaml:"keyword_top_k" koanf:"keyword_top_k"`
	SourcePageDocs int `yaml:"source_page_docs" koanf:"source_page_docs"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

type ClassifierConfig struct {
	ShortlistK int `yaml:"shortlist_k" koanf:"shortlist_k"`
}

type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
