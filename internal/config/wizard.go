package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to esgbench! Let's configure the benchmark service.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   (cheapest model, small embeddings)",
			"normal (balanced)",
			"max    (largest model)",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	preset := GetPreset(provider, quality)

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (indexes, uploads, caches)",
		Default: "data",
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Shared legacy index root.
	legacyPrompt := promptui.Prompt{
		Label:   "Shared vector index directory to reuse (leave blank for none)",
		Default: "",
	}
	legacyDir, err := legacyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("legacy dir: %w", err)
	}

	// 5. Cache backend.
	backendPrompt := promptui.Select{
		Label: "Store company analyses in",
		Items: []string{string(CacheJSON), string(CacheSQLite)},
	}
	_, backend, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("cache backend: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = preset.Model
	cfg.Quality = quality
	cfg.EmbeddingProvider = embeddingProviderFor(provider)
	cfg.EmbeddingModel = preset.EmbeddingModel
	cfg.DataDir = strings.TrimSpace(dataDir)
	cfg.LegacyDir = strings.TrimSpace(legacyDir)
	cfg.Cache.Backend = CacheBackend(backend)
	if cfg.EmbeddingProvider == ProviderOllama {
		cfg.EmbeddingDimensions = 1024
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, p := range []ProviderType{cfg.Provider, cfg.EmbeddingProvider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running esgbench.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all cloud providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}
