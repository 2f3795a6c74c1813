// Package config provides YAML-based configuration with environment overrides
// and API key resolution for LLM and embedding providers.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider identifiers for completion and embedding services.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

// Default model names.
const (
	ModelGPT4oMini        = "gpt-4o-mini"
	ModelGPT4o            = "gpt-4o"
	ModelClaudeSonnet     = "claude-sonnet-4-20250514"
	ModelClaudeHaiku      = "claude-3-5-haiku-latest"
	ModelNomicEmbed       = "nomic-embed-text"
	ModelGeminiEmbedding  = "gemini-embedding-001"
	DefaultOllamaHost     = "http://localhost:11434"
	DefaultMetricsListen  = ":8089"
	DefaultDBPath         = "pmbot.db"
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultTopK           = 5
	DefaultContextTokens  = 3000
	DefaultMaxTokens      = 1024
	DefaultTemperature    = 0.2
	DefaultSessionTTLMins = 10
)

// Config is the root configuration for the assistant.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	RAG       RAGConfig       `yaml:"rag"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Sessions  SessionConfig   `yaml:"sessions"`
}

// LLMConfig selects the completion model. The provider is derived from the
// model name via GetModelProvider.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// EmbeddingConfig selects the embedding engine. Ingestion and query must use
// the same engine so vector spaces stay comparable.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama | gemini
	Model    string `yaml:"model"`
	Host     string `yaml:"host"` // ollama server URL
}

// RAGConfig holds the retrieval constants. ChunkSize and ChunkOverlap must be
// identical between ingestion and query.
type RAGConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap"`
	TopK          int `yaml:"top_k"`
	ContextTokens int `yaml:"context_tokens"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// MetricsConfig controls the health/metrics listener and the optional
// Prometheus server used for usage queries.
type MetricsConfig struct {
	ListenAddr    string `yaml:"listen_addr"`
	PrometheusURL string `yaml:"prometheus_url"`
}

// SessionConfig controls upload-await session expiry.
type SessionConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

// Default returns a Config populated with all defaults.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Model:       ModelGPT4oMini,
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderOllama,
			Model:    ModelNomicEmbed,
			Host:     DefaultOllamaHost,
		},
		RAG: RAGConfig{
			ChunkSize:     DefaultChunkSize,
			ChunkOverlap:  DefaultChunkOverlap,
			TopK:          DefaultTopK,
			ContextTokens: DefaultContextTokens,
		},
		Storage: StorageConfig{DBPath: DefaultDBPath},
		Metrics: MetricsConfig{ListenAddr: DefaultMetricsListen},
		Sessions: SessionConfig{
			TTLMinutes: DefaultSessionTTLMins,
		},
	}
}

// Load reads the YAML config at path, applying defaults for anything unset.
// A missing file is not an error: defaults plus env overrides apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, cfg.Validate()
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PMBOT_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("PMBOT_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("PMBOT_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Embedding.Host = v
	}
	if v := os.Getenv("PMBOT_PROMETHEUS_URL"); v != "" {
		cfg.Metrics.PrometheusURL = v
	}
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must not be empty")
	}
	if _, err := GetModelProvider(c.LLM.Model); err != nil {
		return err
	}
	switch c.Embedding.Provider {
	case ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size), got %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.Sessions.TTLMinutes <= 0 {
		return fmt.Errorf("sessions.ttl_minutes must be positive, got %d", c.Sessions.TTLMinutes)
	}
	return nil
}
