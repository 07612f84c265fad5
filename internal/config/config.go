package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	"docqa/internal/models"
)

// StorageConfig locates the persisted collection.
type StorageConfig struct {
	Dir        string `yaml:"dir"`
	Collection string `yaml:"collection"`
}

// RAGConfig configures chunking, retrieval and the answer policy.
type RAGConfig struct {
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
	TopK           int    `yaml:"top_k"`
	AnswerLanguage string `yaml:"answer_language"`
	NotFoundPhrase string `yaml:"not_found_phrase"`
}

// LLMConfig configures one model endpoint. Provider is "remote" for an
// OpenAI-compatible API or "local" for an in-process Ollama server. The
// credential is never stored in the file; APIKeyEnv names the variable
// holding it.
type LLMConfig struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedConfig is the LLMConfig of the embedding endpoint plus the declared
// vector dimension and build throttling.
type EmbedConfig struct {
	LLMConfig     `yaml:",inline"`
	Dimension     int     `yaml:"dimension"`
	Concurrency   int     `yaml:"concurrency"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// GenConfig is the LLMConfig of the generation endpoint plus sampling params.
type GenConfig struct {
	LLMConfig         `yaml:",inline"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	TopP              float64 `yaml:"top_p"`
	RepetitionPenalty float64 `yaml:"repetition_penalty"`
}

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	RAG     RAGConfig     `yaml:"rag"`
	Embed   EmbedConfig   `yaml:"embed_llm"`
	Gen     GenConfig     `yaml:"gen_llm"`
}

// LoadConfig reads a config from path. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, models.WrapError(models.ErrConfiguration, "read config", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, models.WrapError(models.ErrConfiguration, "parse config", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.Dir == "" {
		c.Storage.Dir = models.DefaultPersistDir
	}
	if c.Storage.Collection == "" {
		c.Storage.Collection = models.DefaultCollectionName
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = models.DefaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = models.DefaultChunkOverlap
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = models.DefaultTopK
	}
	if c.RAG.AnswerLanguage == "" {
		c.RAG.AnswerLanguage = models.DefaultAnswerLanguage
	}
	if c.RAG.NotFoundPhrase == "" {
		c.RAG.NotFoundPhrase = models.DefaultNotFoundPhrase
	}
	if c.Embed.Provider == "" {
		c.Embed.Provider = "remote"
	}
	if c.Embed.BaseURL == "" {
		c.Embed.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Embed.Model == "" {
		c.Embed.Model = "text-embedding-3-small"
	}
	if c.Embed.APIKeyEnv == "" {
		c.Embed.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	if c.Embed.TimeoutSecs == 0 {
		c.Embed.TimeoutSecs = 30
	}
	if c.Embed.Dimension == 0 {
		c.Embed.Dimension = 768
	}
	if c.Embed.Concurrency == 0 {
		c.Embed.Concurrency = 4
	}
	if c.Embed.RatePerSecond == 0 {
		c.Embed.RatePerSecond = 8
	}
	if c.Gen.Provider == "" {
		c.Gen.Provider = c.Embed.Provider
	}
	if c.Gen.BaseURL == "" {
		c.Gen.BaseURL = c.Embed.BaseURL
	}
	if c.Gen.Model == "" {
		c.Gen.Model = "meta-llama/llama-3.1-8b-instruct"
	}
	if c.Gen.APIKeyEnv == "" {
		c.Gen.APIKeyEnv = c.Embed.APIKeyEnv
	}
	if c.Gen.TimeoutSecs == 0 {
		c.Gen.TimeoutSecs = 60
	}
	if c.Gen.MaxTokens == 0 {
		c.Gen.MaxTokens = 512
	}
	if c.Gen.Temperature == 0 {
		c.Gen.Temperature = 0.2
	}
	if c.Gen.TopP == 0 {
		c.Gen.TopP = 0.9
	}
	if c.Gen.RepetitionPenalty == 0 {
		c.Gen.RepetitionPenalty = 1.1
	}
}

// Validate rejects settings that would corrupt chunking or retrieval.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return models.WrapError(models.ErrConfiguration, "validate config: chunk_size must be positive", nil)
	}
	if c.RAG.ChunkOverlap < 0 {
		return models.WrapError(models.ErrConfiguration, "validate config: chunk_overlap must not be negative", nil)
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return models.WrapError(models.ErrConfiguration, "validate config: chunk_overlap must be smaller than chunk_size", nil)
	}
	if c.RAG.TopK <= 0 {
		return models.WrapError(models.ErrConfiguration, "validate config: top_k must be positive", nil)
	}
	if c.Embed.Dimension <= 0 {
		return models.WrapError(models.ErrConfiguration, "validate config: embedding dimension must be positive", nil)
	}
	switch c.Embed.Provider {
	case "remote", "local":
	default:
		return models.WrapError(models.ErrConfiguration, "validate config: embed provider must be remote or local", nil)
	}
	switch c.Gen.Provider {
	case "remote", "local":
	default:
		return models.WrapError(models.ErrConfiguration, "validate config: gen provider must be remote or local", nil)
	}
	return nil
}

// APIKey resolves the credential from the environment. Empty when unset.
func (l *LLMConfig) APIKey() string {
	if l.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(l.APIKeyEnv)
}
