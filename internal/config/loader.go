package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration loaded from config.yaml.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	LLM       LLMConfig       `yaml:"llm"`
	History   HistoryConfig   `yaml:"history"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Profile   ProfileConfig   `yaml:"profile"`
	Server    ServerConfig    `yaml:"server"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // console or json
	Output   string `yaml:"output"` // stdout, stderr, file
	FilePath string `yaml:"file_path"`
}

// LLMConfig holds generation-model settings. The answer model handles the
// response strategies; the classifier model only labels intents, so a smaller
// and cheaper model is expected there.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // openai, ollama, ark, deepseek
	Model           string  `yaml:"model"`
	ClassifierModel string  `yaml:"classifier_model"`
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
}

// HistoryConfig bounds the per-user conversation log.
type HistoryConfig struct {
	MaxTokens   int `yaml:"max_tokens"`
	TokenBuffer int `yaml:"token_buffer"`
	MaxUsers    int `yaml:"max_users"`
}

// RetrievalConfig holds similarity-search settings.
type RetrievalConfig struct {
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// ProfileConfig holds user wallet-data store settings.
type ProfileConfig struct {
	TTLSeconds     int `yaml:"ttl_seconds"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// ServerConfig holds HTTP transport settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Env carries secrets and endpoints that never belong in config.yaml.
type Env struct {
	LLMAPIKey         string `envconfig:"LLM_API_KEY"`
	LLMBaseURL        string `envconfig:"LLM_BASE_URL"`
	RedisURL          string `envconfig:"REDIS_URL"`
	RetrievalEndpoint string `envconfig:"RETRIEVAL_ENDPOINT"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// LoadEnv reads environment-sourced settings.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	return &env, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "openai/gpt-4.1-mini"
	}
	if c.LLM.ClassifierModel == "" {
		c.LLM.ClassifierModel = "openai/gpt-4.1-nano"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1500
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.History.MaxTokens == 0 {
		c.History.MaxTokens = 1024
	}
	if c.History.TokenBuffer == 0 {
		c.History.TokenBuffer = 500
	}
	if c.History.MaxUsers == 0 {
		c.History.MaxUsers = 10000
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.ScoreThreshold == 0 {
		c.Retrieval.ScoreThreshold = 0.5
	}
	if c.Retrieval.TimeoutSeconds == 0 {
		c.Retrieval.TimeoutSeconds = 10
	}
	if c.Profile.TTLSeconds == 0 {
		c.Profile.TTLSeconds = 3600
	}
	if c.Profile.TimeoutSeconds == 0 {
		c.Profile.TimeoutSeconds = 5
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
}

// LLMTimeout returns the generation call deadline.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// RetrievalTimeout returns the similarity-search call deadline.
func (c *Config) RetrievalTimeout() time.Duration {
	return time.Duration(c.Retrieval.TimeoutSeconds) * time.Second
}

// ProfileTimeout returns the profile lookup deadline.
func (c *Config) ProfileTimeout() time.Duration {
	return time.Duration(c.Profile.TimeoutSeconds) * time.Second
}
