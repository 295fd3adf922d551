// Package config loads the research-assistant configuration from YAML,
// applies environment overrides, and validates the result.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all research-assistant configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Sources  SourcesConfig  `yaml:"sources"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig configures the model used for analysis and chat.
// Provider deepseek uses an OpenAI-compatible endpoint and requires BaseURL.
type LLMConfig struct {
	Provider string        `yaml:"provider"` // openai, deepseek, empty to disable
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SourceConfig configures one academic paper source.
type SourceConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SourcesConfig configures paper retrieval.
type SourcesConfig struct {
	SemanticScholar SourceConfig  `yaml:"semantic_scholar"`
	Arxiv           SourceConfig  `yaml:"arxiv"`
	PubMed          SourceConfig  `yaml:"pubmed"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheSize       int           `yaml:"cache_size"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "research_assistant.db",
		},
		LLM: LLMConfig{
			Provider: "",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
		},
		Sources: SourcesConfig{
			SemanticScholar: SourceConfig{Enabled: true},
			Arxiv:           SourceConfig{Enabled: true},
			PubMed:          SourceConfig{Enabled: true},
			RequestTimeout:  30 * time.Second,
			CacheTTL:        24 * time.Hour,
			CacheSize:       1000,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Load reads the YAML config at path. A missing file is not an error: the
// defaults plus environment overrides are returned, so the server can run
// with zero configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides maps environment variables onto the config. Values from
// the environment win over the file for secrets, matching how the original
// deployment supplied API keys.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
		c.LLM.APIKey = v
		c.LLM.Provider = "deepseek"
	}
	if v := os.Getenv("SEMANTIC_SCHOLAR_API_KEY"); v != "" {
		c.Sources.SemanticScholar.APIKey = v
	}
	if v := os.Getenv("PUBMED_API_KEY"); v != "" {
		c.Sources.PubMed.APIKey = v
	}
	if v := os.Getenv("RESEARCH_ASSISTANT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("RESEARCH_ASSISTANT_DB"); v != "" {
		c.Database.Path = v
	}
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.LLM.Provider {
	case "", "openai":
	case "deepseek":
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.LLM.Provider != "" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm provider %s requires api_key", c.LLM.Provider)
	}
	if c.Sources.CacheSize < 0 {
		return fmt.Errorf("sources.cache_size must not be negative")
	}
	return nil
}
