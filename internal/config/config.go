// Package config holds all msglens configuration: a YAML file with
// per-concern sections, environment-variable overrides for API keys, and
// defaults that make the tool usable with nothing but a dataset path and a
// key in the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all msglens configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	LLM     LLMConfig     `yaml:"llm"`
	Spike   SpikeConfig   `yaml:"spike"`
	Cluster ClusterConfig `yaml:"cluster"`
}

// DatasetConfig locates the labeled message dataset.
type DatasetConfig struct {
	// Path to the labeled CSV produced by the merge step.
	CSVPath string `yaml:"csv_path"`
	// Optional SQLite store; takes precedence over CSVPath when set.
	StorePath string `yaml:"store_path"`
}

// LLMConfig configures the oracle provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// SpikeConfig configures the spike detector.
type SpikeConfig struct {
	ZThreshold float64 `yaml:"z_threshold"`
}

// ClusterConfig configures the batch categorization subcommands.
type ClusterConfig struct {
	K              int    `yaml:"k"`               // number of clusters
	EmbedModel     string `yaml:"embed_model"`     // genai embedding model
	SamplesPerName int    `yaml:"samples_per_name"` // messages shown to the namer
	NameWorkers    int    `yaml:"name_workers"`    // parallel naming calls
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			CSVPath: "merged_messages_with_categories.csv",
		},
		LLM: LLMConfig{
			Timeout: "120s",
		},
		Spike: SpikeConfig{
			ZThreshold: 2.0,
		},
		Cluster: ClusterConfig{
			K:              8,
			EmbedModel:     "gemini-embedding-001",
			SamplesPerName: 10,
			NameWorkers:    4,
		},
	}
}

// Load reads configuration from a YAML file, layering it over the defaults
// and applying environment overrides last. A missing file is not an error:
// defaults plus environment are enough to run.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	return cfg, nil
}

// applyEnvOverrides pulls API keys from the environment. When no provider is
// configured, an available key selects its provider, OPENAI_API_KEY first. A
// key is only applied when it matches the selected provider, so the client
// never authenticates with the other provider's key.
func (c *Config) applyEnvOverrides() {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")

	if c.LLM.Provider == "" {
		switch {
		case openaiKey != "":
			c.LLM.Provider = "openai"
		case geminiKey != "":
			c.LLM.Provider = "gemini"
		}
	}

	switch c.LLM.Provider {
	case "openai":
		if openaiKey != "" {
			c.LLM.APIKey = openaiKey
		}
	case "gemini":
		if geminiKey != "" {
			c.LLM.APIKey = geminiKey
		}
	}

	if model := os.Getenv("MSGLENS_MODEL"); model != "" {
		c.LLM.Model = model
	}
}

// OracleTimeout parses the configured LLM timeout, falling back to two
// minutes on empty or malformed input.
func (c *Config) OracleTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}
