package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a configuration with every field set to its
// default: jsonfile storage, linear index, template engine.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".atlas",
		Memory: MemoryConfig{
			Type: "jsonfile",
		},
		Index: IndexConfig{
			Type: "linear",
			Chromem: ChromemConfig{
				Collection: "atlas_memory",
			},
		},
		Generation: GenerationConfig{
			Provider: "template",
		},
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from a byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	config := DefaultConfig()

	err := yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvironmentOverrides(config)

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func applyEnvironmentOverrides(config *Config) {
	// Data directory override
	if dataDir := os.Getenv("ATLAS_DATA_DIR"); dataDir != "" {
		config.DataDir = dataDir
	}

	// Memory backend override
	if storeType := os.Getenv("ATLAS_MEMORY_STORE"); storeType != "" {
		config.Memory.Type = storeType
	}

	// Postgres DSN override
	if dsn := os.Getenv("ATLAS_PG_DSN"); dsn != "" {
		config.Memory.Postgres.DSN = dsn
	}

	// Retrieval depth override
	if topK := os.Getenv("ATLAS_TOP_K"); topK != "" {
		if parsed, err := strconv.Atoi(topK); err == nil {
			config.Retrieval.TopK = parsed
		}
	}

	// OpenAI API key override
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Generation.OpenAI.APIKey = apiKey
	}

	// Log level override
	if level := os.Getenv("ATLAS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// validateConfig validates the configuration and fills in derived defaults.
func validateConfig(config *Config) error {
	if config.DataDir == "" {
		config.DataDir = ".atlas"
	}

	// Validate memory configuration
	switch strings.ToLower(config.Memory.Type) {
	case "", "jsonfile":
		config.Memory.Type = "jsonfile"
	case "boltdb":
		// Path defaults to the data dir when empty
	case "sqlite":
		// Path defaults to the data dir when empty
	case "postgres":
		if config.Memory.Postgres.DSN == "" {
			return fmt.Errorf("postgres DSN is required for postgres memory store")
		}
	default:
		return fmt.Errorf("unsupported memory store type: %s", config.Memory.Type)
	}

	// Validate index configuration
	switch strings.ToLower(config.Index.Type) {
	case "", "linear":
		config.Index.Type = "linear"
	case "chromem":
		if config.Index.Chromem.Collection == "" {
			config.Index.Chromem.Collection = "atlas_memory"
		}
		// The chromem index needs a real embedding source
		if strings.ToLower(config.Generation.Provider) == "template" {
			return fmt.Errorf("chromem index requires a generation provider with embeddings (openai or mock)")
		}
	default:
		return fmt.Errorf("unsupported index type: %s", config.Index.Type)
	}

	if config.Index.MinScore < 0 || config.Index.MinScore >= 1 {
		return fmt.Errorf("index min_score must be in [0, 1): got %g", config.Index.MinScore)
	}

	// Validate generation configuration
	switch strings.ToLower(config.Generation.Provider) {
	case "", "template":
		config.Generation.Provider = "template"
	case "mock":
		// Mock engine doesn't require additional validation
	case "openai":
		// API key can be provided via environment variable, so we don't
		// explicitly check for it here. But validate model settings.
		if config.Generation.OpenAI.Model == "" {
			config.Generation.OpenAI.Model = "gpt-4"
		}
		if config.Generation.OpenAI.EmbeddingModel == "" {
			config.Generation.OpenAI.EmbeddingModel = "text-embedding-3-small"
		}
	default:
		return fmt.Errorf("unsupported generation provider: %s", config.Generation.Provider)
	}

	// Validate retrieval configuration
	if config.Retrieval.TopK < 0 {
		return fmt.Errorf("retrieval top_k cannot be negative: got %d", config.Retrieval.TopK)
	}
	if config.Retrieval.TopK == 0 {
		config.Retrieval.TopK = 3
	}

	return nil
}
