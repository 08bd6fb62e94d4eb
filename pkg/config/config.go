// Package config defines the configuration surface for the Atlas library
// and CLI, loaded from YAML with environment-variable overrides.
package config

// Config represents the top-level configuration for the Atlas library.
type Config struct {
	// DataDir is the directory holding the project, memory and
	// architecture files.
	DataDir string `yaml:"data_dir"`

	// Memory configures the memory store backend
	Memory MemoryConfig `yaml:"memory"`

	// Index configures the similarity index
	Index IndexConfig `yaml:"index"`

	// Generation configures the response-generation engine
	Generation GenerationConfig `yaml:"generation"`

	// Retrieval configures how prior memories are retrieved
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Scripting configures the Lua scripting engine
	Scripting ScriptingConfig `yaml:"scripting"`

	// Logging configures the logging behavior
	Logging LoggingConfig `yaml:"logging"`
}

// MemoryConfig configures the memory store backend.
type MemoryConfig struct {
	// Type specifies the store backend ("jsonfile", "boltdb", "sqlite", "postgres")
	Type string `yaml:"type"`

	// BoltDB configures bolt-backed storage
	BoltDB BoltDBConfig `yaml:"boltdb"`

	// SQLite configures sqlite-backed storage
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Postgres configures postgres-backed storage
	Postgres PostgresConfig `yaml:"postgres"`
}

// BoltDBConfig configures bolt-backed memory storage.
type BoltDBConfig struct {
	// Path is the bolt database file. Defaults to memory.db in the data dir.
	Path string `yaml:"path"`
}

// SQLiteConfig configures sqlite-backed memory storage.
type SQLiteConfig struct {
	// Path is the sqlite database file. Defaults to memory.sqlite in the data dir.
	Path string `yaml:"path"`
}

// PostgresConfig configures postgres-backed memory storage.
type PostgresConfig struct {
	// DSN is the data source name (connection string)
	DSN string `yaml:"dsn"`
}

// IndexConfig configures the similarity index.
type IndexConfig struct {
	// Type specifies the index ("linear", "chromem")
	Type string `yaml:"type"`

	// MinScore is the exclusive similarity threshold for query results
	MinScore float64 `yaml:"min_score"`

	// Chromem configures the chromem-backed index
	Chromem ChromemConfig `yaml:"chromem"`
}

// ChromemConfig configures the chromem-backed similarity index.
type ChromemConfig struct {
	// Path is the on-disk location of the chromem database. Defaults to
	// chromem in the data dir.
	Path string `yaml:"path"`

	// Collection is the collection name to use
	Collection string `yaml:"collection"`
}

// GenerationConfig configures the response-generation engine.
type GenerationConfig struct {
	// Provider is the engine ("template", "mock", "openai")
	Provider string `yaml:"provider"`

	// OpenAI configures OpenAI integration
	OpenAI OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig configures OpenAI integration.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key
	APIKey string `yaml:"api_key"`

	// Model is the OpenAI model to use for chat/completion
	Model string `yaml:"model"`

	// EmbeddingModel is the model to use for generating embeddings
	EmbeddingModel string `yaml:"embedding_model"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls randomness in generation (0.0-1.0)
	Temperature float64 `yaml:"temperature"`
}

// RetrievalConfig configures how prior memories are retrieved.
type RetrievalConfig struct {
	// TopK is the number of similar memories pulled into the context bundle
	TopK int `yaml:"top_k"`
}

// ScriptingConfig configures the Lua scripting engine.
type ScriptingConfig struct {
	// Paths is a list of directories containing Lua scripts
	Paths []string `yaml:"paths"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level is the logging level ("debug", "info", "warn", "error")
	Level string `yaml:"level"`

	// Format is the output format ("text", "json")
	Format string `yaml:"format"`
}
