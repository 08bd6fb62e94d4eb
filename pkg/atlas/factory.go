package atlas

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	bolt "go.etcd.io/bbolt"

	"github.com/lexlapax/atlas/pkg/arch"
	"github.com/lexlapax/atlas/pkg/config"
	"github.com/lexlapax/atlas/pkg/generation"
	"github.com/lexlapax/atlas/pkg/generation/adapters/mock"
	"github.com/lexlapax/atlas/pkg/generation/adapters/openai"
	"github.com/lexlapax/atlas/pkg/generation/adapters/template"
	"github.com/lexlapax/atlas/pkg/index"
	"github.com/lexlapax/atlas/pkg/index/adapters/chromemgo"
	"github.com/lexlapax/atlas/pkg/log"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/memory/adapters/boltdb"
	"github.com/lexlapax/atlas/pkg/memory/adapters/jsonfile"
	"github.com/lexlapax/atlas/pkg/memory/adapters/postgres"
	"github.com/lexlapax/atlas/pkg/memory/adapters/sqlite"
	"github.com/lexlapax/atlas/pkg/project"
	"github.com/lexlapax/atlas/pkg/scripting"
	"github.com/lexlapax/atlas/pkg/vector"
)

// NewFromConfigFile creates an Atlas instance from a YAML config file.
// This is a convenience function that handles all component initialization.
func NewFromConfigFile(ctx context.Context, configPath string) (*Atlas, error) {
	// .env values feed the environment-variable overrides
	_ = godotenv.Load()

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewFromConfig(ctx, cfg)
}

// NewFromConfig creates an Atlas instance from a parsed configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Atlas, error) {
	log.Setup(log.Config{
		Level:  log.Level(cfg.Logging.Level),
		Format: log.Format(cfg.Logging.Format),
	})

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	store, err := initMemoryStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}

	engine, err := initGenerationEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation engine: %w", err)
	}

	idx, err := initIndex(cfg, engine)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize similarity index: %w", err)
	}

	scriptEngine, err := initScriptEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scripting engine: %w", err)
	}

	archStore, err := arch.NewStore(filepath.Join(cfg.DataDir, "arch.json"))
	if err != nil {
		return nil, err
	}
	projStore, err := project.NewStore(filepath.Join(cfg.DataDir, "project.json"))
	if err != nil {
		return nil, err
	}

	a, err := New(ctx, Deps{
		Store:      store,
		Index:      idx,
		Vectorizer: vector.NewBagOfTokens(),
		Engine:     engine,
		Scripting:  scriptEngine,
		Arch:       archStore,
		Project:    projStore,
	}, Config{TopK: cfg.Retrieval.TopK})
	if err != nil {
		return nil, err
	}

	log.Info("Atlas initialized from config",
		"data_dir", cfg.DataDir,
		"memory_store", cfg.Memory.Type,
		"index", cfg.Index.Type,
		"generation_provider", cfg.Generation.Provider)
	return a, nil
}

// initMemoryStore initializes the appropriate memory store backend.
func initMemoryStore(ctx context.Context, cfg *config.Config) (memory.Store, error) {
	switch cfg.Memory.Type {
	case "jsonfile":
		return jsonfile.NewStore(filepath.Join(cfg.DataDir, "memory.json"))

	case "boltdb":
		path := cfg.Memory.BoltDB.Path
		if path == "" {
			path = filepath.Join(cfg.DataDir, "memory.db")
		}
		db, err := bolt.Open(path, 0o600, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt database %s: %w", path, err)
		}
		store := boltdb.NewBoltStore(db)
		if err := store.Initialize(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil

	case "sqlite":
		path := cfg.Memory.SQLite.Path
		if path == "" {
			path = filepath.Join(cfg.DataDir, "memory.sqlite")
		}
		db, err := sqlx.Open("sqlite3", path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
		}
		store := sqlite.NewSQLiteStore(db)
		if err := store.Initialize(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return store, nil

	case "postgres":
		return postgres.NewPostgresStore(ctx, cfg.Memory.Postgres.DSN)

	default:
		return nil, fmt.Errorf("unsupported memory store type: %s", cfg.Memory.Type)
	}
}

// initGenerationEngine initializes the response-generation engine.
func initGenerationEngine(cfg *config.Config) (generation.Engine, error) {
	switch cfg.Generation.Provider {
	case "template":
		return template.NewTemplateEngine(), nil

	case "mock":
		return mock.NewMockEngine(), nil

	case "openai":
		return openai.NewOpenAIEngine(openai.Config{
			APIKey:         cfg.Generation.OpenAI.APIKey,
			ChatModel:      cfg.Generation.OpenAI.Model,
			EmbeddingModel: cfg.Generation.OpenAI.EmbeddingModel,
		})

	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Generation.Provider)
	}
}

// initIndex initializes the similarity index.
func initIndex(cfg *config.Config, engine generation.Engine) (index.Index, error) {
	switch cfg.Index.Type {
	case "linear":
		return index.NewLinear(index.WithMinScore(cfg.Index.MinScore)), nil

	case "chromem":
		path := cfg.Index.Chromem.Path
		if path == "" {
			path = filepath.Join(cfg.DataDir, "chromem")
		}
		return chromemgo.Open(path, cfg.Index.Chromem.Collection,
			chromemgo.EmbeddingFuncFromEngine(engine),
			chromemgo.WithMinScore(cfg.Index.MinScore))

	default:
		return nil, fmt.Errorf("unsupported index type: %s", cfg.Index.Type)
	}
}

// initScriptEngine initializes the Lua engine when script paths are
// configured; otherwise hooks stay disabled.
func initScriptEngine(cfg *config.Config) (scripting.Engine, error) {
	if len(cfg.Scripting.Paths) == 0 {
		return nil, nil
	}

	engine, err := scripting.NewLuaEngine(scripting.DefaultConfig())
	if err != nil {
		return nil, err
	}
	for _, dir := range cfg.Scripting.Paths {
		if err := engine.LoadScriptDir(dir); err != nil {
			engine.Close()
			return nil, err
		}
	}
	return engine, nil
}
