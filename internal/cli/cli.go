package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/workgraph/pkg/cache"
	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
	"github.com/matzehuels/workgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "workgraph"

	// graphExt is the file extension for framed work graphs.
	graphExt = ".wkg"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig resolves the configuration once per invocation.
func (c *CLI) loadConfig() error {
	if c.Config != nil {
		return nil
	}
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner over the configured cache backend.
// Callers must Close the runner.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	if err := c.loadConfig(); err != nil {
		return nil, err
	}
	store, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(store, nil, c.Logger)
	r.TTL = c.Config.Cache.TTL.Duration
	c.Logger.Debug("cache ready", "backend", cache.Backend(store))
	return r, nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cfg := c.Config.Cache
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		var rc *cache.RedisCache
		err := spin(ctx, "Connecting to redis at "+cfg.Redis.Addr, func() (err error) {
			rc, err = cache.NewRedisCache(ctx, cache.RedisConfig{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			return err
		})
		if err != nil {
			return nil, pipeline.Classify(err)
		}
		return rc, nil
	case BackendMongo:
		var mc *cache.MongoCache
		err := spin(ctx, "Connecting to mongo", func() (err error) {
			mc, err = cache.NewMongoCache(ctx, cache.MongoConfig{
				URI:        cfg.Mongo.URI,
				Database:   cfg.Mongo.Database,
				Collection: cfg.Mongo.Collection,
			})
			return err
		})
		if err != nil {
			return nil, pipeline.Classify(err)
		}
		return mc, nil
	case BackendFile:
		if cfg.Dir == "" {
			c.Logger.Warn("no cache directory, caching disabled")
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(cfg.Dir)
	}
	return nil, wgerrors.New(wgerrors.ErrCodeInvalidInput, "unknown cache backend %q", cfg.Backend)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/workgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
