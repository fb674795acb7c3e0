package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/workgraph/pkg/cache"
	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
)

// Cache backends selectable in the config file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the CLI configuration file.
//
//	[cache]
//	backend = "redis"
//	ttl = "72h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend string       `toml:"backend"`
	Dir     string       `toml:"dir"`
	TTL     Duration     `toml:"ttl"`
	Redis   RedisSection `toml:"redis"`
	Mongo   MongoSection `toml:"mongo"`
}

// RedisSection configures the redis backend.
type RedisSection struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoSection configures the mongo backend.
type MongoSection struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("36h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.Dir == "" {
		if dir, err := cacheDir(); err == nil {
			c.Cache.Dir = dir
		}
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = cache.TTLGraph
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Mongo.URI == "" {
		c.Cache.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Cache.Mongo.Database == "" {
		c.Cache.Mongo.Database = appName
	}
	if c.Cache.Mongo.Collection == "" {
		c.Cache.Mongo.Collection = "graphs"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate checks values SetDefaults cannot repair.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendMongo, BackendNone:
	default:
		return wgerrors.New(wgerrors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return wgerrors.New(wgerrors.ErrCodeInvalidInput, "cache ttl must not be negative")
	}
	return nil
}

// loadConfig reads the config at path, or at the default location when path
// is empty. A missing default config yields the defaults.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			cfg := &Config{}
			cfg.SetDefaults()
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case errors.Is(err, fs.ErrNotExist):
		return nil, wgerrors.Wrap(wgerrors.ErrCodeFileNotFound, err, "config file not found: %s", path)
	case err != nil:
		return nil, wgerrors.Wrap(wgerrors.ErrCodeInvalidInput, err, "parse config %s: %v", path, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, wgerrors.New(wgerrors.ErrCodeInvalidInput, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configDir returns the config directory using XDG standard (~/.config/workgraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}
