// Package config loads trsolver settings from a TOML file.
//
// Every field has a default, so a missing file is fine and a partial file
// only overrides what it names:
//
//	[grid]
//	radius = 4
//
//	[solver]
//	strategy = "contiguous"
//	mode = "slow"
//
//	[exact]
//	max_time_seconds = 120
//	num_workers = 4
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
// Command-line flags override file values.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/cache"
	apperrors "github.com/WalterStager/thaumcraft-research-solver/pkg/errors"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/placement"
)

// History backends.
const (
	HistoryMemory = "memory"
	HistoryMongo  = "mongo"
	HistoryNone   = "none"
)

// Config is the full settings tree.
type Config struct {
	Grid    GridConfig    `toml:"grid"`
	Recipes RecipesConfig `toml:"recipes"`
	Solver  SolverConfig  `toml:"solver"`
	Exact   ExactConfig   `toml:"exact"`
	Server  ServerConfig  `toml:"server"`
	Cache   CacheConfig   `toml:"cache"`
	History HistoryConfig `toml:"history"`
}

// GridConfig sizes the board used when no board file is given.
type GridConfig struct {
	Radius int `toml:"radius"`
}

// RecipesConfig points at a recipe book; empty means the built-in one.
type RecipesConfig struct {
	Path string `toml:"path"`
}

// SolverConfig holds heuristic solve defaults.
type SolverConfig struct {
	Strategy     string `toml:"strategy"`
	Mode         string `toml:"mode"`
	ProtectSeeds bool   `toml:"protect_seeds"`
	Seed         uint64 `toml:"seed"`
}

// ExactConfig holds exact solve limits.
type ExactConfig struct {
	MaxTimeSeconds   int  `toml:"max_time_seconds"`
	NumWorkers       int  `toml:"num_workers"`
	OneAspectPerCell bool `toml:"one_aspect_per_cell"`
}

// ServerConfig configures trsolver serve.
type ServerConfig struct {
	Addr               string `toml:"addr"`
	ReadTimeoutSeconds int    `toml:"read_timeout_seconds"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	TTLHours  int    `toml:"ttl_hours"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	Prefix    string `toml:"prefix"`
}

// HistoryConfig selects where served runs are recorded.
type HistoryConfig struct {
	Backend    string `toml:"backend"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Grid: GridConfig{Radius: 3},
		Solver: SolverConfig{
			Strategy: string(placement.StrategyPairwise),
			Mode:     placement.ModeFast.String(),
			Seed:     placement.DefaultSeed,
		},
		Exact: ExactConfig{
			MaxTimeSeconds:   60,
			NumWorkers:       8,
			OneAspectPerCell: true,
		},
		Server: ServerConfig{
			Addr:               ":8080",
			ReadTimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Backend:  cache.BackendFile,
			TTLHours: 7 * 24,
			Prefix:   "trsolver:",
		},
		History: HistoryConfig{
			Backend:    HistoryMemory,
			MongoURI:   "mongodb://localhost:27017",
			Database:   "trsolver",
			Collection: "runs",
		},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/trsolver/config.toml, falling back to the
// platform config directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "trsolver", "config.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "trsolver", "config.toml"), nil
}

// Load reads path over the defaults. An empty path tries DefaultPath and
// returns the defaults when that file does not exist; a named file must
// exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Decode(string(data)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode applies TOML text to c, then clamps and validates the result.
// Unknown keys are rejected.
func (c *Config) Decode(text string) error {
	md, err := toml.Decode(text, c)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	c.Grid.Radius = ClampRadius(c.Grid.Radius)
	return c.Validate()
}

// ClampRadius forces r into the supported board sizes.
func ClampRadius(r int) int {
	return min(max(r, apperrors.MinRadius), apperrors.MaxRadius)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := apperrors.ValidateRadius(c.Grid.Radius); err != nil {
		return err
	}
	if _, err := placement.ParseStrategy(c.Solver.Strategy); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "solver.strategy")
	}
	if _, err := placement.ParseMode(c.Solver.Mode); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "solver.mode")
	}
	if err := apperrors.ValidateExactLimits(c.ExactTime(), c.Exact.NumWorkers); err != nil {
		return err
	}
	if c.Server.ReadTimeoutSeconds < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "server.read_timeout_seconds must be non-negative")
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone, "":
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "cache.backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTLHours < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "cache.ttl_hours must be non-negative")
	}
	switch c.History.Backend {
	case HistoryMemory, HistoryNone, "":
	case HistoryMongo:
		if c.History.MongoURI == "" || c.History.Database == "" || c.History.Collection == "" {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "history: mongo backend needs mongo_uri, database and collection")
		}
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "history.backend %q (must be memory, mongo or none)", c.History.Backend)
	}
	return nil
}

// ExactTime is the exact solve limit as a duration.
func (c *Config) ExactTime() time.Duration {
	return time.Duration(c.Exact.MaxTimeSeconds) * time.Second
}

// ReadTimeout is the server read timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

// CacheOptions converts the cache section for [cache.Open].
func (c *Config) CacheOptions() cache.Config {
	return cache.Config{
		Backend:   c.Cache.Backend,
		Dir:       c.Cache.Dir,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
		Prefix:    c.Cache.Prefix,
		TTL:       time.Duration(c.Cache.TTLHours) * time.Hour,
	}
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
