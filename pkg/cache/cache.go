// Package cache stores solve results keyed by a content hash of their
// inputs.
//
// Three backends are provided: [FileCache] for the CLI, [RedisCache] for
// the API server and [Disabled] when caching is off. Keys come from a
// [Keyer], which hashes the board, the recipe book and every option that
// changes the result, so equal requests share entries across processes.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a byte store with per-entry expiry. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Backend names accepted by [Open].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend   string
	Dir       string // file backend; DefaultDir when empty
	RedisAddr string
	RedisDB   int
	Prefix    string // redis key prefix
	TTL       time.Duration
}

// Open returns the backend named by cfg.Backend. Empty means file.
func Open(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileCache(dir)
	case BackendRedis:
		rc := DefaultRedisConfig()
		if cfg.RedisAddr != "" {
			rc.Addr = cfg.RedisAddr
		}
		rc.DB = cfg.RedisDB
		if cfg.Prefix != "" {
			rc.Prefix = cfg.Prefix
		}
		if cfg.TTL > 0 {
			rc.DefaultTTL = cfg.TTL
		}
		return NewRedisCacheWithConfig(rc)
	case BackendNone:
		return Disabled(), nil
	}
	return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
}

// DefaultDir returns the per-user cache directory for solve results.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "trsolver"), nil
}
