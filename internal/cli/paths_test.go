package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	custom := t.TempDir()

	tests := map[string]struct {
		xdg  string
		want string
	}{
		"falls back to ~/.cache": {"", filepath.Join(home, ".cache", "trsolver")},
		"follows XDG_CACHE_HOME": {custom, filepath.Join(custom, "trsolver")},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			dir, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if dir != tt.want {
				t.Errorf("cacheDir() = %q, want %q", dir, tt.want)
			}
		})
	}
}

// Solve results land under the XDG cache directory unless --no-cache is set.
func TestNewCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)

	cc, err := c.newCache(false)
	if err != nil {
		t.Fatal(err)
	}
	defer cc.Close()
	fc, ok := cc.(*cache.FileCache)
	if !ok {
		t.Fatalf("newCache(false) = %T, want *cache.FileCache", cc)
	}
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName); fc.Dir() != want {
		t.Errorf("solve cache dir = %q, want %q", fc.Dir(), want)
	}

	off, err := c.newCache(true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := off.(*cache.FileCache); ok {
		t.Error("--no-cache still opened the file cache")
	}
}
