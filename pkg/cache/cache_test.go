package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	c := Disabled()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("disabled cache returned a hit")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("disabled cache kept a solve result")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "board", []byte("placement"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "board")
	if err != nil || !hit || !bytes.Equal(data, []byte("placement")) {
		t.Errorf("Get() = %q %v %v, want hit", data, hit, err)
	}

	if err := c.Set(ctx, "stale", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "stale"); hit {
		t.Error("expired entry was returned")
	}

	if err := c.Delete(ctx, "board"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "board"); hit {
		t.Error("deleted entry was returned")
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)

	if err := c.(Clearer).Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s survived Clear", k)
		}
	}
	if err := c.Set(ctx, "c", []byte("3"), 0); err != nil {
		t.Errorf("Set after Clear error: %v", err)
	}
}

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheWithClient(client, DefaultRedisConfig())
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := c.Set(ctx, "solve:1", []byte("result"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "solve:1")
	if err != nil || !hit || string(data) != "result" {
		t.Errorf("Get() = %q %v %v, want hit", data, hit, err)
	}
	if !mr.Exists("trsolver:solve:1") {
		t.Errorf("keys = %v, want prefixed key", mr.Keys())
	}
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)
	data, hit, err := c.Get(context.Background(), "nonexistent")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q %v %v, want clean miss", data, hit, err)
	}
}

func TestRedisCache_TTL(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(100 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired key was returned")
	}

	if err := c.Set(ctx, "default", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("trsolver:default"); ttl != 24*time.Hour {
		t.Errorf("TTL = %v, want default 24h", ttl)
	}
}

func TestRedisCache_DeleteAndClear(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	_ = mr.Set("other:key", "untouched")

	_ = c.Set(ctx, "key1", []byte("value1"), time.Minute)
	_ = c.Set(ctx, "key2", []byte("value2"), time.Minute)
	if err := c.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key1"); hit {
		t.Error("deleted key was returned")
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key2"); hit {
		t.Error("key2 survived Clear")
	}
	if !mr.Exists("other:key") {
		t.Error("Clear removed a key outside the prefix")
	}
}

func TestNewRedisCacheWithConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	c, err := NewRedisCacheWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewRedisCacheWithConfig error: %v", err)
	}
	c.Close()

	mr.Close()
	if _, err := NewRedisCacheWithConfig(cfg); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestOpen(t *testing.T) {
	c, err := Open(Config{Backend: BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("Open(file) = %T, want *FileCache", c)
	}

	mr := miniredis.RunT(t)
	c, err = Open(Config{Backend: BackendRedis, RedisAddr: mr.Addr(), Prefix: "x:"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	_ = c.Set(context.Background(), "k", []byte("v"), 0)
	if !mr.Exists("x:k") {
		t.Errorf("keys = %v, want x:k", mr.Keys())
	}

	if c, _ := Open(Config{Backend: BackendNone}); c == nil {
		t.Error("Open(none) returned nil")
	}
	if _, err := Open(Config{Backend: "memcached"}); err == nil {
		t.Error("Open(memcached) should fail")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	a, _ := HashJSON(map[string]int{"x": 1, "y": 2})
	b, _ := HashJSON(map[string]int{"y": 2, "x": 1})
	if a != b {
		t.Error("HashJSON should not depend on map order")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	s1 := k.SolveKey("board", SolveKeyOpts{Strategy: "pairwise", Seed: 42})
	s2 := k.SolveKey("board", SolveKeyOpts{Strategy: "contiguous", Seed: 42})
	if s1 == s2 {
		t.Error("Different SolveKeyOpts should produce different keys")
	}
	if s1[:6] != "solve:" {
		t.Errorf("SolveKey should be namespaced: %s", s1)
	}

	e1 := k.ExactKey("board", ExactKeyOpts{MaxTimeSecs: 10})
	e2 := k.ExactKey("board", ExactKeyOpts{MaxTimeSecs: 20})
	if e1 == e2 {
		t.Error("Different ExactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "tc4:")
	key := scoped.SolveKey("board", SolveKeyOpts{})
	if key != "tc4:"+NewDefaultKeyer().SolveKey("board", SolveKeyOpts{}) {
		t.Errorf("ScopedKeyer SolveKey unexpected: %s", key)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	ctx := context.Background()
	errDown := errors.New("down")

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errDown)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("RetryWithBackoff() = %v after %d calls, want success after 2", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errDown
	})
	if err != errDown || calls != 1 {
		t.Errorf("non-retryable error: got %v after %d calls", err, calls)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := RetryWithBackoff(cancelled, func() error { return Retryable(errDown) }); err != context.Canceled {
		t.Errorf("cancelled: got %v, want context.Canceled", err)
	}
	if Retryable(nil) != nil || IsRetryable(errDown) {
		t.Error("Retryable/IsRetryable mismatch")
	}
}
