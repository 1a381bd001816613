package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	ok1 := k.OutlineKey("text", OutlineKeyOpts{Hint: "auto", Analyzer: "t4"})
	ok2 := k.OutlineKey("text", OutlineKeyOpts{Hint: "flow", Analyzer: "t4"})
	if ok1 == ok2 {
		t.Error("Different OutlineKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(ok1, "outline:") {
		t.Errorf("OutlineKey prefix unexpected: %s", ok1)
	}
	if ok1 != k.OutlineKey("text", OutlineKeyOpts{Hint: "auto", Analyzer: "t4"}) {
		t.Error("OutlineKey should be deterministic")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Variant: "flow", Canvas: "800x600"})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Variant: "cycle", Canvas: "800x600"})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "ws:123:")

	key := scoped.OutlineKey("h", OutlineKeyOpts{})
	if key != "ws:123:"+inner.OutlineKey("h", OutlineKeyOpts{}) {
		t.Errorf("ScopedKeyer OutlineKey unexpected: %s", key)
	}
	if got := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(got, "ws:123:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", got)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(got, "ws:123:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.LayoutKey("h", LayoutKeyOpts{})
	if key != "prefix:"+NewDefaultKeyer().LayoutKey("h", LayoutKeyOpts{}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v err %v, want miss", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get(k) = %q %v %v, want v true nil", data, hit, err)
	}

	// Expired entries are misses
	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should miss")
	}

	// Corrupt entries are misses
	_ = os.MkdirAll(filepath.Dir(c.path("bad")), 0o755)
	if err := os.WriteFile(c.path("bad"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "bad"); hit {
		t.Error("corrupt entry should miss")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	n, err := c.Clear()
	if err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v, want 2, nil", n, err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Clear should remove entries")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TRAZO_TEST_REDIS")
	if addr == "" {
		t.Skip("TRAZO_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "trazo-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q %v %v", data, hit, err)
	}
	_ = c.Delete(ctx, "k")
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Delete should remove entry")
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrUnavailable)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrNotFound
	})
	if err != ErrNotFound {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRetryWithBackoffN(t *testing.T) {
	calls := 0
	err := RetryWithBackoffN(context.Background(), 4, time.Millisecond, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if calls != 4 {
		t.Errorf("Should call 4 times: %d", calls)
	}
	if !IsRetryable(err) {
		t.Errorf("Should return last retryable error: %v", err)
	}
}
