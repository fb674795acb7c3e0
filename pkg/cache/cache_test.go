package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
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

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %v, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "graph:a"); hit || err != nil {
		t.Fatalf("empty cache: hit=%v err=%v", hit, err)
	}

	payload := []byte{0x02, 0x00, 0x01, 0xff}
	if err := c.Set(ctx, "graph:a", payload, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "graph:a")
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if string(got) != string(payload) {
		t.Errorf("Get = %x, want %x", got, payload)
	}

	if err := c.Delete(ctx, "graph:a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "graph:a"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "graph:a"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}
}

func TestFileCacheUnreadableEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, hit, err := c.Get(ctx, "k")
	if hit || err != nil {
		t.Errorf("unreadable entry: hit=%v err=%v, want plain miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("unreadable entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for i := range 5 {
		if err := c.Set(ctx, fmt.Sprintf("graph:%d", i), []byte("x"), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 5 {
		t.Errorf("Clear removed %d entries, want 5", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir should be empty, has %d entries", len(entries))
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
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.GraphKey("release"); got != "graph:release" {
		t.Errorf("GraphKey = %q", got)
	}

	src := []byte("[[node]]\npath = \":a\"\n")
	p1 := k.PlanKey(src, PlanKeyOpts{FormatVersion: 1})
	p2 := k.PlanKey(src, PlanKeyOpts{FormatVersion: 2})
	p3 := k.PlanKey([]byte("other"), PlanKeyOpts{FormatVersion: 1})
	if p1 == p2 || p1 == p3 {
		t.Error("PlanKey should depend on source and options")
	}
	if !strings.HasPrefix(p1, "plan:") || len(p1) != len("plan:")+64 {
		t.Errorf("PlanKey = %q", p1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "staging:")
	if got := scoped.GraphKey("x"); got != "staging:graph:x" {
		t.Errorf("GraphKey = %q", got)
	}
	if got := scoped.PlanKey(nil, PlanKeyOpts{}); !strings.HasPrefix(got, "staging:plan:") {
		t.Errorf("PlanKey = %q", got)
	}
}

func TestBackend(t *testing.T) {
	fc, _ := NewFileCache(t.TempDir())
	tests := []struct {
		cache Cache
		want  string
	}{
		{fc, "file"},
		{&RedisCache{}, "redis"},
		{&MongoCache{}, "mongo"},
		{NewNullCache(), "none"},
	}
	for _, tt := range tests {
		if got := Backend(tt.cache); got != tt.want {
			t.Errorf("Backend(%T) = %q, want %q", tt.cache, got, tt.want)
		}
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrClosed) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	plain := errors.New("WRONGTYPE")
	if got := classify(plain); got != plain {
		t.Errorf("classify(plain) = %v", got)
	}
	netErr := classify(&net.OpError{Op: "dial", Err: errors.New("connection refused")})
	if !IsRetryable(netErr) || !errors.Is(netErr, ErrNetwork) {
		t.Errorf("classify(net error) = %v, want retryable ErrNetwork", netErr)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = time.Second })
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return ErrClosed
	})
	if err != ErrClosed || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
