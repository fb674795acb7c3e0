package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/workgraph/pkg/cache"
	wgerrors "github.com/matzehuels/workgraph/pkg/errors"
)

func TestCacheClear(t *testing.T) {
	dir := setupEnv(t)
	plan := writePlan(t, dir)

	if err := execute(t, "encode", plan, "--key", "app"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	cacheRoot := filepath.Join(dir, "cache", appName)
	if n := countFiles(t, cacheRoot); n != 1 {
		t.Fatalf("cache holds %d files, want 1", n)
	}

	if err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countFiles(t, cacheRoot); n != 0 {
		t.Errorf("cache holds %d files after clear", n)
	}
	if err := execute(t, "inspect", "--key", "app"); !wgerrors.Is(err, wgerrors.ErrCodeNotFound) {
		t.Errorf("inspect after clear err = %v, want NOT_FOUND", err)
	}
}

func TestCacheClearEmpty(t *testing.T) {
	setupEnv(t)
	if err := execute(t, "cache", "clear"); err != nil {
		t.Errorf("clearing a missing cache dir: %v", err)
	}
}

func TestCachePathRemoteBackend(t *testing.T) {
	dir := setupEnv(t)
	cfg := filepath.Join(dir, "redis.toml")
	if err := os.WriteFile(cfg, []byte("[cache]\nbackend = \"redis\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := execute(t, "--config", cfg, "cache", "path")
	if !wgerrors.Is(err, wgerrors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

func TestNoCacheFlag(t *testing.T) {
	dir := setupEnv(t)
	plan := writePlan(t, dir)

	if err := execute(t, "--no-cache", "encode", plan, "--key", "app"); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := execute(t, "inspect", "--key", "app"); !wgerrors.Is(err, wgerrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND with caching disabled", err)
	}
}

func TestNewCacheBackends(t *testing.T) {
	dir := setupEnv(t)
	c := New(io.Discard, LogInfo)
	c.Config = &Config{}
	c.Config.Cache.Backend = BackendNone
	c.Config.SetDefaults()

	store, err := c.newCache(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := cache.Backend(store); got != "none" {
		t.Errorf("backend = %s, want none", got)
	}

	c.Config.Cache.Backend = BackendFile
	c.Config.Cache.Dir = filepath.Join(dir, "graphs")
	store, err = c.newCache(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := cache.Backend(store); got != "file" {
		t.Errorf("backend = %s, want file", got)
	}

	c.Config.Cache.Backend = "etcd"
	if _, err := c.newCache(context.Background()); !wgerrors.Is(err, wgerrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return n
}
