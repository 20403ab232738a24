package native

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nstar-lang/nstar/internal/config"
)

func TestCacheStoreLookup(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "cache"))
	key := c.Key([]byte("a"), []byte("b"))
	if key == c.Key([]byte("ab")) {
		t.Error("part boundaries must affect the key")
	}
	if _, ok := c.Lookup(key); ok {
		t.Fatal("empty cache should miss")
	}

	cat, err := ParseYAML([]byte(shapesYAML), "shapes.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Store(key, cat); err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, ok := c.Lookup(key)
	if !ok {
		t.Fatal("stored catalog should hit")
	}
	if len(got.Types()) != len(cat.Types()) {
		t.Errorf("cached types = %v", got.Types())
	}
}

func TestCacheCorruptEntry(t *testing.T) {
	c := NewCache(t.TempDir())
	key := c.Key([]byte("x"))
	if err := os.WriteFile(c.path(key), []byte("types: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Lookup(key); ok {
		t.Error("corrupt entry should miss")
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestCached(t *testing.T) {
	c := NewCache(t.TempDir())
	calls := 0
	load := func() (*Static, error) {
		calls++
		return ParseYAML([]byte(shapesYAML), "shapes.yaml")
	}
	key := c.Key([]byte("shapes"))
	if _, hit, err := c.Cached(key, load); err != nil || hit {
		t.Fatalf("first Cached: hit=%v err=%v", hit, err)
	}
	if _, hit, err := c.Cached(key, load); err != nil || !hit {
		t.Fatalf("second Cached: hit=%v err=%v", hit, err)
	}
	if calls != 1 {
		t.Errorf("loader ran %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, _, err := c.Cached(c.Key([]byte("other")), func() (*Static, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("loader error = %v", err)
	}
}

func TestCachedStoreFailure(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "cache")
	if err := os.WriteFile(blocked, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}
	var log bytes.Buffer
	c := NewCache(blocked)
	c.Log = &log

	s, hit, err := c.Cached(c.Key([]byte("shapes")), func() (*Static, error) {
		return ParseYAML([]byte(shapesYAML), "shapes.yaml")
	})
	if err != nil || hit || s == nil {
		t.Fatalf("Cached = %v, %v, %v; want the fresh catalog", s, hit, err)
	}
	if _, ok := s.LookupType("Geo.Square"); !ok {
		t.Error("fresh catalog is incomplete")
	}
	if !strings.Contains(log.String(), "failed to cache catalog") {
		t.Errorf("warning not logged: %q", log.String())
	}
}

func TestSourceStamp(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, ".nstar-cache")
	src := filepath.Join(dir, "pkg", "a.go")
	os.MkdirAll(filepath.Dir(src), 0o755)
	os.MkdirAll(cacheDir, 0o755)
	os.WriteFile(src, []byte("package pkg\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/m\n"), 0o644)

	stamp := func() string {
		t.Helper()
		b, err := SourceStamp(dir, cacheDir)
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}
	first := stamp()
	if !strings.Contains(first, "pkg/a.go") || !strings.Contains(first, "go.mod") {
		t.Fatalf("stamp misses sources: %q", first)
	}

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(cacheDir, "catalog-x.yaml"), []byte("x"), 0o644)
	if stamp() != first {
		t.Error("non-Go files and the cache must not change the stamp")
	}

	later := time.Now().Add(time.Hour)
	os.WriteFile(src, []byte("package pkg\n\nfunc F() {}\n"), 0o644)
	os.Chtimes(src, later, later)
	if stamp() == first {
		t.Error("editing a Go file must change the stamp")
	}
}

func TestFingerprintIgnoresTrailingWhitespace(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.proto")
	b := filepath.Join(dir, "b.proto")
	os.WriteFile(a, []byte("message A {}  \nmessage B {}\n\n"), 0o644)
	os.WriteFile(b, []byte("message A {}\nmessage B {}"), 0o644)
	fa, err := Fingerprint(a)
	if err != nil {
		t.Fatal(err)
	}
	fb, _ := Fingerprint(b)
	if string(fa) != string(fb) {
		t.Errorf("fingerprints differ: %q vs %q", fa, fb)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "shapes.yaml"), []byte(shapesYAML), 0o644)
	os.MkdirAll(filepath.Join(dir, "protos"), 0o755)
	os.WriteFile(filepath.Join(dir, "protos", "shop.proto"), []byte(shopProto), 0o644)

	opts, err := config.ParseOptions([]byte(`
catalogs:
  - kind: yaml
    path: shapes.yaml
  - kind: proto
    path: protos/shop.proto
`), "nstar.yaml")
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}

	cat, err := Open(context.Background(), opts, dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !cat.Frozen() {
		t.Error("opened catalog should be frozen")
	}
	for _, path := range []string{"Geo.Square", "shop.Order"} {
		if _, ok := cat.LookupType(path); !ok {
			t.Errorf("%s missing from merged catalog", path)
		}
	}
	// The YAML catalog is first, so its alias for int wins.
	if n, _ := cat.NativePath("int"); n != "Int32" {
		t.Errorf("NativePath(int) = %q", n)
	}

	entries, err := os.ReadDir(filepath.Join(dir, opts.CacheDir))
	if err != nil || len(entries) != 1 {
		t.Errorf("proto catalog should be cached once: %v %v", entries, err)
	}
	if _, err := Open(context.Background(), opts, dir); err != nil {
		t.Fatalf("Open from cache: %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	opts := &config.Options{Catalogs: []config.CatalogSource{{Kind: "yaml", Path: "missing.yaml"}}}
	if _, err := Open(context.Background(), opts, t.TempDir()); err == nil {
		t.Error("expected an error for a missing catalog file")
	}
}
