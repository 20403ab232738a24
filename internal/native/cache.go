package native

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// cacheFormat is bumped when the catalog file format changes, so stale
// entries are ignored.
const cacheFormat = "catalog-v1"

// Cache stores marshalled catalogs keyed by a hash of their inputs, so that
// expensive loaders (Go package inspection, proto parsing) run once per
// input change.
type Cache struct {
	dir string

	// Log receives warnings; nil means os.Stderr.
	Log io.Writer
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the path to the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Key derives a deterministic cache key from the loader inputs.
func (c *Cache) Key(parts ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(cacheFormat))
	for _, p := range parts {
		h.Write([]byte("\x00"))
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, "catalog-"+key+".yaml")
}

// Lookup returns the cached catalog for key. Unreadable entries are removed
// and reported as misses.
func (c *Cache) Lookup(key string) (*Static, bool) {
	p := c.path(key)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	s, err := ParseYAML(data, p)
	if err != nil {
		os.Remove(p)
		return nil, false
	}
	return s, true
}

// Store writes a catalog under key.
func (c *Cache) Store(key string, s *Static) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := MarshalYAML(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Cached returns the catalog stored under key, or runs load and stores its
// result. hit reports whether the cache was used.
func (c *Cache) Cached(key string, load func() (*Static, error)) (s *Static, hit bool, err error) {
	if s, ok := c.Lookup(key); ok {
		return s, true, nil
	}
	s, err = load()
	if err != nil {
		return nil, false, err
	}
	if err := c.Store(key, s); err != nil {
		c.warnf("failed to cache catalog: %v", err)
	}
	return s, false, nil
}

func (c *Cache) warnf(format string, args ...any) {
	w := c.Log
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "[catalog] warning: "+format+"\n", args...)
}

// Clean removes all cached catalogs.
func (c *Cache) Clean() error {
	return os.RemoveAll(c.dir)
}

// Fingerprint returns file content normalised for cache keys: trailing
// whitespace on each line is ignored.
func Fingerprint(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	var normalized strings.Builder
	for _, line := range lines {
		normalized.WriteString(strings.TrimRight(line, " \t\r"))
		normalized.WriteString("\n")
	}
	return []byte(strings.TrimRight(normalized.String(), "\n")), nil
}

// SourceStamp summarises the Go sources under root by path, size and
// modification time, plus go.mod and go.sum. Hidden directories, testdata
// and skip (usually the cache directory) are not entered.
func SourceStamp(root, skip string) ([]byte, error) {
	var sb strings.Builder
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || name == "testdata" || path == skip) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") && name != "go.mod" && name != "go.sum" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		fmt.Fprintf(&sb, "%s %d %d\n", filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return []byte(sb.String()), nil
}
