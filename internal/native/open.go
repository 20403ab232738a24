package native

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nstar-lang/nstar/internal/config"
)

// Open loads and merges every catalog listed in opts. Relative paths are
// resolved against baseDir (the directory of nstar.yaml). Go and proto
// catalogs go through the on-disk cache; gRPC catalogs are always fetched.
// Earlier sources win when two define the same type.
func Open(ctx context.Context, opts *config.Options, baseDir string) (*Static, error) {
	cacheDir := opts.CacheDir
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(baseDir, cacheDir)
	}
	cache := NewCache(cacheDir)

	merged := NewStatic()
	for i, src := range opts.Catalogs {
		s, err := openSource(ctx, cache, src, baseDir, cacheDir)
		if err != nil {
			return nil, fmt.Errorf("catalogs[%d] (%s): %w", i, src.Kind, err)
		}
		if err := merged.Merge(s); err != nil {
			return nil, err
		}
	}
	return merged.Freeze(), nil
}

func openSource(ctx context.Context, cache *Cache, src config.CatalogSource, baseDir, cacheDir string) (*Static, error) {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	switch src.Kind {
	case "yaml":
		return LoadYAML(resolve(src.Path))

	case "go":
		stamp, err := SourceStamp(baseDir, cacheDir)
		if err != nil {
			return nil, err
		}
		key := cache.Key([]byte("go"), []byte(baseDir), []byte(strings.Join(src.Packages, "\n")), stamp)
		s, _, err := cache.Cached(key, func() (*Static, error) {
			return LoadGoPackages(baseDir, src.Packages...)
		})
		return s, err

	case "proto":
		path := resolve(src.Path)
		content, err := Fingerprint(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		imports := make([]string, len(src.ImportPaths))
		for i, p := range src.ImportPaths {
			imports[i] = resolve(p)
		}
		if len(imports) == 0 {
			imports = []string{filepath.Dir(path)}
		}
		key := cache.Key([]byte("proto"), content, []byte(strings.Join(imports, "\n")))
		s, _, err := cache.Cached(key, func() (*Static, error) {
			rel, err := relativeTo(imports, path)
			if err != nil {
				return nil, err
			}
			return LoadProto(imports, rel)
		})
		return s, err

	case "grpc":
		return DialReflection(ctx, src.Target)
	}
	return nil, fmt.Errorf("unknown catalog kind %q", src.Kind)
}

// relativeTo expresses path relative to the first import directory that
// contains it, as protoparse expects.
func relativeTo(imports []string, path string) (string, error) {
	for _, dir := range imports {
		rel, err := filepath.Rel(dir, path)
		if err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel), nil
		}
	}
	return "", fmt.Errorf("%s is not under any import path", path)
}
