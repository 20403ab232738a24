package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Options represents the top-level nstar.yaml configuration.
type Options struct {
	// MaxDepth bounds the recursion depth of every type and compatibility
	// algorithm. Exceeding it yields a TooComplexError instead of a stack fault.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// TupleListLimit is the largest tuple that may convert implicitly to a list.
	TupleListLimit int `yaml:"tuple_list_limit,omitempty"`

	// CacheDir holds marshalled native catalogs (relative to the config file).
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Catalogs lists the native member catalogs loaded at start-up.
	Catalogs []CatalogSource `yaml:"catalogs,omitempty"`
}

// CatalogSource describes where a native member catalog comes from.
type CatalogSource struct {
	// Kind is one of "yaml", "go", "proto" or "grpc".
	Kind string `yaml:"kind"`

	// Path is the YAML catalog file or the .proto file (kinds yaml, proto).
	Path string `yaml:"path,omitempty"`

	// Packages are Go import paths to introspect (kind go).
	Packages []string `yaml:"packages,omitempty"`

	// ImportPaths are proto include directories (kind proto).
	ImportPaths []string `yaml:"import_paths,omitempty"`

	// Target is a gRPC server address exposing the reflection service (kind grpc).
	Target string `yaml:"target,omitempty"`
}

// DefaultOptions returns options with every default applied.
func DefaultOptions() *Options {
	opts := &Options{}
	opts.setDefaults()
	return opts
}

// LoadOptions reads and parses an nstar.yaml file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseOptions(data, path)
}

// ParseOptions parses nstar.yaml content from bytes.
// The path argument is used only for error messages.
func ParseOptions(data []byte, path string) (*Options, error) {
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := opts.validate(path); err != nil {
		return nil, err
	}
	opts.setDefaults()
	return &opts, nil
}

// FindOptions searches for nstar.yaml starting from dir and walking up to
// parent directories. Returns "" and a nil error when no file exists.
func FindOptions(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (o *Options) validate(path string) error {
	if o.MaxDepth < 0 {
		return fmt.Errorf("%s: max_depth must not be negative", path)
	}
	if o.TupleListLimit < 0 {
		return fmt.Errorf("%s: tuple_list_limit must not be negative", path)
	}

	for i, src := range o.Catalogs {
		switch src.Kind {
		case "yaml", "proto":
			if src.Path == "" {
				return fmt.Errorf("%s: catalogs[%d]: path is required for kind %q", path, i, src.Kind)
			}
		case "go":
			if len(src.Packages) == 0 {
				return fmt.Errorf("%s: catalogs[%d]: packages is required for kind go", path, i)
			}
		case "grpc":
			if src.Target == "" {
				return fmt.Errorf("%s: catalogs[%d]: target is required for kind grpc", path, i)
			}
		case "":
			return fmt.Errorf("%s: catalogs[%d]: kind is required", path, i)
		default:
			return fmt.Errorf("%s: catalogs[%d]: unknown kind %q", path, i, src.Kind)
		}
	}
	return nil
}

func (o *Options) setDefaults() {
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.TupleListLimit == 0 {
		o.TupleListLimit = DefaultTupleListLimit
	}
	if o.CacheDir == "" {
		o.CacheDir = filepath.Join(".nstar", "catalog-cache")
	}
}
