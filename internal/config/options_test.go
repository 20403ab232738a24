package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := ParseOptions([]byte("{}\n"), "nstar.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.MaxDepth != DefaultMaxDepth {
		t.Errorf("max_depth = %d, want %d", opts.MaxDepth, DefaultMaxDepth)
	}
	if opts.TupleListLimit != DefaultTupleListLimit {
		t.Errorf("tuple_list_limit = %d, want %d", opts.TupleListLimit, DefaultTupleListLimit)
	}
	if opts.CacheDir == "" {
		t.Error("expected a default cache_dir")
	}
}

func TestParseOptions_Catalogs(t *testing.T) {
	yaml := `
max_depth: 12
catalogs:
  - kind: yaml
    path: host.yaml
  - kind: go
    packages: [time, strings]
  - kind: proto
    path: api/greeter.proto
    import_paths: [api]
  - kind: grpc
    target: localhost:50051
`
	opts, err := ParseOptions([]byte(yaml), "nstar.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.MaxDepth != 12 {
		t.Errorf("max_depth = %d, want 12", opts.MaxDepth)
	}
	if len(opts.Catalogs) != 4 {
		t.Fatalf("catalogs len = %d, want 4", len(opts.Catalogs))
	}
	if got := opts.Catalogs[1].Packages; len(got) != 2 || got[0] != "time" {
		t.Errorf("packages = %v", got)
	}
	if opts.Catalogs[3].Target != "localhost:50051" {
		t.Errorf("target = %q", opts.Catalogs[3].Target)
	}
}

func TestParseOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative depth", "max_depth: -1\n"},
		{"negative tuple limit", "tuple_list_limit: -3\n"},
		{"missing kind", "catalogs:\n  - path: x.yaml\n"},
		{"unknown kind", "catalogs:\n  - kind: jar\n"},
		{"yaml without path", "catalogs:\n  - kind: yaml\n"},
		{"go without packages", "catalogs:\n  - kind: go\n"},
		{"grpc without target", "catalogs:\n  - kind: grpc\n"},
		{"malformed", "catalogs: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOptions([]byte(tt.yaml), "nstar.yaml"); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestFindOptions_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "nstar.yaml")
	if err := os.WriteFile(want, []byte("max_depth: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FindOptions(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("FindOptions = %q, want %q", got, want)
	}

	opts, err := LoadOptions(got)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.MaxDepth != 8 {
		t.Errorf("max_depth = %d, want 8", opts.MaxDepth)
	}
}
