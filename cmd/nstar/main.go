package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/nstar-lang/nstar/internal/analyzer"
	"github.com/nstar-lang/nstar/internal/config"
	"github.com/nstar-lang/nstar/internal/native"
	"github.com/nstar-lang/nstar/internal/symbols"
	"github.com/nstar-lang/nstar/internal/typesystem"
)

const usage = `Usage: nstar <command> [arguments]

Commands:
  catalog yaml <file>                 normalise a YAML catalog
  catalog go <dir> <pattern>...       describe Go packages as a YAML catalog
  catalog proto <file> [-I dir]...    describe .proto files as a YAML catalog
  catalog grpc <target>               describe a server via gRPC reflection
  compat <src> <dst>                  can a <src> value be used as <dst>?
  promote <a> <b>                     result type of a binary arithmetic operation
  show <type>                         canonical display form and host mapping
  help                                this message

Types use the display syntax, e.g. "list(2) int", "(int^3)", "Geo.Box[long]".
compat, promote and show load the catalogs listed in the nearest nstar.yaml.
`

const grpcTimeout = 10 * time.Second

// color wraps s in an ANSI colour when stdout is a terminal.
func color(code, s string) string {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return s
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("nstar: ")
	log.SetOutput(os.Stderr)

	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			var inv *typesystem.InvariantError
			if err, ok := r.(error); ok && errors.As(err, &inv) {
				log.Fatalf("internal error: %v", inv)
			}
			log.Fatalf("internal error: %v", r)
		}
	}()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "help", "-help", "--help":
		fmt.Print(usage)
		return
	case "catalog":
		err = handleCatalog(os.Args[2:])
	case "compat":
		err = handleCompat(os.Args[2:])
	case "promote":
		err = handlePromote(os.Args[2:])
	case "show":
		err = handleShow(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func handleCatalog(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: nstar catalog yaml|go|proto|grpc <source>...")
	}
	var (
		cat *native.Static
		err error
	)
	switch args[0] {
	case "yaml":
		cat, err = native.LoadYAML(args[1])
	case "go":
		if len(args) < 3 {
			return errors.New("usage: nstar catalog go <dir> <pattern>...")
		}
		cat, err = native.LoadGoPackages(args[1], args[2:]...)
	case "proto":
		var files, imports []string
		for i := 1; i < len(args); i++ {
			switch {
			case args[i] == "-I" && i+1 < len(args):
				imports = append(imports, args[i+1])
				i++
			case strings.HasPrefix(args[i], "-I"):
				imports = append(imports, strings.TrimPrefix(args[i], "-I"))
			default:
				files = append(files, args[i])
			}
		}
		cat, err = native.LoadProto(imports, files...)
	case "grpc":
		ctx, cancel := context.WithTimeout(context.Background(), grpcTimeout)
		defer cancel()
		cat, err = native.DialReflection(ctx, args[1])
	default:
		return fmt.Errorf("unknown catalog kind %q", args[0])
	}
	if err != nil {
		return err
	}
	out, err := native.MarshalYAML(cat)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

// openEngine builds an engine over a fresh context and the catalogs named
// by the nearest nstar.yaml. Without a config file the defaults apply and
// the catalog is empty.
func openEngine() (*analyzer.Engine, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	path, err := config.FindOptions(wd)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return analyzer.New(symbols.NewContext(), nil, nil), nil
	}
	opts, err := config.LoadOptions(path)
	if err != nil {
		return nil, err
	}
	cat, err := native.Open(context.Background(), opts, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("loading catalogs from %s: %w", path, err)
	}
	return analyzer.New(symbols.NewContext(), cat, opts), nil
}

// resolveType parses s and, when it names a host type, takes the host's
// view of it so that aliases and declared kinds apply.
func resolveType(e *analyzer.Engine, s string) (typesystem.NStarType, error) {
	t, err := typesystem.ParseType(s)
	if err != nil {
		return typesystem.NStarType{}, err
	}
	if ref, ok := e.ModelToNative(t); ok {
		if m, ok := e.NativeTypeToModel(ref); ok {
			return m, nil
		}
	}
	return t, nil
}

func resolveTypes(e *analyzer.Engine, args []string) ([]typesystem.NStarType, error) {
	out := make([]typesystem.NStarType, len(args))
	for i, a := range args {
		t, err := resolveType(e, a)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func handleCompat(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: nstar compat <src> <dst>")
	}
	e, err := openEngine()
	if err != nil {
		return err
	}
	ts, err := resolveTypes(e, args)
	if err != nil {
		return err
	}
	c, err := e.IsCompatible(ts[0], ts[1])
	if err != nil {
		return err
	}
	switch {
	case !c.OK:
		fmt.Printf("%s %s -> %s\n", color("31", "incompatible"), ts[0], ts[1])
		if c.ExtraMessage != "" {
			fmt.Printf("  %s\n", c.ExtraMessage)
		}
		os.Exit(1)
	case c.Warning:
		fmt.Printf("%s %s -> %s\n", color("33", "warning"), ts[0], ts[1])
	default:
		fmt.Printf("%s %s -> %s\n", color("32", "ok"), ts[0], ts[1])
	}
	fmt.Printf("  conversion: %s\n", c.Conversion)
	return nil
}

func handlePromote(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: nstar promote <a> <b>")
	}
	e, err := openEngine()
	if err != nil {
		return err
	}
	ts, err := resolveTypes(e, args)
	if err != nil {
		return err
	}
	left, right, ok := e.PromotionAdapters(ts[0], ts[1])
	if !ok {
		fmt.Printf("%s no arithmetic result for %s and %s\n", color("31", "none"), ts[0], ts[1])
		os.Exit(1)
	}
	result, _ := e.PrimitiveResultType(ts[0], ts[1])
	fmt.Println(result)
	fmt.Printf("  left:  %s\n  right: %s\n", left, right)
	return nil
}

func handleShow(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: nstar show <type>")
	}
	e, err := openEngine()
	if err != nil {
		return err
	}
	t, err := resolveType(e, args[0])
	if err != nil {
		return err
	}
	typesystem.Validate(t)
	fmt.Println(t)
	fmt.Printf("  depth: %d\n", t.Depth())
	if n, leaf := typesystem.PeelList(t); n > 0 {
		fmt.Printf("  list:  %d x %s\n", n, leaf)
	}
	if ref, ok := e.ModelToNative(t); ok {
		fmt.Printf("  host:  %s\n", ref)
	}
	return nil
}
