package native

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned when mutating a frozen catalog.
var ErrFrozen = errors.New("catalog is frozen")

// Static is an in-memory Catalog. It is filled by a loader and then frozen;
// a frozen catalog is read-only and safe to share.
type Static struct {
	types      map[string]*TypeInfo
	order      []string
	primitives map[string]string
	aliases    []string
	natives    map[string]string
	frozen     bool
}

// NewStatic creates an empty catalog.
func NewStatic() *Static {
	return &Static{
		types:      make(map[string]*TypeInfo),
		primitives: make(map[string]string),
		natives:    make(map[string]string),
	}
}

// AddType registers a type. Paths must be unique.
func (s *Static) AddType(t TypeInfo) error {
	if s.frozen {
		return ErrFrozen
	}
	path := t.Path()
	if _, exists := s.types[path]; exists {
		return fmt.Errorf("duplicate host type %s", path)
	}
	for i := range t.Properties {
		if t.Properties[i].Declaring == "" {
			t.Properties[i].Declaring = path
		}
	}
	for i := range t.Constants {
		if t.Constants[i].Declaring == "" {
			t.Constants[i].Declaring = path
		}
	}
	s.types[path] = &t
	s.order = append(s.order, path)
	return nil
}

// AliasPrimitive records that nativePath denotes the model primitive. The
// first alias registered for a model primitive is its canonical native path.
func (s *Static) AliasPrimitive(nativePath, model string) error {
	if s.frozen {
		return ErrFrozen
	}
	if _, ok := s.primitives[nativePath]; !ok {
		s.aliases = append(s.aliases, nativePath)
	}
	s.primitives[nativePath] = model
	if _, ok := s.natives[model]; !ok {
		s.natives[model] = nativePath
	}
	return nil
}

// Merge copies every type and alias of other into s. Types already present
// in s are kept.
func (s *Static) Merge(other *Static) error {
	if s.frozen {
		return ErrFrozen
	}
	for _, native := range other.aliases {
		if _, ok := s.primitives[native]; !ok {
			s.AliasPrimitive(native, other.primitives[native])
		}
	}
	for _, path := range other.order {
		if _, ok := s.types[path]; ok {
			continue
		}
		s.types[path] = other.types[path]
		s.order = append(s.order, path)
	}
	return nil
}

// Freeze makes the catalog read-only and returns it.
func (s *Static) Freeze() *Static {
	s.frozen = true
	return s
}

// Frozen reports whether Freeze was called.
func (s *Static) Frozen() bool { return s.frozen }

func (s *Static) LookupType(path string) (*TypeInfo, bool) {
	t, ok := s.types[path]
	return t, ok
}

func (s *Static) Types() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Aliases lists the aliased host paths in registration order.
func (s *Static) Aliases() []string {
	out := make([]string, len(s.aliases))
	copy(out, s.aliases)
	return out
}

func (s *Static) Primitive(nativePath string) (string, bool) {
	m, ok := s.primitives[nativePath]
	return m, ok
}

func (s *Static) NativePath(model string) (string, bool) {
	n, ok := s.natives[model]
	return n, ok
}

// Methods returns the overloads called name on the type and its bases.
// Overloads declared closer to the type come first.
func (s *Static) Methods(typePath, name string) []Callable {
	var out []Callable
	s.eachBase(typePath, func(t *TypeInfo) bool {
		for _, m := range t.Methods {
			if m.Name == name {
				out = append(out, m)
			}
		}
		return true
	})
	return out
}

// Constructors are not inherited.
func (s *Static) Constructors(typePath string) []Callable {
	t, ok := s.types[typePath]
	if !ok {
		return nil
	}
	out := make([]Callable, len(t.Constructors))
	copy(out, t.Constructors)
	return out
}

func (s *Static) Property(typePath, name string) (Property, bool) {
	var found Property
	var ok bool
	s.eachBase(typePath, func(t *TypeInfo) bool {
		for _, p := range t.Properties {
			if p.Name == name {
				found, ok = p, true
				return false
			}
		}
		return true
	})
	return found, ok
}

func (s *Static) Constant(typePath, name string) (Constant, bool) {
	var found Constant
	var ok bool
	s.eachBase(typePath, func(t *TypeInfo) bool {
		for _, c := range t.Constants {
			if c.Name == name {
				found, ok = c, true
				return false
			}
		}
		return true
	})
	return found, ok
}

// eachBase visits the type and then its base chain until fn returns false.
// A cyclic chain stops at the first repeated type.
func (s *Static) eachBase(typePath string, fn func(*TypeInfo) bool) {
	seen := make(map[string]bool)
	for typePath != "" && !seen[typePath] {
		seen[typePath] = true
		t, ok := s.types[typePath]
		if !ok || !fn(t) {
			return
		}
		if t.Base == nil {
			return
		}
		typePath = t.Base.Path
	}
}

var _ Catalog = (*Static)(nil)
