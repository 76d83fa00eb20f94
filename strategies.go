package jsconfig

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"
)

// TypeWriterFunc renders the type discriminator written for a value.
type TypeWriterFunc func(reflect.Type) string

// TypeFinderFunc resolves a type discriminator back into a type. It returns nil
// when the name is unknown.
type TypeFinderFunc func(name string) reflect.Type

// ParsePrimitiveFunc parses an untyped scalar. A nil result defers to the
// serializer's built-in parsing.
type ParsePrimitiveFunc func(text string) any

// DeserializationErrorFunc observes property-level decode failures.
type DeserializationErrorFunc func(instance any, propertyType reflect.Type, propertyName, propertyValueText string, err error)

// ModelFactoryFunc returns a constructor for instances of t.
type ModelFactoryFunc func(t reflect.Type) func() any

var typeRegistry sync.Map

// RegisterType makes t discoverable by DefaultTypeFinder under name. An empty
// name registers t under DefaultTypeWriter(t).
func RegisterType(name string, t reflect.Type) error {
	if t == nil {
		return fmt.Errorf("jsconfig: cannot register nil type")
	}
	if name == "" {
		name = DefaultTypeWriter(t)
	}
	if existing, loaded := typeRegistry.LoadOrStore(name, t); loaded && existing.(reflect.Type) != t {
		return fmt.Errorf("jsconfig: type name %q already registered for %s", name, existing)
	}
	return nil
}

// DefaultTypeWriter writes "pkgpath.Name" for named types and the Go syntax
// of the type otherwise.
func DefaultTypeWriter(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// DefaultTypeFinder looks name up in the RegisterType registry.
func DefaultTypeFinder(name string) reflect.Type {
	if value, ok := typeRegistry.Load(name); ok {
		return value.(reflect.Type)
	}
	return nil
}

// DefaultModelFactory allocates a new zero value of t and returns a pointer.
func DefaultModelFactory(t reflect.Type) func() any {
	if t == nil {
		return nil
	}
	return func() any {
		return reflect.New(t).Interface()
	}
}

// TypeSet is a set of types excluded from serialization.
type TypeSet map[reflect.Type]struct{}

// NewTypeSet builds a set from types, skipping nil entries.
func NewTypeSet(types ...reflect.Type) TypeSet {
	set := make(TypeSet, len(types))
	for _, t := range types {
		if t != nil {
			set[t] = struct{}{}
		}
	}
	return set
}

// Has reports whether t is in the set.
func (s TypeSet) Has(t reflect.Type) bool {
	_, ok := s[t]
	return ok
}

// Clone returns an independent copy; nil stays nil.
func (s TypeSet) Clone() TypeSet {
	if s == nil {
		return nil
	}
	out := make(TypeSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Names renders the set through writer (DefaultTypeWriter when nil), sorted.
func (s TypeSet) Names(writer TypeWriterFunc) []string {
	if len(s) == 0 {
		return nil
	}
	if writer == nil {
		writer = DefaultTypeWriter
	}
	names := make([]string, 0, len(s))
	for t := range s {
		names = append(names, writer(t))
	}
	sort.Strings(names)
	return names
}

var readerType = reflect.TypeOf((*io.Reader)(nil)).Elem()

func init() {
	_ = RegisterType("", readerType)
}
