package jsconfig

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	s := defaultsFor(false)
	if s.MaxDepth != DefaultMaxDepth {
		t.Fatalf("expected max depth %d, got %d", DefaultMaxDepth, s.MaxDepth)
	}
	if s.IncludeNullValues {
		t.Fatalf("null values should be excluded by default")
	}
	if s.ThrowOnError {
		t.Fatalf("non-strict defaults must not throw on error")
	}
	if s.TypeAttr != DefaultTypeAttr || s.JSONTypeAttrInObject != `{"__type":"` {
		t.Fatalf("unexpected type attr %q / %q", s.TypeAttr, s.JSONTypeAttrInObject)
	}
	if s.TypeWriter == nil || s.TypeFinder == nil || s.ModelFactory == nil {
		t.Fatalf("default strategies must be set")
	}
	if !s.ExcludeTypes.Has(readerType) {
		t.Fatalf("io.Reader should be excluded by default")
	}
	if !defaultsFor(true).ThrowOnError {
		t.Fatalf("strict defaults must throw on error")
	}
}

// sentinelSnapshot sets every field to a non-zero value that differs from
// the defaults. A new field of an unhandled kind fails the test.
func sentinelSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	s := &Snapshot{}
	v := reflect.ValueOf(s).Elem()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		name := v.Type().Field(i).Name
		switch field.Kind() {
		case reflect.Bool:
			field.SetBool(true)
		case reflect.Int:
			field.SetInt(3)
		case reflect.Uint16:
			field.SetUint(uint64(ParseAsDouble))
		case reflect.String:
			field.SetString("sentinel-" + strings.ToLower(name))
		case reflect.Slice:
			field.Set(reflect.ValueOf([]string{"Order.Secret"}))
		case reflect.Map:
			field.Set(reflect.ValueOf(NewTypeSet(reflect.TypeOf(time.Time{}))))
		case reflect.Func:
			fnType := field.Type()
			field.Set(reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
				out := make([]reflect.Value, fnType.NumOut())
				for j := range out {
					out[j] = reflect.Zero(fnType.Out(j))
				}
				return out
			}))
		default:
			t.Fatalf("field %s has unhandled kind %s", name, field.Kind())
		}
	}
	return s
}

func TestCopyIsExhaustive(t *testing.T) {
	source := sentinelSnapshot(t)
	copied := Copy(source)

	sv := reflect.ValueOf(source).Elem()
	cv := reflect.ValueOf(copied).Elem()
	for i := 0; i < sv.NumField(); i++ {
		name := sv.Type().Field(i).Name
		want, got := sv.Field(i), cv.Field(i)
		if got.IsZero() {
			t.Fatalf("field %s was not copied", name)
		}
		if want.Kind() == reflect.Func {
			if want.Pointer() != got.Pointer() {
				t.Fatalf("strategy %s should be aliased", name)
			}
			continue
		}
		if !reflect.DeepEqual(want.Interface(), got.Interface()) {
			t.Fatalf("field %s differs: %v != %v", name, want.Interface(), got.Interface())
		}
	}
}

func TestCopyIsIndependent(t *testing.T) {
	source := Defaults()
	source.ExcludePropertyReferences = []string{"User.Password"}
	copied := Copy(source)

	copied.ExcludePropertyReferences[0] = "changed"
	copied.ExcludeTypes[reflect.TypeOf(0)] = struct{}{}
	copied.MaxDepth = 1

	if source.ExcludePropertyReferences[0] != "User.Password" {
		t.Fatalf("property references are shared")
	}
	if source.ExcludeTypes.Has(reflect.TypeOf(0)) {
		t.Fatalf("excluded types are shared")
	}
	if source.MaxDepth != DefaultMaxDepth {
		t.Fatalf("source was modified")
	}
}

func TestCopyNilReturnsDefaults(t *testing.T) {
	s := Copy(nil)
	if s == nil || s.MaxDepth != DefaultMaxDepth {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestPopulateChains(t *testing.T) {
	source := Defaults().With(WithMaxDepth(9), WithTextCase(TextCaseCamelCase))
	target := &Snapshot{}
	if got := target.Populate(source); got != target {
		t.Fatalf("populate should return the receiver")
	}
	if target.MaxDepth != 9 || target.TextCase != TextCaseCamelCase {
		t.Fatalf("populate did not copy values")
	}
	if target.Populate(nil) != target || target.MaxDepth != 9 {
		t.Fatalf("populate(nil) should leave the receiver alone")
	}
}

func TestWithLeavesSourceAlone(t *testing.T) {
	source := Defaults()
	derived := source.With(WithThrowOnError(true), WithTypeAttr("$type"), WithMaxDepth(9))
	if !derived.ThrowOnError {
		t.Fatalf("override not applied")
	}
	if source.TypeAttr != DefaultTypeAttr {
		t.Fatalf("source modified")
	}
	if derived.JSVTypeAttrInObject != "{$type:" {
		t.Fatalf("type attr prefixes not derived, got %q", derived.JSVTypeAttrInObject)
	}
	if derived.MaxDepth != 9 || source.MaxDepth != DefaultMaxDepth {
		t.Fatalf("unexpected depths derived=%d source=%d", derived.MaxDepth, source.MaxDepth)
	}
}

func TestMaxDepthIsCheckedAtThePatchBoundary(t *testing.T) {
	if got := Defaults().With(WithMaxDepth(-1)).MaxDepth; got != -1 {
		t.Fatalf("WithMaxDepth should store its argument, got %d", got)
	}
	negative := PatchFrom(Defaults().With(WithMaxDepth(-1)))
	if err := negative.Validate(); err == nil || !strings.Contains(err.Error(), "max_depth") {
		t.Fatalf("expected a negative max_depth to be rejected, got %v", err)
	}
	zero := Patch{MaxDepth: ptr(0)}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero depth is valid: %v", err)
	}
}

func TestValuesUsesPatchKeys(t *testing.T) {
	values := Defaults().Values()
	for _, key := range PatchKeys() {
		if _, ok := values[key]; !ok {
			t.Fatalf("values missing key %q", key)
		}
	}
	if len(values) != len(PatchKeys()) {
		t.Fatalf("values has %d keys, patch has %d", len(values), len(PatchKeys()))
	}
	if values["date_handler"] != "timestamp_offset" {
		t.Fatalf("enums should be rendered by name, got %v", values["date_handler"])
	}
}

func TestEnumRoundTrip(t *testing.T) {
	for _, name := range dateHandlerNames {
		h, err := ParseDateHandler(name)
		if err != nil || h.String() != name {
			t.Fatalf("date handler %q: %v %v", name, h, err)
		}
	}
	if _, err := ParseTextCase("kebab"); err == nil {
		t.Fatalf("expected unknown text case to fail")
	}
	if tc, err := ParseTextCase("CamelCase"); err != nil || tc != TextCaseCamelCase {
		t.Fatalf("expected separator-free names to parse, got %v %v", tc, err)
	}

	p, err := ParseParseAsType("integers|double")
	if err != nil {
		t.Fatalf("parse-as: %v", err)
	}
	if !p.Has(ParseAsInt32) || !p.Has(ParseAsDouble) || p.Has(ParseAsDecimal) {
		t.Fatalf("unexpected parse-as set %s", p)
	}
	back, err := ParseParseAsType(p.String())
	if err != nil || back != p {
		t.Fatalf("parse-as round trip: %v %v", back, err)
	}
	if ParseAsNone.String() != "none" {
		t.Fatalf("expected none")
	}
}

func TestTypeRegistry(t *testing.T) {
	type local struct{}
	typ := reflect.TypeOf(local{})
	if err := RegisterType("test.local", typ); err != nil {
		t.Fatalf("register: %v", err)
	}
	if DefaultTypeFinder("test.local") != typ {
		t.Fatalf("expected finder to resolve registered type")
	}
	if err := RegisterType("test.local", reflect.TypeOf(0)); err == nil {
		t.Fatalf("expected conflicting registration to fail")
	}
	if DefaultTypeFinder(DefaultTypeWriter(readerType)) != readerType {
		t.Fatalf("io.Reader should be registered by default")
	}
	if _, ok := DefaultModelFactory(typ)().(*local); !ok {
		t.Fatalf("model factory should return a pointer")
	}
}
