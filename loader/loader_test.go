package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	jsconfig "github.com/goliatone/go-jsconfig"
	"github.com/spf13/pflag"
)

const sampleConfig = `
max_depth: 10
text_case: camel_case
exclude_property_references:
  - Order.Secret
profiles:
  - name: tenant
    priority: 200
    label: tenant overrides
    patch:
      include_null_values: true
  - name: request
    priority: 300
    patch:
      max_depth: 3
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsFileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, "jsconfig.yaml", sampleConfig)
	t.Setenv("JSCONFIG_THROW_ON_ERROR", "true")
	t.Setenv("JSCONFIG_TEXT_CASE", "snake_case")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--date-handler=iso8601", "--max-depth=12"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	result, err := Load(Config{File: path, Flags: fs})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := result.Patch
	if p.MaxDepth == nil || *p.MaxDepth != 12 {
		t.Fatalf("expected flag to win for max_depth, got %v", p.MaxDepth)
	}
	if p.TextCase == nil || *p.TextCase != "snake_case" {
		t.Fatalf("expected env to win for text_case, got %v", p.TextCase)
	}
	if p.ThrowOnError == nil || !*p.ThrowOnError {
		t.Fatalf("expected throw_on_error from env, got %v", p.ThrowOnError)
	}
	if p.DateHandler == nil || *p.DateHandler != "iso8601" {
		t.Fatalf("expected date_handler from flag, got %v", p.DateHandler)
	}
	if len(p.ExcludePropertyReferences) != 1 || p.ExcludePropertyReferences[0] != "Order.Secret" {
		t.Fatalf("unexpected property references %v", p.ExcludePropertyReferences)
	}
	if p.IncludeNullValues != nil {
		t.Fatalf("unset option should stay nil")
	}
	if result.File != path {
		t.Fatalf("expected file %q, got %q", path, result.File)
	}

	if len(result.Profiles) != 2 {
		t.Fatalf("expected two profiles, got %d", len(result.Profiles))
	}
	tenant := result.Profiles[0]
	if tenant.Name != "tenant" || tenant.Label != "tenant overrides" || tenant.Priority != 200 {
		t.Fatalf("unexpected profile %+v", tenant)
	}
	if tenant.Patch.IncludeNullValues == nil || !*tenant.Patch.IncludeNullValues {
		t.Fatalf("expected profile patch to decode")
	}
}

func TestLoadIgnoresUnchangedFlags(t *testing.T) {
	path := writeConfig(t, "jsconfig.yaml", "max_depth: 7\n")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	result, err := Load(Config{File: path, Flags: fs})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Patch.MaxDepth == nil || *result.Patch.MaxDepth != 7 {
		t.Fatalf("expected file value, got %v", result.Patch.MaxDepth)
	}
	if result.Patch.DateHandler != nil {
		t.Fatalf("unchanged flag must not set an option")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(Config{File: filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}

func TestLoadSearchWithoutFile(t *testing.T) {
	result, err := Load(Config{Paths: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !result.Patch.IsEmpty() {
		t.Fatalf("expected empty patch, got %+v", result.Patch)
	}
	if result.File != "" {
		t.Fatalf("expected no file, got %q", result.File)
	}
}

func TestLoadSearchFindsNamedFile(t *testing.T) {
	path := writeConfig(t, "serializer.yaml", "assume_utc: true\n")
	result, err := Load(Config{Name: "serializer", Paths: []string{filepath.Dir(path)}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Patch.AssumeUTC == nil || !*result.Patch.AssumeUTC {
		t.Fatalf("expected assume_utc from searched file")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "jsconfig.yaml", "max_depth: 5\nmax_dept: 6\n")
	_, err := Load(Config{File: path})
	if !errors.Is(err, ErrUnknownKeys) {
		t.Fatalf("expected ErrUnknownKeys, got %v", err)
	}

	if _, err := Load(Config{File: path, AllowUnknown: true}); err != nil {
		t.Fatalf("expected unknown keys to be allowed: %v", err)
	}
}

func TestLoadRejectsInvalidEnum(t *testing.T) {
	path := writeConfig(t, "jsconfig.yaml", "date_handler: sometimes\n")
	if _, err := Load(Config{File: path}); err == nil {
		t.Fatalf("expected invalid enum to fail")
	}
}

func TestLoadRejectsDuplicateProfiles(t *testing.T) {
	body := "profiles:\n  - name: a\n    priority: 100\n  - name: a\n    priority: 200\n"
	path := writeConfig(t, "jsconfig.yaml", body)
	_, err := Load(Config{File: path})
	if !errors.Is(err, jsconfig.ErrDuplicateProfileName) {
		t.Fatalf("expected duplicate profile error, got %v", err)
	}
}

func TestInitLocksRuntime(t *testing.T) {
	path := writeConfig(t, "jsconfig.yaml", "max_depth: 9\ntext_case: pascal_case\n")
	rt := jsconfig.New(jsconfig.WithStrictMode(true))

	if _, err := Init(rt, Config{File: path}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !rt.Global().Locked() {
		t.Fatalf("expected runtime to be locked")
	}
	current := rt.Current(context.Background())
	if current.MaxDepth != 9 || current.TextCase != jsconfig.TextCasePascalCase {
		t.Fatalf("unexpected snapshot max_depth=%d text_case=%s", current.MaxDepth, current.TextCase)
	}
	if !current.ThrowOnError {
		t.Fatalf("strict runtime defaults should throw on error")
	}

	if _, err := Init(rt, Config{File: path}); !errors.Is(err, jsconfig.ErrAlreadyInitialized) {
		t.Fatalf("expected second init to fail in strict mode, got %v", err)
	}
}
