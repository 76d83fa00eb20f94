// Package loader reads a configuration patch and named profiles from a file,
// JSCONFIG_* environment variables and command line flags using viper.
//
// Precedence, strongest first: changed flags, environment, file. Options that
// no source sets stay nil in the patch and keep their default.
package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	jsconfig "github.com/goliatone/go-jsconfig"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix prefixes environment variables, e.g. JSCONFIG_MAX_DEPTH.
const DefaultEnvPrefix = "JSCONFIG"

// ErrUnknownKeys reports keys in a source that match no option.
var ErrUnknownKeys = errors.New("loader: unknown configuration keys")

// Config describes where to look.
type Config struct {
	// File is an explicit path. A missing explicit file is an error.
	File string
	// Name and Paths drive the search used when File is empty. A missing
	// file is then not an error.
	Name  string
	Paths []string
	// EnvPrefix defaults to DefaultEnvPrefix.
	EnvPrefix string
	// Flags registered with RegisterFlags. Only changed flags are read.
	Flags *pflag.FlagSet
	// AllowUnknown accepts keys that match no option.
	AllowUnknown bool
}

// Result is what Load found.
type Result struct {
	Patch    jsconfig.Patch
	Profiles []jsconfig.Profile
	// File is the config file used, empty when none was found.
	File string
}

type document struct {
	jsconfig.Patch `mapstructure:",squash"`
	Profiles       []profileDocument `mapstructure:"profiles"`
}

type profileDocument struct {
	Name     string         `mapstructure:"name"`
	Label    string         `mapstructure:"label"`
	Priority int            `mapstructure:"priority"`
	Metadata map[string]any `mapstructure:"metadata"`
	Patch    jsconfig.Patch `mapstructure:"patch"`
}

// Load reads every source in cfg and validates the result.
func Load(cfg Config) (Result, error) {
	v := viper.New()
	prefix := cfg.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	keys := jsconfig.PatchKeys()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Result{}, fmt.Errorf("loader: bind env %q: %w", key, err)
		}
	}
	if cfg.Flags != nil {
		for _, key := range keys {
			flag := cfg.Flags.Lookup(FlagName(key))
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Result{}, fmt.Errorf("loader: bind flag %q: %w", flag.Name, err)
			}
		}
	}

	configureConfigFile(v, cfg)
	if err := readConfigFile(v, cfg.File != ""); err != nil {
		return Result{}, fmt.Errorf("loader: read config: %w", err)
	}

	if !cfg.AllowUnknown {
		if unknown := unknownKeys(v.AllKeys(), keys); len(unknown) > 0 {
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownKeys, strings.Join(unknown, ", "))
		}
	}

	var doc document
	if err := v.Unmarshal(&doc); err != nil {
		return Result{}, fmt.Errorf("loader: decode: %w", err)
	}
	if err := doc.Patch.Validate(); err != nil {
		return Result{}, err
	}

	result := Result{Patch: doc.Patch, File: v.ConfigFileUsed()}
	for _, p := range doc.Profiles {
		if err := p.Patch.Validate(); err != nil {
			return Result{}, fmt.Errorf("loader: profile %q: %w", p.Name, err)
		}
		result.Profiles = append(result.Profiles, jsconfig.NewProfile(
			p.Name, p.Priority, p.Patch,
			jsconfig.WithProfileLabel(p.Label),
			jsconfig.WithProfileMetadata(p.Metadata),
		))
	}
	if len(result.Profiles) > 0 {
		if _, err := jsconfig.NewProfileSet(result.Profiles...); err != nil {
			return Result{}, fmt.Errorf("loader: %w", err)
		}
	}
	return result, nil
}

// Snapshot applies the loaded patch to the defaults of rt.
func (r Result) Snapshot(rt *jsconfig.Runtime) (*jsconfig.Snapshot, error) {
	snapshot := rt.Defaults()
	if err := r.Patch.ResolveTypes(snapshot); err != nil {
		return nil, err
	}
	if err := r.Patch.Apply(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Init loads cfg and locks rt with the resulting snapshot.
func Init(rt *jsconfig.Runtime, cfg Config) (Result, error) {
	result, err := Load(cfg)
	if err != nil {
		return Result{}, err
	}
	snapshot, err := result.Snapshot(rt)
	if err != nil {
		return Result{}, err
	}
	if err := rt.Init(snapshot); err != nil {
		return Result{}, err
	}
	return result, nil
}

// RegisterFlags adds one string flag per option, e.g. --max-depth. Values are
// converted when loaded.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, key := range jsconfig.PatchKeys() {
		name := FlagName(key)
		if fs.Lookup(name) != nil {
			continue
		}
		fs.String(name, "", "override "+key)
	}
}

// FlagName converts an option key to its flag name.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func configureConfigFile(v *viper.Viper, cfg Config) {
	if cfg.File != "" {
		v.SetConfigFile(cfg.File)
		return
	}
	name := cfg.Name
	if name == "" {
		name = "jsconfig"
	}
	v.SetConfigName(name)
	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, dir := range paths {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, explicit bool) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && !explicit {
			return nil
		}
		return err
	}
	return nil
}

func unknownKeys(found, known []string) []string {
	allowed := make(map[string]struct{}, len(known)+1)
	for _, key := range known {
		allowed[key] = struct{}{}
	}
	allowed["profiles"] = struct{}{}

	var unknown []string
	for _, key := range found {
		if _, ok := allowed[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}
