package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jsconfig "github.com/goliatone/go-jsconfig"
)

var (
	// ErrETagMismatch reports a Mutate whose expected ETag is stale.
	ErrETagMismatch = errors.New("state: etag mismatch")
	// ErrNoProfiles reports a Resolve where no ref was found.
	ErrNoProfiles = errors.New("state: no profiles found")
)

// Ref identifies one stored profile, optionally owned by a tenant.
type Ref struct {
	Name   string
	Tenant string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves a single profile for a single Ref. A non-empty
// meta.ETag passed to Save is a precondition: the save fails with
// ErrETagMismatch unless the stored revision still carries that ETag.
type Store interface {
	Load(ctx context.Context, ref Ref) (profile jsconfig.Profile, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, profile jsconfig.Profile, meta Meta) (Meta, error)
}

// Mutator edits a profile in place.
type Mutator func(*jsconfig.Profile) error

// Resolver loads profiles from Store and turns them into scopes.
type Resolver struct {
	Store Store
}

// Identifier is the canonical storage key: "profiles/<name>" or
// "tenants/<tenant>/profiles/<name>".
func (r Ref) Identifier() (string, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "", fmt.Errorf("state: profile name is required")
	}
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("state: profile name %q must not contain '/'", name)
	}
	tenant := strings.TrimSpace(r.Tenant)
	if tenant == "" {
		return "profiles/" + name, nil
	}
	if strings.Contains(tenant, "/") {
		return "", fmt.Errorf("state: tenant %q must not contain '/'", tenant)
	}
	return "tenants/" + tenant + "/profiles/" + name, nil
}

// Resolve loads every ref and validates the result as a profile set. Refs
// that are not stored are skipped.
func (r Resolver) Resolve(ctx context.Context, refs ...Ref) (*jsconfig.ProfileSet, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("state: at least one ref is required")
	}

	profiles := make([]jsconfig.Profile, 0, len(refs))
	for _, ref := range refs {
		profile, meta, ok, err := r.Store.Load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("state: load profile %q: %w", ref.Name, err)
		}
		if !ok {
			continue
		}
		if meta.SnapshotID != "" {
			profile.SnapshotID = meta.SnapshotID
		}
		profiles = append(profiles, profile)
	}
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}
	return jsconfig.NewProfileSet(profiles...)
}

// Begin resolves refs and opens one scope on rt with the merged profiles.
func (r Resolver) Begin(ctx context.Context, rt *jsconfig.Runtime, refs ...Ref) (context.Context, *jsconfig.Guard, error) {
	if rt == nil {
		return ctx, nil, fmt.Errorf("state: runtime is required")
	}
	set, err := r.Resolve(ctx, refs...)
	if err != nil {
		return ctx, nil, err
	}
	return rt.BeginProfiles(ctx, set.Profiles()...)
}

// Mutate loads one profile, applies fn, validates the patch and saves it.
// A non-empty meta.ETag must match the stored revision. The save is
// conditional on the revision that was loaded, so of two concurrent mutations
// of the same revision only one is stored.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (jsconfig.Profile, Meta, error) {
	if r.Store == nil {
		return jsconfig.Profile{}, Meta{}, fmt.Errorf("state: store is required")
	}
	if fn == nil {
		return jsconfig.Profile{}, Meta{}, fmt.Errorf("state: mutator is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return jsconfig.Profile{}, Meta{}, err
	}

	profile, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return jsconfig.Profile{}, Meta{}, fmt.Errorf("state: load profile %q: %w", ref.Name, err)
	}
	if !ok {
		profile = jsconfig.NewProfile(ref.Name, 0, jsconfig.Patch{})
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return jsconfig.Profile{}, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&profile); err != nil {
		return jsconfig.Profile{}, loadedMeta, err
	}
	profile.Name = ref.Name
	if err := profile.Patch.Validate(); err != nil {
		return jsconfig.Profile{}, loadedMeta, err
	}

	next := mergeMeta(loadedMeta, meta)
	next.ETag = loadedMeta.ETag
	saved, err := r.Store.Save(ctx, ref, profile, next)
	if err != nil {
		return jsconfig.Profile{}, loadedMeta, fmt.Errorf("state: save profile %q: %w", ref.Name, err)
	}
	profile.SnapshotID = saved.SnapshotID
	return profile, saved, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
