package jsconfig

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-jsconfig/layering"
)

// Recommended profile priorities. Higher numbers win.
const (
	ProfilePrioritySystem  = 100
	ProfilePriorityTenant  = 200
	ProfilePriorityRequest = 300
)

var (
	// ErrProfileNameRequired indicates a profile without a name.
	ErrProfileNameRequired = errors.New("jsconfig: profile name must be provided")
	// ErrDuplicateProfileName indicates two profiles share a name.
	ErrDuplicateProfileName = errors.New("jsconfig: profile names must be unique")
	// ErrPriorityOrder indicates two profiles share a priority.
	ErrPriorityOrder = errors.New("jsconfig: profile priorities must be strictly ordered")
)

// Profile is a named patch with a precedence.
type Profile struct {
	Name       string         `json:"name" yaml:"name"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty"`
	Priority   int            `json:"priority" yaml:"priority"`
	Metadata   map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	SnapshotID string         `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	Patch      Patch          `json:"patch" yaml:"patch"`
}

// ProfileOption configures optional profile fields.
type ProfileOption func(*Profile)

// WithProfileLabel sets a human-friendly label.
func WithProfileLabel(label string) ProfileOption {
	return func(p *Profile) {
		p.Label = label
	}
}

// WithProfileMetadata attaches a copy of metadata.
func WithProfileMetadata(metadata map[string]any) ProfileOption {
	return func(p *Profile) {
		p.Metadata = copyMetadata(metadata)
	}
}

// WithProfileSnapshotID records the stored revision the profile came from.
func WithProfileSnapshotID(id string) ProfileOption {
	return func(p *Profile) {
		p.SnapshotID = id
	}
}

// NewProfile builds a profile. Validation happens in NewProfileSet.
func NewProfile(name string, priority int, patch Patch, opts ...ProfileOption) Profile {
	profile := Profile{
		Name:     name,
		Priority: priority,
		Patch:    layering.Clone(patch),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&profile)
		}
	}
	return profile
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	return Profile{
		Name:       p.Name,
		Label:      p.Label,
		Priority:   p.Priority,
		Metadata:   copyMetadata(p.Metadata),
		SnapshotID: p.SnapshotID,
		Patch:      layering.Clone(p.Patch),
	}
}

// ProfileSet is a validated list of profiles ordered strongest first.
type ProfileSet struct {
	profiles []Profile
}

// NewProfileSet validates names and priorities and sorts the profiles.
func NewProfileSet(profiles ...Profile) (*ProfileSet, error) {
	seen := make(map[string]struct{}, len(profiles))
	copied := make([]Profile, len(profiles))
	for i, profile := range profiles {
		profile = profile.Clone()
		profile.Name = strings.TrimSpace(profile.Name)
		if profile.Name == "" {
			return nil, ErrProfileNameRequired
		}
		if _, ok := seen[profile.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfileName, profile.Name)
		}
		seen[profile.Name] = struct{}{}
		copied[i] = profile
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Priority == copied[j].Priority {
			return copied[i].Name < copied[j].Name
		}
		return copied[i].Priority > copied[j].Priority
	})
	for i := 1; i < len(copied); i++ {
		if copied[i-1].Priority <= copied[i].Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Priority)
		}
	}
	return &ProfileSet{profiles: copied}, nil
}

// Profiles returns copies of the profiles, strongest first.
func (s *ProfileSet) Profiles() []Profile {
	if s == nil || len(s.profiles) == 0 {
		return nil
	}
	out := make([]Profile, len(s.profiles))
	for i := range s.profiles {
		out[i] = s.profiles[i].Clone()
	}
	return out
}

// Len returns the number of profiles.
func (s *ProfileSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.profiles)
}

// Label joins the names strongest first, e.g. "request>tenant>system".
func (s *ProfileSet) Label() string {
	if s == nil {
		return ""
	}
	names := make([]string, len(s.profiles))
	for i, profile := range s.profiles {
		names[i] = profile.Name
	}
	return strings.Join(names, ">")
}

// Merge folds the patches so that fields set by a stronger profile win and
// unset fields fall through to weaker ones.
func (s *ProfileSet) Merge() Patch {
	if s == nil || len(s.profiles) == 0 {
		return Patch{}
	}
	patches := make([]Patch, len(s.profiles))
	for i := range s.profiles {
		patches[i] = s.profiles[i].Patch
	}
	return layering.MergeLayers(patches...)
}

// MergeProfiles validates profiles and merges their patches.
func MergeProfiles(profiles ...Profile) (Patch, error) {
	set, err := NewProfileSet(profiles...)
	if err != nil {
		return Patch{}, err
	}
	return set.Merge(), nil
}

// BeginProfiles opens one scope holding the merged profiles, labelled with
// their names.
func (rt *Runtime) BeginProfiles(ctx context.Context, profiles ...Profile) (context.Context, *Guard, error) {
	set, err := NewProfileSet(profiles...)
	if err != nil {
		return ctx, nil, err
	}
	override, err := set.Merge().Override()
	if err != nil {
		return ctx, nil, err
	}
	ctx, guard := rt.BeginScopeWith(ctx, set.Label(), override)
	return ctx, guard, nil
}

// BeginPatch opens a scope applying patch.
func (rt *Runtime) BeginPatch(ctx context.Context, label string, patch Patch) (context.Context, *Guard, error) {
	override, err := patch.Override()
	if err != nil {
		return ctx, nil, err
	}
	ctx, guard := rt.BeginScopeWith(ctx, label, override)
	return ctx, guard, nil
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
