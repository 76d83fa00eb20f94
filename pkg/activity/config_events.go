package activity

import (
	"strings"
	"time"
)

// Verbs emitted for configuration lifecycle transitions.
const (
	VerbInitialized = "config.initialized"
	VerbOverridden  = "config.overridden"
	VerbReset       = "config.reset"
	VerbMutated     = "config.mutated"
	VerbStrictMode  = "config.strict_mode"
	VerbScopeMisuse = "scope.misuse"
)

// Object types carried by configuration events.
const (
	ObjectGlobal = "config.global"
	ObjectScope  = "config.scope"
)

// ConfigEventInput describes the fields shared by configuration events.
type ConfigEventInput struct {
	ActorID    string
	ObjectID   string
	Op         string
	Strict     bool
	Locked     bool
	GuardID    string
	GuardLabel string
	Reason     string
	Values     map[string]any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildInitializedEvent reports Init locking the global configuration.
func BuildInitializedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbInitialized, ObjectGlobal, input)
}

// BuildOverriddenEvent reports an UnsafeOverride of the global configuration.
func BuildOverriddenEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbOverridden, ObjectGlobal, input)
}

// BuildResetEvent reports Reset restoring the defaults.
func BuildResetEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbReset, ObjectGlobal, input)
}

// BuildMutatedEvent reports a direct mutation of the global configuration.
func BuildMutatedEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbMutated, ObjectGlobal, input)
}

// BuildStrictModeEvent reports a strict mode toggle.
func BuildStrictModeEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbStrictMode, ObjectGlobal, input)
}

// BuildScopeMisuseEvent reports a guard closed out of order.
func BuildScopeMisuseEvent(input ConfigEventInput) Event {
	return buildConfigEvent(VerbScopeMisuse, ObjectScope, input)
}

func buildConfigEvent(verb, objectType string, input ConfigEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["strict"] = input.Strict
	metadata["locked"] = input.Locked
	if input.Op != "" {
		metadata["op"] = input.Op
	}
	if input.GuardLabel != "" {
		metadata["guard_label"] = input.GuardLabel
	}
	if input.Reason != "" {
		metadata["reason"] = input.Reason
	}
	if len(input.Values) > 0 {
		metadata["values"] = cloneMap(input.Values)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.GuardID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
